package schema

import "encoding/json"

// Schema is the payload contract for everything flowing through the engine.
type Schema interface {
	// Citations returns the external sources the payload was drawn from
	Citations() []Citation
}

// SchemaPointer is a Schema whose citations can be attached after construction
type SchemaPointer interface {
	Schema
	SetCitations([]Citation)
}

// Stringify renders a payload for prompt use. Plain strings pass through,
// everything else marshals to JSON.
func Stringify(s Schema) string {
	if v, ok := s.(String); ok {
		return string(v)
	}
	bs, _ := json.Marshal(s)
	return string(bs)
}

// ToBytes renders a payload as bytes under the same rules as Stringify.
func ToBytes(s Schema) []byte {
	if v, ok := s.(String); ok {
		return []byte(v)
	}
	bs, _ := json.Marshal(s)
	return bs
}
