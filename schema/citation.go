package schema

import "fmt"

// Citation identifies an external source backing a payload.
// Two citations refer to the same source when Origin and Identifier match.
type Citation struct {
	// Origin is the system the source lives in, e.g. "wikipedia", "arxiv", "kb"
	Origin string `json:"origin,omitempty"`
	// Identifier is the stable ID of the source within its origin
	Identifier string `json:"identifier,omitempty"`
	// Label is the human readable rendering for a sources list
	Label string `json:"label,omitempty"`
}

// String implements fmt.Stringer interface
func (c Citation) String() string {
	if c.Label != "" {
		return c.Label
	}
	return fmt.Sprintf("%s: %s", c.Origin, c.Identifier)
}
