package schema

// String is a plain text payload.
type String string

// Citations implements Schema. Plain text carries no sources of its own.
func (s String) Citations() []Citation {
	return nil
}

func (s String) String() string {
	return string(s)
}

func (s *String) Unmarshal(bs []byte) error {
	*s = String(bs)
	return nil
}
