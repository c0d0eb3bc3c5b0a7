package schema

// Base is a base schema
type Base struct {
	citations []Citation
}

// String implements Schema interface
func (r Base) String() string {
	return ""
}

// Citations returns the sources attached to the schema
func (r Base) Citations() []Citation {
	return r.citations
}

// SetCitations replaces the sources attached to the schema
func (r *Base) SetCitations(v []Citation) {
	r.citations = v
}

// AddCitations appends sources to the schema
func (r *Base) AddCitations(v ...Citation) {
	r.citations = append(r.citations, v...)
}
