package schema

import (
	"testing"
)

type paperSchema struct {
	Base  `json:"-"`
	Title string `json:"title" jsonschema:"title=title"`
	Year  int    `json:"year" jsonschema:"title=year"`
}

func TestStringify(t *testing.T) {
	if got := Stringify(String("hello")); got != "hello" {
		t.Errorf("Expect plain string passthrough, but got %q", got)
	}
	v := paperSchema{Title: "Attention Is All You Need", Year: 2017}
	expect := `{"title":"Attention Is All You Need","year":2017}`
	if got := Stringify(v); got != expect {
		t.Errorf("Expect %s, but got %s", expect, got)
	}
	if got := string(ToBytes(v)); got != expect {
		t.Errorf("Expect %s, but got %s", expect, got)
	}
}

func TestBaseCitations(t *testing.T) {
	v := new(paperSchema)
	if cs := v.Citations(); cs != nil {
		t.Errorf("Expect no citations on a fresh schema, but got %+v", cs)
	}
	v.SetCitations([]Citation{{Origin: "arxiv", Identifier: "1706.03762"}})
	v.AddCitations(Citation{Origin: "wikipedia", Identifier: "Transformer", Label: "Wikipedia: Transformer (summary)"})
	cs := v.Citations()
	if len(cs) != 2 {
		t.Fatalf("Expect 2 citations, but got %d", len(cs))
	}
	if got := cs[0].String(); got != "arxiv: 1706.03762" {
		t.Errorf("Expect fallback label, but got %q", got)
	}
	if got := cs[1].String(); got != "Wikipedia: Transformer (summary)" {
		t.Errorf("Expect explicit label, but got %q", got)
	}
}

func TestSchemaPointer(t *testing.T) {
	var s SchemaPointer = new(paperSchema)
	s.SetCitations([]Citation{{Origin: "kb", Identifier: "transformer"}})
	if got := len(s.Citations()); got != 1 {
		t.Errorf("Expect 1 citation, but got %d", got)
	}
}
