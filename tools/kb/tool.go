package kb

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bububa/research-agents/schema"
	"github.com/bububa/research-agents/tools"
)

// Input Schema for looking up an NLP course concept in the local knowledge base.
type Input struct {
	schema.Base
	// Concept Name of the concept to look up.
	Concept string `json:"concept" jsonschema:"title=concept,description=Name of the concept to look up. For example 'transformer' or 'BERT'." validate:"required"`
}

func NewInput(concept string) *Input {
	return &Input{
		Concept: concept,
	}
}

func (s Input) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

// Output Schema for the output of the knowledge base lookup.
type Output struct {
	schema.Base
	// Concept The canonical concept key that matched
	Concept string `json:"concept" jsonschema:"title=concept,description=The canonical concept that matched."`
	// Definition A short definition of the concept
	Definition string `json:"definition" jsonschema:"title=definition,description=A short definition of the concept."`
	// KeyPaper The paper that introduced the concept
	KeyPaper string `json:"key_paper,omitempty" jsonschema:"title=key_paper,description=The paper that introduced the concept."`
	// Year Publication year of the key paper
	Year int `json:"year,omitempty" jsonschema:"title=year,description=Publication year of the key paper."`
	// Category Rough grouping of the concept
	Category string `json:"category,omitempty" jsonschema:"title=category,description=Rough grouping of the concept."`
}

func NewOutput(concept string, entry Entry) *Output {
	return &Output{
		Concept:    concept,
		Definition: entry.Definition,
		KeyPaper:   entry.KeyPaper,
		Year:       entry.Year,
		Category:   entry.Category,
	}
}

func (s Output) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

// Entry holds what the knowledge base knows about one concept.
type Entry struct {
	Definition string
	KeyPaper   string
	Year       int
	// Keywords back up the exact key match for looser phrasings
	Keywords []string
	Category string
}

// Tool answers concept lookups from an in-process table. No network.
type Tool struct {
	tools.Config
}

func New(opts ...tools.Option) *Tool {
	ret := new(Tool)
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.Title() == "" {
		ret.SetTitle("kb_lookup")
	}
	if ret.Description() == "" {
		ret.SetDescription("Looks up NLP course concepts such as transformers, attention, BERT and tokenization in the local knowledge base. Returns a short definition with the key paper and year.")
	}
	return ret
}

// Run looks up the concept. A miss is a not found result, never an error.
func (t *Tool) Run(ctx context.Context, input *Input) (*Output, error) {
	key, entry, found := match(input.Concept)
	if !found {
		return nil, fmt.Errorf("concept not found: %q: %w", input.Concept, tools.ErrNotFound)
	}
	ret := NewOutput(key, entry)
	ret.AddCitations(schema.Citation{
		Origin:     "kb",
		Identifier: key,
		Label:      fmt.Sprintf("KB: %s", key),
	})
	return ret, nil
}

// match resolves a concept by exact key first, then by entry keywords.
func match(concept string) (string, Entry, bool) {
	q := normalize(concept)
	if q == "" {
		return "", Entry{}, false
	}
	if entry, found := entries[q]; found {
		return q, entry, true
	}
	padded := " " + q + " "
	for _, key := range conceptOrder {
		entry := entries[key]
		for _, kw := range entry.Keywords {
			if kw == q || strings.Contains(padded, " "+kw+" ") {
				return key, entry, true
			}
		}
	}
	return "", Entry{}, false
}

// normalize lowercases and strips punctuation so "BERT?" and "bert" meet.
// Hyphens stay, "self-attention" is a single key.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
