package routing

import (
	"context"
	"testing"
)

func TestKeywordRouterDefaultRules(t *testing.T) {
	router := NewKeywordRouter()
	ctx := context.Background()
	tests := []struct {
		question string
		tool     string
	}{
		{"Which paper introduced the transformer architecture?", "arxiv_search"},
		{"Explain self-attention in transformers", "kb_lookup"},
		{"Who was Alan Turing?", "wikipedia_search"},
		{"Find papers about BERT", "arxiv_search"},
		{"What is the definition of gradient descent?", "kb_lookup"},
		{"Who are the authors of the GPT report?", "arxiv_search"},
		{"What is 2+2?", ""},
	}
	for _, tt := range tests {
		hint, err := router.Route(ctx, tt.question)
		if err != nil {
			t.Fatalf("Error routing %q: %v", tt.question, err)
		}
		if hint.Tool != tt.tool {
			t.Errorf("Expect tool %q for %q, but got %q", tt.tool, tt.question, hint.Tool)
		}
		if tt.tool == "" {
			if !hint.IsZero() {
				t.Errorf("Expect empty hint for %q, but got %+v", tt.question, hint)
			}
			continue
		}
		if hint.Reason == "" {
			t.Errorf("Expect a reason for %q, but got none", tt.question)
		}
		if hint.OutOfDomain {
			t.Errorf("Expect in domain hint for %q, but got out of domain", tt.question)
		}
	}
}

func TestKeywordRouterCaseInsensitive(t *testing.T) {
	router := NewKeywordRouter()
	hint, err := router.Route(context.Background(), "WHO wrote the first chess program?")
	if err != nil {
		t.Fatalf("Error routing: %v", err)
	}
	if hint.Tool != "wikipedia_search" {
		t.Errorf("Expect tool wikipedia_search, but got %q", hint.Tool)
	}
}

func TestKeywordRouterCustomRules(t *testing.T) {
	router := NewKeywordRouter(Rule{
		Tool:     "kb_lookup",
		Keywords: []string{"knowledge base", "glossary"},
	})
	hint, err := router.Route(context.Background(), "Check the Knowledge Base entry on BERT.")
	if err != nil {
		t.Fatalf("Error routing: %v", err)
	}
	if hint.Tool != "kb_lookup" {
		t.Errorf("Expect tool kb_lookup, but got %q", hint.Tool)
	}
	// default rules are replaced, not merged
	hint, err = router.Route(context.Background(), "Find papers about BERT")
	if err != nil {
		t.Fatalf("Error routing: %v", err)
	}
	if !hint.IsZero() {
		t.Errorf("Expect empty hint, but got %+v", hint)
	}
}

func TestKeywordRouterFirstRuleWins(t *testing.T) {
	// "papers" hits the arXiv rule before "bert" can hit the knowledge base rule
	router := NewKeywordRouter()
	hint, err := router.Route(context.Background(), "List papers citing BERT")
	if err != nil {
		t.Fatalf("Error routing: %v", err)
	}
	if hint.Tool != "arxiv_search" {
		t.Errorf("Expect tool arxiv_search, but got %q", hint.Tool)
	}
}
