package routing

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/words"
)

// Rule maps keywords to a preferred tool. Keywords are matched lowercase,
// single words against the question's word set and multi word phrases
// against the normalized question text. The first matching rule wins.
type Rule struct {
	Tool     string
	Keywords []string
}

// KeywordRouter derives hints from a deterministic rule table.
// It is a pure function of the question and its rules, uses no network,
// and always reports in domain.
type KeywordRouter struct {
	rules []Rule
}

var _ Router = (*KeywordRouter)(nil)

// NewKeywordRouter returns a router over the given rules,
// falling back to DefaultRules with none.
func NewKeywordRouter(rules ...Rule) *KeywordRouter {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &KeywordRouter{rules: rules}
}

// Route scans the question for the first rule with a keyword hit.
// No hit yields the empty hint.
func (r *KeywordRouter) Route(ctx context.Context, question string) (Hint, error) {
	normalized := strings.ToLower(question)
	tokens := segmentWords(normalized)
	for _, rule := range r.rules {
		for _, kw := range rule.Keywords {
			if strings.ContainsAny(kw, " -") {
				if strings.Contains(normalized, kw) {
					return Hint{Tool: rule.Tool, Reason: fmt.Sprintf("question mentions %q", kw)}, nil
				}
				continue
			}
			if _, found := tokens[kw]; found {
				return Hint{Tool: rule.Tool, Reason: fmt.Sprintf("question mentions %q", kw)}, nil
			}
		}
	}
	return None, nil
}

// segmentWords splits the text into a set of lowercase word tokens.
func segmentWords(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	segments := words.NewSegmenter([]byte(text))
	for segments.Next() {
		token := string(segments.Bytes())
		if !hasAlphaNum(token) {
			continue
		}
		tokens[token] = struct{}{}
	}
	return tokens
}

func hasAlphaNum(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// DefaultRules biases paper hunting questions to the arXiv tool, known
// concept questions to the knowledge base, and broad encyclopedic
// questions to Wikipedia.
func DefaultRules() []Rule {
	return []Rule{
		{Tool: "arxiv_search", Keywords: []string{
			"paper", "papers", "arxiv", "publication", "publications",
			"preprint", "cite", "citation", "published", "author", "authors",
		}},
		{Tool: "kb_lookup", Keywords: []string{
			"transformer", "transformers", "self-attention", "attention",
			"bert", "tokenization", "tokenizer", "tokenize", "definition",
		}},
		{Tool: "wikipedia_search", Keywords: []string{
			"who", "history", "wikipedia", "overview", "background", "encyclopedia",
		}},
	}
}
