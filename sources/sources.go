package sources

import (
	"strings"
	"sync"

	"github.com/bububa/research-agents/schema"
)

type key struct {
	origin     string
	identifier string
}

// Aggregator collects the citations gathered over a run.
// Duplicates by (origin, identifier) are dropped, first seen order is kept.
// Safe for concurrent use.
type Aggregator struct {
	mtx  sync.Mutex
	seen map[key]struct{}
	list []schema.Citation
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		seen: make(map[key]struct{}),
	}
}

// Add records citations, dropping ones already seen.
func (a *Aggregator) Add(citations ...schema.Citation) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	for _, c := range citations {
		k := key{origin: c.Origin, identifier: c.Identifier}
		if _, found := a.seen[k]; found {
			continue
		}
		a.seen[k] = struct{}{}
		a.list = append(a.list, c)
	}
}

// Collect harvests the citations a payload carries.
func (a *Aggregator) Collect(s schema.Schema) {
	if s == nil {
		return
	}
	if citations := s.Citations(); len(citations) > 0 {
		a.Add(citations...)
	}
}

// Citations returns a snapshot of the collected citations.
func (a *Aggregator) Citations() []schema.Citation {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	list := make([]schema.Citation, len(a.list))
	copy(list, a.list)
	return list
}

// Len returns the number of distinct citations collected.
func (a *Aggregator) Len() int {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	return len(a.list)
}

// Reset drops every collected citation.
func (a *Aggregator) Reset() {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	a.seen = make(map[key]struct{})
	a.list = nil
}

// Append returns the answer with a trailing sources section listing each
// citation on its own line. With no citations the answer comes back unchanged.
func (a *Aggregator) Append(answer string) string {
	citations := a.Citations()
	if len(citations) == 0 {
		return answer
	}
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(answer, "\n"))
	sb.WriteString("\n\nSources:\n")
	for _, c := range citations {
		sb.WriteString("- ")
		sb.WriteString(c.String())
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
