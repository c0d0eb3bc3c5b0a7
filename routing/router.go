package routing

import "context"

// Hint is a soft tool preference for a question. It may bias the decision
// step but never forces or forbids a tool. The zero Hint means no preference.
type Hint struct {
	// Tool is the preferred tool name, empty for no preference
	Tool string `json:"tool,omitempty"`
	// Reason is a short explanation of the preference
	Reason string `json:"reason,omitempty"`
	// OutOfDomain marks a question outside the assistant's scope
	OutOfDomain bool `json:"out_of_domain,omitempty"`
}

// None is the hint with no preference.
var None = Hint{}

// IsZero reports whether the hint carries no preference.
func (h Hint) IsZero() bool {
	return h.Tool == "" && !h.OutOfDomain
}

// Router derives a tool preference for a question before the first
// decision step of a run.
type Router interface {
	Route(ctx context.Context, question string) (Hint, error)
}
