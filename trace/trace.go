package trace

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Kind discriminates trace events.
type Kind string

const (
	KindRoute       Kind = "route"
	KindDecide      Kind = "decide"
	KindToolCall    Kind = "tool_call"
	KindToolResult  Kind = "tool_result"
	KindFinalAnswer Kind = "final_answer"
)

// RoutePayload records the routing outcome for the question.
type RoutePayload struct {
	Question string `json:"question"`
	// Tool is the preferred tool name, empty when no preference
	Tool   string `json:"tool,omitempty"`
	Reason string `json:"reason,omitempty"`
	// OutOfDomain marks a question the gate refused
	OutOfDomain bool `json:"out_of_domain,omitempty"`
}

// DecidePayload records one decision step outcome.
type DecidePayload struct {
	// Outcome is either "final_answer" or "tool_calls"
	Outcome      string `json:"outcome"`
	NumToolCalls int    `json:"num_tool_calls,omitempty"`
}

// ToolCallPayload records a tool invocation before it runs.
type ToolCallPayload struct {
	CallID    string `json:"call_id"`
	Tool      string `json:"tool"`
	Arguments string `json:"arguments,omitempty"`
}

// ToolResultPayload records a finished tool invocation.
type ToolResultPayload struct {
	CallID string `json:"call_id"`
	Tool   string `json:"tool"`
	// Status is ok, not_found or error
	Status   string        `json:"status"`
	Content  string        `json:"content,omitempty"`
	Attempts int           `json:"attempts,omitempty"`
	Elapsed  time.Duration `json:"elapsed,omitempty"`
}

// FinalAnswerPayload records the terminal answer of a run.
type FinalAnswerPayload struct {
	Answer string `json:"answer"`
	// Reason is completed, budget_exhausted or out_of_domain
	Reason string `json:"reason"`
}

// Event is one append-only record of an orchestration run. Exactly one
// payload arm matching Kind is set.
type Event struct {
	// Seq is assigned by the recorder, strictly increasing from 1
	Seq  int64     `json:"seq"`
	Time time.Time `json:"ts"`
	// Iteration is the 1-based decision iteration, 0 for run level events
	Iteration   int                 `json:"iteration,omitempty"`
	Kind        Kind                `json:"kind"`
	Route       *RoutePayload       `json:"route,omitempty"`
	Decide      *DecidePayload      `json:"decide,omitempty"`
	ToolCall    *ToolCallPayload    `json:"tool_call,omitempty"`
	ToolResult  *ToolResultPayload  `json:"tool_result,omitempty"`
	FinalAnswer *FinalAnswerPayload `json:"final_answer,omitempty"`
}

// Tracer receives orchestration events as they happen.
type Tracer interface {
	Record(Event)
}

// Recorder is an in-memory, append-only Tracer.
// Safe for concurrent use.
type Recorder struct {
	mtx    sync.RWMutex
	seq    *atomic.Int64
	events []Event
}

var _ Tracer = (*Recorder)(nil)

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		seq: atomic.NewInt64(0),
	}
}

// Record stamps the event with the next sequence number and appends it.
// Recorded events are never mutated or removed.
func (r *Recorder) Record(e Event) {
	e.Seq = r.seq.Inc()
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	r.mtx.Lock()
	r.events = append(r.events, e)
	r.mtx.Unlock()
}

// Events returns a snapshot copy of the recorded events in append order.
func (r *Recorder) Events() []Event {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	events := make([]Event, len(r.events))
	copy(events, r.events)
	return events
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return len(r.events)
}
