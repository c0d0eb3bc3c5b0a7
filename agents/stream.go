package agents

import (
	"context"

	"github.com/bububa/research-agents/components"
)

// StreamHandler receives live events while a run is in flight.
// Callbacks are best effort, the loop ignores whatever they do and
// never blocks a run on them. A nil handler disables events.
type StreamHandler interface {
	// OnToken receives final answer content deltas when the provider streams
	OnToken(ctx context.Context, token string)
	// OnToolStart fires before a tool call executes
	OnToolStart(ctx context.Context, call components.ToolCall)
	// OnToolFinish fires after a tool call finished, whatever its status
	OnToolFinish(ctx context.Context, result CallResult)
	// OnFinish fires once with the assembled run result
	OnFinish(ctx context.Context, result *RunResult)
}

// StreamSetter is implemented by decision makers that can forward
// token deltas while generating a final answer.
type StreamSetter interface {
	SetStreamHandler(h StreamHandler)
}

// StreamCallbacks adapts plain functions to a StreamHandler.
// Nil fields are skipped.
type StreamCallbacks struct {
	Token      func(ctx context.Context, token string)
	ToolStart  func(ctx context.Context, call components.ToolCall)
	ToolFinish func(ctx context.Context, result CallResult)
	Finish     func(ctx context.Context, result *RunResult)
}

var _ StreamHandler = (*StreamCallbacks)(nil)

func (s *StreamCallbacks) OnToken(ctx context.Context, token string) {
	if fn := s.Token; fn != nil {
		fn(ctx, token)
	}
}

func (s *StreamCallbacks) OnToolStart(ctx context.Context, call components.ToolCall) {
	if fn := s.ToolStart; fn != nil {
		fn(ctx, call)
	}
}

func (s *StreamCallbacks) OnToolFinish(ctx context.Context, result CallResult) {
	if fn := s.ToolFinish; fn != nil {
		fn(ctx, result)
	}
}

func (s *StreamCallbacks) OnFinish(ctx context.Context, result *RunResult) {
	if fn := s.Finish; fn != nil {
		fn(ctx, result)
	}
}
