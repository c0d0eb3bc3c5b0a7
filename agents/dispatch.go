package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/bububa/research-agents/components"
	"github.com/bububa/research-agents/schema"
	"github.com/bububa/research-agents/tools"
	"github.com/bububa/research-agents/tools/registry"
)

// retryBackoff spaces a transient retry from the failed attempt.
const retryBackoff = 500 * time.Millisecond

// CallStatus classifies how a single tool call ended.
type CallStatus string

const (
	// CallStatusOK means the tool produced a result
	CallStatusOK CallStatus = "ok"
	// CallStatusNotFound means the tool had no result, or the tool itself is unknown
	CallStatusNotFound CallStatus = "not_found"
	// CallStatusError means the call failed, timed out or panicked
	CallStatusError CallStatus = "error"
)

// CallResult is the structured record of one dispatched call.
type CallResult struct {
	Call     components.ToolCall
	Status   CallStatus
	Content  string
	Output   any
	Err      error
	Attempts int
	Elapsed  time.Duration
}

// Callback converts the record to the tool message re-entering the conversation.
func (r CallResult) Callback() components.ToolCallback {
	return components.ToolCallback{
		ID:      r.Call.ID,
		Name:    r.Call.Name,
		Content: r.Content,
		IsError: r.Status == CallStatusError,
	}
}

// Dispatcher fans tool calls out over a bounded worker pool and folds the
// outcomes back in request order. It never fails a run, every failure
// becomes a structured result.
type Dispatcher struct {
	registry    *registry.Registry
	concurrency int
	callTimeout time.Duration
	retries     int
	validate    *validator.Validate
	stream      StreamHandler
}

var _ StreamSetter = (*Dispatcher)(nil)

// DispatchOption configures a Dispatcher
type DispatchOption func(*Dispatcher)

// WithConcurrency caps how many calls run at once
func WithConcurrency(n int) DispatchOption {
	return func(d *Dispatcher) {
		d.concurrency = n
	}
}

// WithCallTimeout bounds a single call attempt
func WithCallTimeout(timeout time.Duration) DispatchOption {
	return func(d *Dispatcher) {
		d.callTimeout = timeout
	}
}

// WithRetry sets how many extra attempts a transient failure gets
func WithRetry(attempts int) DispatchOption {
	return func(d *Dispatcher) {
		d.retries = attempts
	}
}

// WithValidator replaces the input validator instance
func WithValidator(v *validator.Validate) DispatchOption {
	return func(d *Dispatcher) {
		d.validate = v
	}
}

// NewDispatcher initializes a Dispatcher over the given registry.
func NewDispatcher(reg *registry.Registry, options ...DispatchOption) *Dispatcher {
	ret := &Dispatcher{
		registry:    reg,
		concurrency: 4,
		callTimeout: 10 * time.Second,
		retries:     1,
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.validate == nil {
		ret.validate = validator.New()
	}
	return ret
}

// SetStreamHandler forwards per call start and finish events to h.
func (d *Dispatcher) SetStreamHandler(h StreamHandler) {
	d.stream = h
}

// Dispatch executes the batch and returns the tool messages in request order.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []components.ToolCall) []components.ToolCallback {
	results := d.Execute(ctx, calls)
	ret := make([]components.ToolCallback, 0, len(results))
	for _, res := range results {
		ret = append(ret, res.Callback())
	}
	return ret
}

// Execute executes the batch and returns the full per call records in
// request order. A batch of N calls always yields exactly N records.
func (d *Dispatcher) Execute(ctx context.Context, calls []components.ToolCall) []CallResult {
	results := make([]CallResult, len(calls))
	switch len(calls) {
	case 0:
		return results
	case 1:
		// a single call needs no pool
		results[0] = d.runCall(ctx, calls[0])
		return results
	}
	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i := range calls {
		g.Go(func() error {
			results[i] = d.runCall(ctx, calls[i])
			return nil
		})
	}
	g.Wait()
	return results
}

func (d *Dispatcher) runCall(ctx context.Context, call components.ToolCall) CallResult {
	started := time.Now()
	if fn := d.stream; fn != nil {
		fn.OnToolStart(ctx, call)
	}
	ret := d.execCall(ctx, call)
	ret.Elapsed = time.Since(started)
	if fn := d.stream; fn != nil {
		fn.OnToolFinish(ctx, ret)
	}
	return ret
}

func (d *Dispatcher) execCall(ctx context.Context, call components.ToolCall) CallResult {
	ret := CallResult{Call: call}
	entry, found := d.registry.Get(call.Name)
	if !found {
		ret.Status = CallStatusNotFound
		ret.Content = fmt.Sprintf("tool %q is not registered", call.Name)
		return ret
	}
	tool := entry.Tool()
	input := tool.NewInput()
	args, wellFormed := repairArguments(call.Arguments)
	if !wellFormed {
		ret.Status = CallStatusError
		ret.Content = fmt.Sprintf("tool %q got malformed arguments", call.Name)
		ret.Err = tools.ErrInvalidInputSchema
		return ret
	}
	// unknown argument fields are rejected, not silently dropped
	dec := json.NewDecoder(strings.NewReader(args))
	dec.DisallowUnknownFields()
	if err := dec.Decode(input); err != nil {
		ret.Status = CallStatusError
		ret.Content = fmt.Sprintf("tool %q got invalid arguments: %v", call.Name, err)
		ret.Err = err
		return ret
	}
	if err := d.validate.Struct(input); err != nil {
		// non struct inputs have nothing to validate
		var invalid *validator.InvalidValidationError
		if !errors.As(err, &invalid) {
			ret.Status = CallStatusError
			ret.Content = fmt.Sprintf("tool %q input failed validation: %v", call.Name, err)
			ret.Err = err
			return ret
		}
	}
	for {
		ret.Attempts++
		callCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
		out, err := runTool(callCtx, tool, input)
		cancel()
		if err == nil {
			ret.Status = CallStatusOK
			ret.Content = stringifyOutput(out)
			ret.Output = out
			return ret
		}
		ret.Err = err
		switch {
		case errors.Is(err, tools.ErrNotFound):
			ret.Status = CallStatusNotFound
			ret.Content = fmt.Sprintf("tool %q found nothing: %v", call.Name, err)
			return ret
		case ctx.Err() != nil:
			// the run itself is going away, report and stop
			ret.Status = CallStatusError
			ret.Content = fmt.Sprintf("tool %q aborted: %v", call.Name, ctx.Err())
			return ret
		case errors.Is(err, context.DeadlineExceeded):
			ret.Status = CallStatusError
			ret.Content = fmt.Sprintf("tool %q timed out after %s", call.Name, d.callTimeout)
			return ret
		}
		if ret.Attempts > d.retries {
			ret.Status = CallStatusError
			ret.Content = fmt.Sprintf("tool %q failed: %v", call.Name, err)
			return ret
		}
		select {
		case <-time.After(retryBackoff):
		case <-ctx.Done():
		}
	}
}

// runTool executes one attempt with the tool's own hooks around it,
// converting panics into errors.
func runTool(ctx context.Context, tool tools.AnonymousTool, input any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	if fn := tool.StartHook(); fn != nil {
		fn(ctx, tool, input)
	}
	out, err = tool.RunAnonymous(ctx, input)
	if err != nil {
		if fn := tool.ErrorHook(); fn != nil {
			fn(ctx, tool, input, err)
		}
		return nil, err
	}
	if fn := tool.EndHook(); fn != nil {
		fn(ctx, tool, input, out)
	}
	return out, nil
}

func stringifyOutput(out any) string {
	if out == nil {
		return ""
	}
	if v, ok := out.(schema.Schema); ok {
		return schema.Stringify(v)
	}
	bs, _ := json.Marshal(out)
	return string(bs)
}
