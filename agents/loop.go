package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bububa/research-agents/components"
	"github.com/bububa/research-agents/components/systemprompt"
	"github.com/bububa/research-agents/components/systemprompt/cot"
	"github.com/bububa/research-agents/routing"
	"github.com/bububa/research-agents/schema"
	"github.com/bububa/research-agents/sources"
	"github.com/bububa/research-agents/tools/registry"
	"github.com/bububa/research-agents/trace"
)

const (
	// BudgetAnswer opens the forced final answer when the iteration budget
	// runs out before the model settles on one.
	BudgetAnswer = "I wasn't able to fully resolve this within the step limit."
	// RefusalAnswer is the fixed reply to questions the router gates out.
	RefusalAnswer = "I can only help with NLP course topics. That question is outside my scope."
)

const (
	finalReasonCompleted       = "completed"
	finalReasonBudgetExhausted = "budget_exhausted"
	finalReasonOutOfDomain     = "out_of_domain"
)

// ErrNoDecisionMaker is returned when a loop runs without a decision maker.
var ErrNoDecisionMaker = errors.New("loop requires a decision maker")

// RunResult is the terminal outcome of one orchestrated question.
type RunResult struct {
	// Answer is the user visible answer, sources section included
	Answer string
	// Iterations is how many decision steps the run consumed
	Iterations int
	// Exhausted marks a forced answer after the iteration budget ran out
	Exhausted bool
	// OutOfDomain marks the fixed refusal for gated questions
	OutOfDomain bool
	// Hint is the routing preference the run started with
	Hint routing.Hint
	// Usage sums the provider token usage across all decision steps
	Usage components.LLMUsage
	// TurnID identifies the conversation turn in memory
	TurnID string
}

// Loop alternates a decision step with concurrent tool dispatch until the
// model produces a final answer or the iteration budget runs out. One Loop
// run owns its conversation turn, nothing else may touch the memory while
// a question is in flight.
type Loop struct {
	router          routing.Router
	decisionMaker   DecisionMaker
	registry        *registry.Registry
	dispatcher      *Dispatcher
	tracer          trace.Tracer
	memory          *components.Memory
	maxIterations   int
	sources         *sources.Aggregator
	stream          StreamHandler
	promptGenerator systemprompt.Generator
}

// LoopOption configures a Loop
type LoopOption func(*Loop)

// WithRouter set the routing policy consulted once per run
func WithRouter(router routing.Router) LoopOption {
	return func(l *Loop) {
		l.router = router
	}
}

// WithDecisionMaker set the decision step implementation
func WithDecisionMaker(dm DecisionMaker) LoopOption {
	return func(l *Loop) {
		l.decisionMaker = dm
	}
}

// WithRegistry set the callable tool registry
func WithRegistry(reg *registry.Registry) LoopOption {
	return func(l *Loop) {
		l.registry = reg
	}
}

// WithDispatcher replaces the default tool dispatcher
func WithDispatcher(d *Dispatcher) LoopOption {
	return func(l *Loop) {
		l.dispatcher = d
	}
}

// WithTracer set the execution tracer
func WithTracer(tracer trace.Tracer) LoopOption {
	return func(l *Loop) {
		l.tracer = tracer
	}
}

// WithMemory set the conversation memory, shared across runs for
// multi turn conversations
func WithMemory(m *components.Memory) LoopOption {
	return func(l *Loop) {
		l.memory = m
	}
}

// WithMaxIterations caps the decision steps per run
func WithMaxIterations(n int) LoopOption {
	return func(l *Loop) {
		l.maxIterations = n
	}
}

// WithSources set the citation aggregator, reset at the start of each run
func WithSources(agg *sources.Aggregator) LoopOption {
	return func(l *Loop) {
		l.sources = agg
	}
}

// WithStream set the live event handler
func WithStream(h StreamHandler) LoopOption {
	return func(l *Loop) {
		l.stream = h
	}
}

// WithPromptGenerator set the system prompt generator
func WithPromptGenerator(g systemprompt.Generator) LoopOption {
	return func(l *Loop) {
		l.promptGenerator = g
	}
}

// NewLoop initializes an orchestration loop.
func NewLoop(options ...LoopOption) *Loop {
	ret := &Loop{
		maxIterations: 6,
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.registry == nil {
		ret.registry = registry.New()
	}
	if ret.dispatcher == nil {
		ret.dispatcher = NewDispatcher(ret.registry)
	}
	if ret.memory == nil {
		ret.memory = components.NewMemory(0)
	}
	if ret.promptGenerator == nil {
		ret.promptGenerator = defaultPromptGenerator()
	}
	if ret.stream != nil {
		if setter, ok := ret.decisionMaker.(StreamSetter); ok {
			setter.SetStreamHandler(ret.stream)
		}
		ret.dispatcher.SetStreamHandler(ret.stream)
	}
	return ret
}

// Memory exposes the conversation memory backing the loop.
func (l *Loop) Memory() *components.Memory {
	return l.memory
}

// Run answers one question, consuming at most the configured number of
// decision steps. Tool failures never fail the run, decision step errors
// and context cancellation do.
func (l *Loop) Run(ctx context.Context, question string) (*RunResult, error) {
	if l.decisionMaker == nil {
		return nil, ErrNoDecisionMaker
	}
	if l.sources != nil {
		l.sources.Reset()
	}
	l.memory.NewTurn()
	turnID := l.memory.TurnID()
	l.memory.NewMessage(components.UserRole, schema.String(question))

	hint := routing.None
	if l.router != nil {
		h, err := l.router.Route(ctx, question)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			// routing trouble is never fatal, carry on without a hint
			h = routing.None
		}
		hint = h
		l.record(trace.Event{
			Kind: trace.KindRoute,
			Route: &trace.RoutePayload{
				Question:    question,
				Tool:        hint.Tool,
				Reason:      hint.Reason,
				OutOfDomain: hint.OutOfDomain,
			},
		})
	}
	if hint.OutOfDomain {
		return l.finish(ctx, &RunResult{
			OutOfDomain: true,
			Hint:        hint,
			TurnID:      turnID,
		}, RefusalAnswer, finalReasonOutOfDomain)
	}
	if hint.Tool != "" {
		provider := hintProvider{hint: hint}
		l.promptGenerator.AddContextProviders(provider)
		defer l.promptGenerator.RemoveContextProviders(provider.Title())
	}

	var (
		usage    components.LLMUsage
		gathered []CallResult
	)
	for iteration := 1; iteration <= l.maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		req := &DecisionRequest{
			System:  l.promptGenerator.Generate(),
			History: l.memory.History(),
			Tools:   l.registry,
			Hint:    hint,
		}
		decision, llmResp, err := l.decisionMaker.Decide(ctx, req)
		if err != nil {
			l.record(trace.Event{
				Iteration: iteration,
				Kind:      trace.KindDecide,
				Decide:    &trace.DecidePayload{Outcome: "error"},
			})
			return nil, fmt.Errorf("decision step %d failed: %w", iteration, err)
		}
		if llmResp != nil {
			usage.Merge(llmResp.Usage)
		}
		l.record(trace.Event{
			Iteration: iteration,
			Kind:      trace.KindDecide,
			Decide: &trace.DecidePayload{
				Outcome:      string(decision.Kind),
				NumToolCalls: len(decision.ToolCalls),
			},
		})
		if decision.Kind == DecisionFinal {
			return l.finish(ctx, &RunResult{
				Iterations: iteration,
				Hint:       hint,
				Usage:      usage,
				TurnID:     turnID,
			}, decision.Answer, finalReasonCompleted)
		}
		l.memory.Add(components.NewToolCallMessage(nil, decision.ToolCalls...))
		for _, call := range decision.ToolCalls {
			l.record(trace.Event{
				Iteration: iteration,
				Kind:      trace.KindToolCall,
				ToolCall: &trace.ToolCallPayload{
					CallID:    call.ID,
					Tool:      call.Name,
					Arguments: call.Arguments,
				},
			})
		}
		results := l.dispatcher.Execute(ctx, decision.ToolCalls)
		for _, res := range results {
			l.record(trace.Event{
				Iteration: iteration,
				Kind:      trace.KindToolResult,
				ToolResult: &trace.ToolResultPayload{
					CallID:   res.Call.ID,
					Tool:     res.Call.Name,
					Status:   string(res.Status),
					Content:  res.Content,
					Attempts: res.Attempts,
					Elapsed:  res.Elapsed,
				},
			})
			l.memory.Add(components.NewToolResultMessage(res.Callback()))
			if l.sources != nil {
				if out, ok := res.Output.(schema.Schema); ok {
					l.sources.Collect(out)
				}
			}
			gathered = append(gathered, res)
		}
	}
	answer := BudgetAnswer
	if digest := digestResults(gathered); digest != "" {
		answer += " " + digest
	}
	return l.finish(ctx, &RunResult{
		Iterations: l.maxIterations,
		Exhausted:  true,
		Hint:       hint,
		Usage:      usage,
		TurnID:     turnID,
	}, answer, finalReasonBudgetExhausted)
}

// finish records the terminal trace event with the bare answer, appends the
// sources section, stores the assistant turn and emits the finish event.
func (l *Loop) finish(ctx context.Context, ret *RunResult, answer, reason string) (*RunResult, error) {
	l.record(trace.Event{
		Iteration: ret.Iterations,
		Kind:      trace.KindFinalAnswer,
		FinalAnswer: &trace.FinalAnswerPayload{
			Answer: answer,
			Reason: reason,
		},
	})
	if l.sources != nil {
		answer = l.sources.Append(answer)
	}
	ret.Answer = answer
	l.memory.NewMessage(components.AssistantRole, schema.String(answer))
	if l.stream != nil {
		l.stream.OnFinish(ctx, ret)
	}
	return ret, nil
}

func (l *Loop) record(e trace.Event) {
	if l.tracer == nil {
		return
	}
	l.tracer.Record(e)
}

func defaultPromptGenerator() systemprompt.Generator {
	return cot.New(
		cot.WithBackground([]string{
			"- You are a research assistant for NLP course topics.",
		}),
		cot.WithSteps([]string{
			"- Decide whether you already know enough to answer.",
			"- Call the available tools when you need to look something up.",
			"- Ground the final answer in the tool results.",
		}),
		cot.WithOutputInstructs([]string{
			"- Answer in plain text and keep answers concise.",
		}),
	)
}

// digestResults folds the gathered tool outcomes into one line for the
// budget exhaustion answer.
func digestResults(results []CallResult) string {
	if len(results) == 0 {
		return ""
	}
	parts := make([]string, 0, len(results))
	for _, res := range results {
		parts = append(parts, fmt.Sprintf("%s (%s)", res.Call.Name, res.Status))
	}
	return fmt.Sprintf("Tool results gathered so far: %s.", strings.Join(parts, ", "))
}

// hintProvider surfaces the routing preference inside the system prompt.
type hintProvider struct {
	hint routing.Hint
}

func (p hintProvider) Title() string {
	return "ROUTING PREFERENCE"
}

func (p hintProvider) Info() string {
	if p.hint.Reason == "" {
		return fmt.Sprintf("Consider starting with the %q tool. This is a soft preference, ignore it when it does not fit.", p.hint.Tool)
	}
	return fmt.Sprintf("Consider starting with the %q tool because %s. This is a soft preference, ignore it when it does not fit.", p.hint.Tool, p.hint.Reason)
}
