package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bububa/instructor-go/pkg/instructor"
	cohere "github.com/cohere-ai/cohere-go/v2"
	"github.com/google/uuid"
	"github.com/kaptinlin/jsonrepair"
	anthropic "github.com/liushuangls/go-anthropic/v2"
	openai "github.com/sashabaranov/go-openai"

	"github.com/bububa/research-agents/components"
	"github.com/bububa/research-agents/routing"
	"github.com/bububa/research-agents/schema"
	"github.com/bububa/research-agents/tools/registry"
)

// DecisionKind tells the loop which arm of a Decision is populated.
type DecisionKind string

const (
	// DecisionFinal means the model answered directly
	DecisionFinal DecisionKind = "final_answer"
	// DecisionToolCalls means the model requested tool executions
	DecisionToolCalls DecisionKind = "tool_calls"
)

// FallbackAnswer is returned when the model produced neither usable text
// nor a single well formed tool call.
const FallbackAnswer = "I could not complete the request in a well-formed way."

// ErrNoClient is returned when a decision maker runs without an instructor client.
var ErrNoClient = errors.New("decision maker requires an instructor client")

// Decision is one step outcome, exactly one arm is populated.
type Decision struct {
	Kind      DecisionKind
	Answer    string
	ToolCalls []components.ToolCall
}

// DecisionRequest carries everything one decision step may look at.
type DecisionRequest struct {
	// System is the rendered system prompt for this step
	System string
	// History is the conversation so far, including tool turns
	History []components.Message
	// Tools lists the callable tools bound to the request
	Tools *registry.Registry
	// Hint is the routing preference for the run, may be zero
	Hint routing.Hint
}

// DecisionMaker produces the next step for the orchestration loop.
type DecisionMaker interface {
	Decide(ctx context.Context, req *DecisionRequest) (*Decision, *components.LLMResponse, error)
}

// LLMDecisionMaker asks a language model whether to answer or call tools,
// with the registry's native tool definitions bound to the request.
type LLMDecisionMaker struct {
	Config
	stream StreamHandler
}

var (
	_ DecisionMaker = (*LLMDecisionMaker)(nil)
	_ StreamSetter  = (*LLMDecisionMaker)(nil)
)

// NewLLMDecisionMaker initializes a model backed decision maker
func NewLLMDecisionMaker(options ...Option) *LLMDecisionMaker {
	ret := new(LLMDecisionMaker)
	for _, opt := range options {
		opt(&ret.Config)
	}
	if ret.maxTokens == 0 {
		ret.maxTokens = 1024
	}
	return ret
}

// SetStreamHandler forwards final answer content deltas to h when the
// provider supports streaming.
func (d *LLMDecisionMaker) SetStreamHandler(h StreamHandler) {
	d.stream = h
}

// Decide runs one decision step. Provider errors fail the step, malformed
// tool calls never do.
func (d *LLMDecisionMaker) Decide(ctx context.Context, req *DecisionRequest) (*Decision, *components.LLMResponse, error) {
	if d.client == nil {
		return nil, nil, ErrNoClient
	}
	switch clt := d.client.(type) {
	case *instructor.InstructorOpenAI:
		if d.stream != nil {
			return d.decideOpenAIStream(ctx, clt, req)
		}
		return d.decideOpenAI(ctx, clt, req)
	case *instructor.InstructorAnthropic:
		return d.decideAnthropic(ctx, clt, req)
	case *instructor.InstructorCohere:
		return d.decideCohere(ctx, clt, req)
	}
	return nil, nil, fmt.Errorf("unsupported instructor client %T", d.client)
}

func (d *LLMDecisionMaker) openAIRequest(req *DecisionRequest) openai.ChatCompletionRequest {
	chatReq := openai.ChatCompletionRequest{
		Model:               d.model,
		Temperature:         d.temperature,
		MaxCompletionTokens: d.maxTokens,
	}
	if req.Tools != nil {
		chatReq.Tools = req.Tools.OpenAITools()
	}
	chatReq.Messages = append(chatReq.Messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: req.System,
	})
	for _, msg := range req.History {
		v := new(openai.ChatCompletionMessage)
		msg.ToOpenAI(v)
		chatReq.Messages = append(chatReq.Messages, *v)
	}
	return chatReq
}

func (d *LLMDecisionMaker) decideOpenAI(ctx context.Context, clt *instructor.InstructorOpenAI, req *DecisionRequest) (*Decision, *components.LLMResponse, error) {
	res, err := clt.Client.CreateChatCompletion(ctx, d.openAIRequest(req))
	if err != nil {
		return nil, nil, fmt.Errorf("decision request failed: %w", err)
	}
	llmResp := new(components.LLMResponse)
	llmResp.FromOpenAI(&res)
	if len(res.Choices) == 0 {
		return finalDecision(""), llmResp, nil
	}
	msg := res.Choices[0].Message
	calls := make([]components.ToolCall, 0, len(msg.ToolCalls))
	for i := range msg.ToolCalls {
		call := components.ToolCallFromOpenAI(&msg.ToolCalls[i])
		args, ok := repairArguments(call.Arguments)
		if !ok {
			continue
		}
		call.Arguments = args
		if call.ID == "" {
			call.ID = uuid.NewString()
		}
		calls = append(calls, call)
	}
	return buildDecision(msg.Content, calls), llmResp, nil
}

func (d *LLMDecisionMaker) decideOpenAIStream(ctx context.Context, clt *instructor.InstructorOpenAI, req *DecisionRequest) (*Decision, *components.LLMResponse, error) {
	chatReq := d.openAIRequest(req)
	chatReq.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	stream, err := clt.Client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return nil, nil, fmt.Errorf("decision request failed: %w", err)
	}
	defer stream.Close()
	var (
		answer   strings.Builder
		rawCalls []openai.ToolCall
		llmResp  = new(components.LLMResponse)
	)
	llmResp.Role = components.AssistantRole
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, nil, fmt.Errorf("decision request failed: %w", err)
		}
		if chunk.ID != "" {
			llmResp.ID = chunk.ID
		}
		if chunk.Model != "" {
			llmResp.Model = chunk.Model
		}
		if chunk.Usage != nil {
			llmResp.Usage = &components.LLMUsage{
				InputTokens:  int64(chunk.Usage.PromptTokens),
				OutputTokens: int64(chunk.Usage.CompletionTokens),
			}
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta
		rawCalls = accumulateToolCallDeltas(rawCalls, delta.ToolCalls)
		if delta.Content == "" {
			continue
		}
		answer.WriteString(delta.Content)
		// a turn that calls tools is not a final answer, stop forwarding
		if len(rawCalls) == 0 {
			d.stream.OnToken(ctx, delta.Content)
		}
	}
	calls := make([]components.ToolCall, 0, len(rawCalls))
	for i := range rawCalls {
		call := components.ToolCallFromOpenAI(&rawCalls[i])
		args, ok := repairArguments(call.Arguments)
		if !ok {
			continue
		}
		call.Arguments = args
		if call.ID == "" {
			call.ID = uuid.NewString()
		}
		calls = append(calls, call)
	}
	return buildDecision(answer.String(), calls), llmResp, nil
}

// accumulateToolCallDeltas merges streamed tool call fragments by index.
func accumulateToolCallDeltas(acc []openai.ToolCall, deltas []openai.ToolCall) []openai.ToolCall {
	for _, tc := range deltas {
		idx := 0
		if tc.Index != nil {
			idx = *tc.Index
		}
		for len(acc) <= idx {
			acc = append(acc, openai.ToolCall{Type: openai.ToolTypeFunction})
		}
		if tc.ID != "" {
			acc[idx].ID = tc.ID
		}
		if tc.Function.Name != "" {
			acc[idx].Function.Name = tc.Function.Name
		}
		acc[idx].Function.Arguments += tc.Function.Arguments
	}
	return acc
}

func (d *LLMDecisionMaker) decideAnthropic(ctx context.Context, clt *instructor.InstructorAnthropic, req *DecisionRequest) (*Decision, *components.LLMResponse, error) {
	chatReq := anthropic.MessagesRequest{
		Model:       anthropic.Model(d.model),
		Temperature: &d.temperature,
		MaxTokens:   d.maxTokens,
		System:      req.System,
	}
	if req.Tools != nil {
		chatReq.Tools = req.Tools.AnthropicTools()
	}
	for _, msg := range req.History {
		v := new(anthropic.Message)
		msg.ToAnthropic(v)
		chatReq.Messages = append(chatReq.Messages, *v)
	}
	res, err := clt.Client.CreateMessages(ctx, chatReq)
	if err != nil {
		return nil, nil, fmt.Errorf("decision request failed: %w", err)
	}
	llmResp := new(components.LLMResponse)
	llmResp.FromAnthropic(&res)
	var (
		text  strings.Builder
		calls []components.ToolCall
	)
	for _, block := range res.Content {
		switch block.Type {
		case anthropic.MessagesContentTypeText:
			if block.Text != nil {
				text.WriteString(*block.Text)
			}
		case anthropic.MessagesContentTypeToolUse:
			tu := block.MessageContentToolUse
			if tu == nil {
				continue
			}
			args, ok := repairArguments(string(tu.Input))
			if !ok {
				continue
			}
			calls = append(calls, components.ToolCall{ID: tu.ID, Name: tu.Name, Arguments: args})
		}
	}
	return buildDecision(text.String(), calls), llmResp, nil
}

func (d *LLMDecisionMaker) decideCohere(ctx context.Context, clt *instructor.InstructorCohere, req *DecisionRequest) (*Decision, *components.LLMResponse, error) {
	temperature := float64(d.temperature)
	chatReq := cohere.ChatRequest{
		Model:       &d.model,
		Temperature: &temperature,
		MaxTokens:   &d.maxTokens,
		Preamble:    &req.System,
	}
	if req.Tools != nil {
		chatReq.Tools = req.Tools.CohereTools()
	}
	// trailing tool results ride the request itself, everything before the
	// last plain message becomes chat history
	history := req.History
	for len(history) > 0 {
		last := history[len(history)-1]
		cb := last.ToolResult()
		if cb == nil {
			break
		}
		chatReq.ToolResults = append([]*cohere.ToolResult{cb.ToCohere()}, chatReq.ToolResults...)
		history = history[:len(history)-1]
	}
	if len(chatReq.ToolResults) == 0 && len(history) > 0 {
		chatReq.Message = schema.Stringify(history[len(history)-1].Content())
		history = history[:len(history)-1]
	}
	for _, msg := range history {
		v := new(cohere.Message)
		msg.ToCohere(v)
		chatReq.ChatHistory = append(chatReq.ChatHistory, v)
	}
	res, err := clt.Client.Chat(ctx, &chatReq)
	if err != nil {
		return nil, nil, fmt.Errorf("decision request failed: %w", err)
	}
	llmResp := new(components.LLMResponse)
	llmResp.FromCohere(res)
	calls := make([]components.ToolCall, 0, len(res.ToolCalls))
	for _, tc := range res.ToolCalls {
		if tc == nil {
			continue
		}
		args, err := json.Marshal(tc.Parameters)
		if err != nil {
			continue
		}
		calls = append(calls, components.ToolCall{ID: uuid.NewString(), Name: tc.Name, Arguments: string(args)})
	}
	return buildDecision(res.Text, calls), llmResp, nil
}

// repairArguments returns a well formed JSON argument object, running the
// raw text through jsonrepair when it does not parse as is.
func repairArguments(args string) (string, bool) {
	if strings.TrimSpace(args) == "" {
		return "{}", true
	}
	if json.Valid([]byte(args)) {
		return args, true
	}
	fixed, err := jsonrepair.JSONRepair(args)
	if err != nil || !json.Valid([]byte(fixed)) {
		return "", false
	}
	return fixed, true
}

func buildDecision(text string, calls []components.ToolCall) *Decision {
	if len(calls) > 0 {
		return &Decision{Kind: DecisionToolCalls, ToolCalls: calls}
	}
	return finalDecision(text)
}

func finalDecision(text string) *Decision {
	if strings.TrimSpace(text) == "" {
		return &Decision{Kind: DecisionFinal, Answer: FallbackAnswer}
	}
	return &Decision{Kind: DecisionFinal, Answer: text}
}
