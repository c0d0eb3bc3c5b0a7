package components

import (
	"encoding/json"

	cohere "github.com/cohere-ai/cohere-go/v2"
	anthropic "github.com/liushuangls/go-anthropic/v2"
	openai "github.com/sashabaranov/go-openai"
)

// ToolCall is a tool invocation requested by the model.
// ID correlates the request with the ToolCallback carrying its result.
type ToolCall struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	// Arguments is the raw JSON argument object produced by the model
	Arguments string `json:"arguments,omitempty"`
}

// ToOpenAI convert tool call to openai ToolCall
func (t ToolCall) ToOpenAI() openai.ToolCall {
	return openai.ToolCall{
		ID:   t.ID,
		Type: openai.ToolTypeFunction,
		Function: openai.FunctionCall{
			Name:      t.Name,
			Arguments: t.Arguments,
		},
	}
}

// ToAnthropic convert tool call to an anthropic tool_use content block
func (t ToolCall) ToAnthropic() anthropic.MessageContent {
	return anthropic.NewToolUseMessageContent(t.ID, t.Name, []byte(t.Arguments))
}

// ToCohere convert tool call to cohere ToolCall
func (t ToolCall) ToCohere() *cohere.ToolCall {
	params := make(map[string]any)
	if t.Arguments != "" {
		json.Unmarshal([]byte(t.Arguments), &params)
	}
	return &cohere.ToolCall{
		Name:       t.Name,
		Parameters: params,
	}
}

// ToolCallFromOpenAI converts an openai tool call
func ToolCallFromOpenAI(v *openai.ToolCall) ToolCall {
	return ToolCall{
		ID:        v.ID,
		Name:      v.Function.Name,
		Arguments: v.Function.Arguments,
	}
}

// ToolCallback is the result of a tool call re-entering the conversation.
// ID echoes the originating ToolCall ID.
type ToolCallback struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content,omitempty"`
	IsError bool   `json:"is_error,omitempty"`
}

// ToOpenAI convert tool callback to an openai tool message
func (t ToolCallback) ToOpenAI() openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{
		Role:       openai.ChatMessageRoleTool,
		Content:    t.Content,
		ToolCallID: t.ID,
	}
}

// ToAnthropic convert tool callback to an anthropic tool_result content block
func (t ToolCallback) ToAnthropic() anthropic.MessageContent {
	return anthropic.NewToolResultMessageContent(t.ID, t.Content, t.IsError)
}

// ToCohere convert tool callback to cohere ToolResult
func (t ToolCallback) ToCohere() *cohere.ToolResult {
	outputs := make(map[string]any)
	if err := json.Unmarshal([]byte(t.Content), &outputs); err != nil {
		outputs = map[string]any{"output": t.Content}
	}
	return &cohere.ToolResult{
		Call: &cohere.ToolCall{
			Name:       t.Name,
			Parameters: make(map[string]any),
		},
		Outputs: []map[string]any{outputs},
	}
}
