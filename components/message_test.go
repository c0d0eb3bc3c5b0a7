package components

import (
	"testing"

	anthropic "github.com/liushuangls/go-anthropic/v2"
	openai "github.com/sashabaranov/go-openai"

	"github.com/bububa/research-agents/schema"
)

func TestMessageToOpenAI(t *testing.T) {
	var msg openai.ChatCompletionMessage
	NewMessage(UserRole, schema.String("what is a transformer?")).ToOpenAI(&msg)
	if msg.Role != openai.ChatMessageRoleUser {
		t.Errorf("Expect user role, but got %s", msg.Role)
	}
	if msg.Content != "what is a transformer?" {
		t.Errorf("Expect plain content, but got %q", msg.Content)
	}

	call := ToolCall{ID: "call_1", Name: "kb_lookup", Arguments: `{"term":"bert"}`}
	msg = openai.ChatCompletionMessage{}
	NewToolCallMessage(nil, call).ToOpenAI(&msg)
	if msg.Role != openai.ChatMessageRoleAssistant {
		t.Errorf("Expect assistant role, but got %s", msg.Role)
	}
	if len(msg.ToolCalls) != 1 {
		t.Fatalf("Expect 1 tool call, but got %d", len(msg.ToolCalls))
	}
	if msg.ToolCalls[0].ID != "call_1" || msg.ToolCalls[0].Function.Name != "kb_lookup" {
		t.Errorf("Expect tool call identity preserved, but got %+v", msg.ToolCalls[0])
	}

	msg = openai.ChatCompletionMessage{}
	NewToolResultMessage(ToolCallback{ID: "call_1", Name: "kb_lookup", Content: `{"definition":"..."}`}).ToOpenAI(&msg)
	if msg.Role != openai.ChatMessageRoleTool {
		t.Errorf("Expect tool role, but got %s", msg.Role)
	}
	if msg.ToolCallID != "call_1" {
		t.Errorf("Expect call ID echoed, but got %q", msg.ToolCallID)
	}
}

func TestMessageToAnthropic(t *testing.T) {
	var msg anthropic.Message
	NewToolCallMessage(nil, ToolCall{ID: "call_1", Name: "wikipedia_search", Arguments: `{"query":"BERT"}`}).ToAnthropic(&msg)
	if msg.Role != anthropic.RoleAssistant {
		t.Errorf("Expect assistant role, but got %s", msg.Role)
	}
	if len(msg.Content) != 1 {
		t.Fatalf("Expect 1 content block, but got %d", len(msg.Content))
	}

	msg = anthropic.Message{}
	NewToolResultMessage(ToolCallback{ID: "call_1", Name: "wikipedia_search", Content: "no article found", IsError: true}).ToAnthropic(&msg)
	if msg.Role != anthropic.RoleUser {
		t.Errorf("Expect tool results on the user turn, but got %s", msg.Role)
	}
	if len(msg.Content) != 1 {
		t.Fatalf("Expect 1 content block, but got %d", len(msg.Content))
	}
}

func TestToolCallFromOpenAI(t *testing.T) {
	src := openai.ToolCall{
		ID:   "call_42",
		Type: openai.ToolTypeFunction,
		Function: openai.FunctionCall{
			Name:      "arxiv_search",
			Arguments: `{"query":"attention"}`,
		},
	}
	got := ToolCallFromOpenAI(&src)
	if got.ID != "call_42" || got.Name != "arxiv_search" || got.Arguments != `{"query":"attention"}` {
		t.Errorf("Expect lossless conversion, but got %+v", got)
	}
}

func TestLLMResponseMerge(t *testing.T) {
	total := new(LLMResponse)
	total.Merge(&LLMResponse{Model: "gpt-4o-mini", Usage: &LLMUsage{InputTokens: 10, OutputTokens: 5}})
	total.Merge(&LLMResponse{Usage: &LLMUsage{InputTokens: 7, OutputTokens: 3}})
	if total.Model != "gpt-4o-mini" {
		t.Errorf("Expect model kept, but got %q", total.Model)
	}
	if total.Usage.InputTokens != 17 || total.Usage.OutputTokens != 8 {
		t.Errorf("Expect summed usage, but got %+v", total.Usage)
	}
}
