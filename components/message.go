package components

import (
	cohere "github.com/cohere-ai/cohere-go/v2"
	anthropic "github.com/liushuangls/go-anthropic/v2"
	"github.com/rs/xid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/bububa/research-agents/schema"
)

// NewTurnID returns a new turn ID.
func NewTurnID() string {
	return xid.New().String()
}

// MessageRole is the role of the message sender (e.g., 'user', 'system', 'tool')
type MessageRole = string

const (
	SystemRole    MessageRole = "system"
	UserRole      MessageRole = "user"
	AssistantRole MessageRole = "assistant"
	ToolRole      MessageRole = "tool"
)

// Message  Represents a message in the chat history.
//
// Attributes:
//
//	role (str): .
//	content: The content of the message.
type Message struct {
	content schema.Schema
	// role is the role of the message sender (e.g., 'user', 'system', 'tool')
	role MessageRole
	//	turnID is Unique identifier for the turn this message belongs to.
	turnID string
	// toolCalls are the tool invocations an assistant message requests
	toolCalls []ToolCall
	// toolResult is the callback a tool message carries
	toolResult *ToolCallback
}

// NewMessage returns a new Message
func NewMessage(role MessageRole, content schema.Schema) *Message {
	return &Message{
		role:    role,
		content: content,
	}
}

// NewToolCallMessage returns an assistant Message requesting tool calls
func NewToolCallMessage(content schema.Schema, calls ...ToolCall) *Message {
	if content == nil {
		content = schema.String("")
	}
	return &Message{
		role:      AssistantRole,
		content:   content,
		toolCalls: calls,
	}
}

// NewToolResultMessage returns a tool Message carrying a call result
func NewToolResultMessage(cb ToolCallback) *Message {
	return &Message{
		role:       ToolRole,
		content:    schema.String(cb.Content),
		toolResult: &cb,
	}
}

// SetTurnID set message turnID
func (m *Message) SetTurnID(turnID string) *Message {
	m.turnID = turnID
	return m
}

// Role returns message role
func (m Message) Role() MessageRole {
	return m.role
}

// Content returns message content
func (m Message) Content() schema.Schema {
	return m.content
}

// ToolCalls returns the tool invocations requested by the message
func (m Message) ToolCalls() []ToolCall {
	return m.toolCalls
}

// ToolResult returns the call result the message carries
func (m Message) ToolResult() *ToolCallback {
	return m.toolResult
}

// TurnID returns message turnID
func (m Message) TurnID() string {
	return m.turnID
}

// ToOpenAI convert message to openai ChatCompletionMessage
func (m Message) ToOpenAI(dist *openai.ChatCompletionMessage) {
	dist.Role = m.role
	if m.toolResult != nil {
		dist.Role = openai.ChatMessageRoleTool
		dist.Content = m.toolResult.Content
		dist.ToolCallID = m.toolResult.ID
		return
	}
	dist.Content = schema.Stringify(m.content)
	if len(m.toolCalls) > 0 {
		dist.ToolCalls = make([]openai.ToolCall, 0, len(m.toolCalls))
		for _, v := range m.toolCalls {
			dist.ToolCalls = append(dist.ToolCalls, v.ToOpenAI())
		}
	}
}

// ToAnthropic convert message to anthropic Message
func (m Message) ToAnthropic(dist *anthropic.Message) {
	if m.toolResult != nil {
		// anthropic returns tool results on the user turn
		dist.Role = anthropic.RoleUser
		dist.Content = []anthropic.MessageContent{m.toolResult.ToAnthropic()}
		return
	}
	dist.Role = anthropic.ChatRole(m.role)
	if len(m.toolCalls) > 0 {
		dist.Role = anthropic.RoleAssistant
		dist.Content = make([]anthropic.MessageContent, 0, len(m.toolCalls)+1)
		if text := schema.Stringify(m.content); text != "" {
			dist.Content = append(dist.Content, anthropic.NewTextMessageContent(text))
		}
		for _, v := range m.toolCalls {
			dist.Content = append(dist.Content, v.ToAnthropic())
		}
		return
	}
	dist.Content = []anthropic.MessageContent{anthropic.NewTextMessageContent(schema.Stringify(m.content))}
}

// ToCohere convert message to cohere Message
func (m Message) ToCohere(dist *cohere.Message) {
	if m.toolResult != nil {
		dist.Role = "TOOL"
		dist.Tool = &cohere.ToolMessage{
			ToolResults: []*cohere.ToolResult{m.toolResult.ToCohere()},
		}
		return
	}
	switch m.role {
	case SystemRole:
		dist.Role = "SYSTEM"
		dist.System = &cohere.ChatMessage{
			Message: schema.Stringify(m.content),
		}
	case AssistantRole:
		dist.Role = "CHATBOT"
		msg := &cohere.ChatMessage{
			Message: schema.Stringify(m.content),
		}
		for _, v := range m.toolCalls {
			msg.ToolCalls = append(msg.ToolCalls, v.ToCohere())
		}
		dist.Chatbot = msg
	case UserRole:
		dist.Role = "USER"
		dist.User = &cohere.ChatMessage{
			Message: schema.Stringify(m.content),
		}
	}
}
