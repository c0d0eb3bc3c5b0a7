package components

import (
	"fmt"
	"sync"

	"github.com/bububa/research-agents/schema"
)

type MemoryStore interface {
	MaxMessages() int
	TurnID() string
	NewTurn() MemoryStore
	NewMessage(MessageRole, schema.Schema) *Message
	Add(*Message) *Message
	History() []Message
	Reset() MemoryStore
	Copy(MemoryStore)
	MessageCount() int
}

// Memory manages the conversation history backing an orchestration run.
// Safe for concurrent use.
type Memory struct {
	//	history is a list of messages representing the chat history.
	history []Message
	//	turnID is the ID of the current turn.
	turnID string
	// maxMessages is the maximum number of messages to keep in history.
	// When exceeded, the oldest completed turns are removed first.
	maxMessages int
	// tokenCounter measures history size for the token budget.
	tokenCounter TokenCounter
	// maxPromptTokens caps the rendered history returned by History.
	// Zero means no token budget.
	maxPromptTokens int
	// mtx sync lock
	mtx *sync.RWMutex
}

var _ MemoryStore = (*Memory)(nil)

// NewMemory initializes the Memory with an empty history and optional constraints.
func NewMemory(maxMessages int) *Memory {
	return &Memory{
		maxMessages: maxMessages,
		history:     make([]Message, 0, maxMessages+1),
		mtx:         new(sync.RWMutex),
	}
}

// MaxMessages returns the max number of messages
func (m Memory) MaxMessages() int {
	return m.maxMessages
}

// SetMaxMessages set the max number of messages
func (m *Memory) SetMaxMessages(maxMessages int) *Memory {
	m.maxMessages = maxMessages
	return m
}

// SetTokenBudget caps the token count of the history returned by History.
// Oldest turns beyond the budget are dropped as a whole, a turn is never
// split so assistant tool calls stay with their results.
func (m *Memory) SetTokenBudget(counter TokenCounter, maxTokens int) *Memory {
	m.tokenCounter = counter
	m.maxPromptTokens = maxTokens
	return m
}

// TurnID returns the current turn ID
func (m Memory) TurnID() string {
	return m.turnID
}

// SetTurnID set the current turn ID
func (m *Memory) SetTurnID(turnID string) MemoryStore {
	m.turnID = turnID
	return m
}

// NewTurn initializes a new turn by generating a random turn ID.
func (m *Memory) NewTurn() MemoryStore {
	return m.SetTurnID(NewTurnID())
}

// NewMessage adds a message to the chat history and manages overflow.
func (m *Memory) NewMessage(role MessageRole, content schema.Schema) *Message {
	return m.Add(NewMessage(role, content))
}

// Add appends a prepared message to the chat history under the current
// turn and manages overflow.
func (m *Memory) Add(msg *Message) *Message {
	msg.SetTurnID(m.turnID)
	m.mtx.Lock()
	m.history = append(m.history, *msg)
	m.trimOverflow()
	m.mtx.Unlock()
	return msg
}

// trimOverflow drops the oldest completed turns beyond the maxMessages
// constraint. Messages of the current turn are never dropped.
// Callers must hold the write lock.
func (m *Memory) trimOverflow() {
	if m.maxMessages <= 0 {
		return
	}
	for len(m.history) > m.maxMessages {
		turnID := m.history[0].TurnID()
		if turnID == m.turnID {
			return
		}
		i := 0
		for i < len(m.history) && m.history[i].TurnID() == turnID {
			i++
		}
		m.history = m.history[i:]
	}
}

// SetHistory set a copy of chat history
func (m *Memory) SetHistory(history []Message) *Memory {
	m.mtx.Lock()
	m.history = make([]Message, len(history))
	copy(m.history, history)
	m.mtx.Unlock()
	return m
}

// History retrieves the chat history. With a token budget set, oldest
// completed turns are dropped from the returned view until the rendered
// history fits the budget. The stored history is left untouched.
func (m *Memory) History() []Message {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	if m.tokenCounter == nil || m.maxPromptTokens <= 0 {
		return m.history
	}
	history := m.history
	total := 0
	for i := range history {
		total += m.messageTokens(&history[i])
	}
	for total > m.maxPromptTokens && len(history) > 0 {
		turnID := history[0].TurnID()
		if turnID == m.turnID {
			break
		}
		i := 0
		for i < len(history) && history[i].TurnID() == turnID {
			total -= m.messageTokens(&history[i])
			i++
		}
		history = history[i:]
	}
	return history
}

func (m *Memory) messageTokens(msg *Message) int {
	n := m.tokenCounter.Count(schema.Stringify(msg.Content()))
	for _, call := range msg.ToolCalls() {
		n += m.tokenCounter.Count(call.Name) + m.tokenCounter.Count(call.Arguments)
	}
	return n
}

// Copy creates a copy of the chat memory.
func (m *Memory) Copy(src MemoryStore) {
	m.SetMaxMessages(src.MaxMessages()).SetTurnID(src.TurnID())
	m.SetHistory(src.History())
}

func (m *Memory) Reset() MemoryStore {
	m.mtx.Lock()
	m.history = make([]Message, 0, m.maxMessages)
	m.mtx.Unlock()
	return m
}

// DeleteTurn delete messages from the memory by its turn ID.
// returns Error if the specified turn ID is not found in the memory
func (m *Memory) DeleteTurn(turnID string) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	l := len(m.history)
	list := make([]Message, 0, l)
	for _, v := range m.history {
		if v.TurnID() == turnID {
			continue
		}
		list = append(list, v)
	}
	m.history = list
	num := len(list)
	if num == l {
		return fmt.Errorf("TurnID %s not found in memory", turnID)
	}
	// Update current_turn_id if necessary
	if len(list) == 0 {
		m.turnID = ""
	} else if turnID == m.turnID {
		m.turnID = m.history[num-1].TurnID()
	}
	return nil
}

// MessageCount returns the number of messages in the chat history.
func (m *Memory) MessageCount() int {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return len(m.history)
}
