package components

import (
	"testing"

	"github.com/bububa/research-agents/schema"
)

func TestMemoryTurns(t *testing.T) {
	mem := NewMemory(10)
	mem.NewTurn()
	first := mem.TurnID()
	mem.NewMessage(UserRole, schema.String("q1"))
	mem.NewMessage(AssistantRole, schema.String("a1"))
	mem.NewTurn()
	if mem.TurnID() == first {
		t.Error("Expect a fresh turn ID per turn")
	}
	mem.NewMessage(UserRole, schema.String("q2"))
	if got := mem.MessageCount(); got != 3 {
		t.Errorf("Expect 3 messages, but got %d", got)
	}
	if err := mem.DeleteTurn(first); err != nil {
		t.Fatalf("Expect turn deletion to succeed, but got %v", err)
	}
	if got := mem.MessageCount(); got != 1 {
		t.Errorf("Expect 1 message after turn deletion, but got %d", got)
	}
	if err := mem.DeleteTurn("missing"); err == nil {
		t.Error("Expect an error for an unknown turn ID")
	}
}

func TestMemoryOverflowDropsWholeTurns(t *testing.T) {
	mem := NewMemory(3)
	mem.NewTurn()
	old := mem.TurnID()
	mem.NewMessage(UserRole, schema.String("q1"))
	mem.Add(NewToolCallMessage(nil, ToolCall{ID: "call_1", Name: "kb_lookup", Arguments: "{}"}))
	mem.Add(NewToolResultMessage(ToolCallback{ID: "call_1", Name: "kb_lookup", Content: "{}"}))
	mem.NewTurn()
	mem.NewMessage(UserRole, schema.String("q2"))
	history := mem.History()
	// the whole first turn goes at once, a tool call is never orphaned from its result
	for _, msg := range history {
		if msg.TurnID() == old {
			t.Fatalf("Expect the oldest turn dropped as a whole, but found role %s from it", msg.Role())
		}
	}
	if got := len(history); got != 1 {
		t.Errorf("Expect 1 message left, but got %d", got)
	}
}

func TestMemoryTokenBudget(t *testing.T) {
	mem := NewMemory(0)
	mem.SetTokenBudget(new(WordTokenCounter), 6)
	mem.NewTurn()
	mem.NewMessage(UserRole, schema.String("one two three four"))
	mem.NewMessage(AssistantRole, schema.String("five six"))
	mem.NewTurn()
	mem.NewMessage(UserRole, schema.String("seven eight"))
	mem.NewMessage(AssistantRole, schema.String("nine ten"))
	history := mem.History()
	if got := len(history); got != 2 {
		t.Fatalf("Expect only the newest turn within budget, but got %d messages", got)
	}
	if got := schema.Stringify(history[0].Content()); got != "seven eight" {
		t.Errorf("Expect newest turn first message, but got %q", got)
	}
	// stored history stays intact
	if got := mem.MessageCount(); got != 4 {
		t.Errorf("Expect stored history untouched, but got %d messages", got)
	}
}

func TestMemoryTokenBudgetKeepsCurrentTurn(t *testing.T) {
	mem := NewMemory(0)
	mem.SetTokenBudget(new(WordTokenCounter), 1)
	mem.NewTurn()
	mem.NewMessage(UserRole, schema.String("a very long question that blows the budget"))
	if got := len(mem.History()); got != 1 {
		t.Errorf("Expect the current turn kept even over budget, but got %d messages", got)
	}
}
