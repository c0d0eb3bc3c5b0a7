package agenttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/bububa/research-agents/agents"
	"github.com/bububa/research-agents/components"
)

// Step configures one decision in a scripted sequence.
type Step struct {
	Decision *agents.Decision
	Response *components.LLMResponse
	Err      error
}

// Final scripts a direct answer step.
func Final(answer string) Step {
	return Step{Decision: &agents.Decision{Kind: agents.DecisionFinal, Answer: answer}}
}

// Tools scripts a tool calling step.
func Tools(calls ...components.ToolCall) Step {
	return Step{Decision: &agents.Decision{Kind: agents.DecisionToolCalls, ToolCalls: calls}}
}

// ScriptedDecisionMaker is a deterministic decision maker for loop tests.
// It replays its steps in order and records every request it saw.
type ScriptedDecisionMaker struct {
	mu       sync.Mutex
	index    int
	steps    []Step
	requests []agents.DecisionRequest
}

var _ agents.DecisionMaker = (*ScriptedDecisionMaker)(nil)

func NewScriptedDecisionMaker(steps ...Step) *ScriptedDecisionMaker {
	cloned := make([]Step, len(steps))
	copy(cloned, steps)
	return &ScriptedDecisionMaker{
		steps: cloned,
	}
}

func (m *ScriptedDecisionMaker) Decide(_ context.Context, req *agents.DecisionRequest) (*agents.Decision, *components.LLMResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req != nil {
		m.requests = append(m.requests, *req)
	}
	if m.index >= len(m.steps) {
		return nil, nil, fmt.Errorf("script exhausted at step %d", m.index+1)
	}
	current := m.steps[m.index]
	m.index++
	if current.Err != nil {
		return nil, nil, current.Err
	}
	return current.Decision, current.Response, nil
}

// Requests returns a snapshot of the decision requests seen so far.
func (m *ScriptedDecisionMaker) Requests() []agents.DecisionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	reqs := make([]agents.DecisionRequest, len(m.requests))
	copy(reqs, m.requests)
	return reqs
}

// Steps returns how many decisions have been consumed.
func (m *ScriptedDecisionMaker) Steps() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}
