package agents_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/bububa/instructor-go/pkg/instructor"
	openai "github.com/sashabaranov/go-openai"

	"github.com/bububa/research-agents/agents"
	"github.com/bububa/research-agents/routing"
	"github.com/bububa/research-agents/sources"
	"github.com/bububa/research-agents/tools"
	"github.com/bububa/research-agents/tools/kb"
	"github.com/bububa/research-agents/tools/registry"
)

// Example_researchAssistant runs the full loop against a mock chat endpoint.
// The first model turn requests a knowledge base lookup, the second turns the
// tool result into the final answer, and the sources section is appended from
// the citations the tool reported.
func Example_researchAssistant() {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := openai.ChatCompletionResponse{
			ID:     "chatcmpl-example",
			Object: "chat.completion",
			Model:  req.Model,
			Choices: []openai.ChatCompletionChoice{
				{
					Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant},
					FinishReason: openai.FinishReasonStop,
				},
			},
			Usage: openai.Usage{PromptTokens: 20, CompletionTokens: 10, TotalTokens: 30},
		}
		if sawToolResult(req.Messages) {
			resp.Choices[0].Message.Content = "A transformer is a neural network architecture built entirely on self-attention."
		} else {
			resp.Choices[0].FinishReason = openai.FinishReasonToolCalls
			resp.Choices[0].Message.ToolCalls = []openai.ToolCall{
				{
					ID:   "call_1",
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      "kb_lookup",
						Arguments: `{"concept":"transformer"}`,
					},
				},
			}
		}
		json.NewEncoder(w).Encode(resp)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	clt := instructor.FromOpenAI(openai.NewClientWithConfig(cfg), instructor.WithMode(instructor.ModeJSON))

	reg := registry.New(tools.NewAnonymous[kb.Input, kb.Output](kb.New()))
	agg := sources.NewAggregator()
	loop := agents.NewLoop(
		agents.WithDecisionMaker(agents.NewLLMDecisionMaker(
			agents.WithClient(clt),
			agents.WithModel("gpt-4o-mini"),
		)),
		agents.WithRegistry(reg),
		agents.WithRouter(routing.NewKeywordRouter()),
		agents.WithSources(agg),
	)
	result, err := loop.Run(context.Background(), "What is a transformer?")
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(result.Answer)
	// Output:
	// A transformer is a neural network architecture built entirely on self-attention.
	//
	// Sources:
	// - KB: transformer
}

func sawToolResult(messages []openai.ChatCompletionMessage) bool {
	for _, m := range messages {
		if m.Role == openai.ChatMessageRoleTool {
			return true
		}
	}
	return false
}
