package routing

import (
	"context"
	"fmt"
	"strings"

	"github.com/bububa/instructor-go/pkg/instructor"
	cohere "github.com/cohere-ai/cohere-go/v2"
	anthropic "github.com/liushuangls/go-anthropic/v2"
	openai "github.com/sashabaranov/go-openai"

	"github.com/bububa/research-agents/components/systemprompt/simple"
	"github.com/bububa/research-agents/schema"
)

// classification is the strict JSON shape the routing model must produce.
type classification struct {
	schema.Base
	// InDomain reports whether the question belongs to the assistant's scope
	InDomain bool `json:"in_domain" jsonschema:"title=in_domain,description=Whether the question belongs to the assistant's domain."`
	// Tool is the preferred first tool, or empty for no preference
	Tool string `json:"tool,omitempty" jsonschema:"title=tool,description=Name of the preferred tool for the question, or an empty string for no preference."`
	// Reason is a short justification for the choice
	Reason string `json:"reason" jsonschema:"title=reason,description=Short justification for the routing choice." validate:"required"`
}

// ClassifierRouter asks a language model for a routing hint, constrained
// to strict JSON through the instructor client. Any classification the
// model fails to produce in well formed shape degrades to the empty hint,
// routing is never fatal to a run.
type ClassifierRouter struct {
	client      instructor.Instructor
	model       string
	temperature float32
	maxTokens   int
	// domain describes the in scope topics presented to the model
	domain string
	// tools restricts hints to registered names, unknown ones degrade to none
	tools []string
}

var _ Router = (*ClassifierRouter)(nil)

// ClassifierOption configures a ClassifierRouter
type ClassifierOption func(*ClassifierRouter)

// WithClient set the instructor client
func WithClient(clt instructor.Instructor) ClassifierOption {
	return func(r *ClassifierRouter) {
		r.client = clt
	}
}

// WithModel set the routing model
func WithModel(model string) ClassifierOption {
	return func(r *ClassifierRouter) {
		r.model = model
	}
}

// WithTemperature set the sampling temperature
func WithTemperature(temperature float32) ClassifierOption {
	return func(r *ClassifierRouter) {
		r.temperature = temperature
	}
}

// WithMaxTokens set the completion token cap
func WithMaxTokens(maxTokens int) ClassifierOption {
	return func(r *ClassifierRouter) {
		r.maxTokens = maxTokens
	}
}

// WithDomain set the description of the in scope topics
func WithDomain(domain string) ClassifierOption {
	return func(r *ClassifierRouter) {
		r.domain = domain
	}
}

// WithTools set the tool names a hint may prefer
func WithTools(names ...string) ClassifierOption {
	return func(r *ClassifierRouter) {
		r.tools = names
	}
}

// NewClassifierRouter returns a model backed router.
func NewClassifierRouter(opts ...ClassifierOption) *ClassifierRouter {
	ret := new(ClassifierRouter)
	for _, opt := range opts {
		opt(ret)
	}
	if ret.maxTokens == 0 {
		ret.maxTokens = 300
	}
	if ret.domain == "" {
		ret.domain = "NLP course topics such as transformers, attention, BERT and tokenization"
	}
	return ret
}

func (r *ClassifierRouter) systemPrompt() string {
	lines := []string{
		"You route questions for a research assistant before it starts working.",
		fmt.Sprintf("The assistant's domain is: %s.", r.domain),
		"Judge whether the question is inside that domain.",
		"If one of the available tools is clearly the best first step, name it, otherwise leave the tool empty.",
	}
	if len(r.tools) > 0 {
		lines = append(lines, fmt.Sprintf("Available tools: %s.", strings.Join(r.tools, ", ")))
	}
	gen := simple.New(strings.Join(lines, "\n"))
	return gen.Generate()
}

// Route classifies the question into a hint. Provider or parse failures
// after the client's bounded retries degrade to the empty hint unless the
// context is done.
func (r *ClassifierRouter) Route(ctx context.Context, question string) (Hint, error) {
	out := new(classification)
	if err := r.classify(ctx, question, out); err != nil {
		if ctx.Err() != nil {
			return None, ctx.Err()
		}
		return None, nil
	}
	if !out.InDomain {
		return Hint{OutOfDomain: true, Reason: out.Reason}, nil
	}
	tool := out.Tool
	if len(r.tools) > 0 && tool != "" && !r.allowed(tool) {
		tool = ""
	}
	return Hint{Tool: tool, Reason: out.Reason}, nil
}

func (r *ClassifierRouter) allowed(name string) bool {
	for _, v := range r.tools {
		if v == name {
			return true
		}
	}
	return false
}

func (r *ClassifierRouter) classify(ctx context.Context, question string, out *classification) error {
	system := r.systemPrompt()
	switch clt := r.client.(type) {
	case *instructor.InstructorOpenAI:
		chatReq := openai.ChatCompletionRequest{
			Model:               r.model,
			Temperature:         r.temperature,
			MaxCompletionTokens: r.maxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: question},
			},
		}
		_, err := clt.CreateChatCompletion(ctx, chatReq, out)
		return err
	case *instructor.InstructorAnthropic:
		chatReq := anthropic.MessagesRequest{
			Model:       anthropic.Model(r.model),
			Temperature: &r.temperature,
			MaxTokens:   r.maxTokens,
			System:      system,
			Messages: []anthropic.Message{
				anthropic.NewUserTextMessage(question),
			},
		}
		_, err := clt.CreateMessages(ctx, chatReq, out)
		return err
	case *instructor.InstructorCohere:
		temperature := float64(r.temperature)
		chatReq := cohere.ChatRequest{
			Model:       &r.model,
			Temperature: &temperature,
			MaxTokens:   &r.maxTokens,
			Preamble:    &system,
			Message:     question,
		}
		_, err := clt.Chat(ctx, &chatReq, out)
		return err
	}
	return fmt.Errorf("unsupported instructor client %T", r.client)
}
