package tools

import (
	"context"
	"errors"

	"github.com/bububa/research-agents/schema"
)

var (
	// ErrNotFound is returned by a tool when its backend has no result
	// for the request. Dispatch reports it as a not_found status instead
	// of a failure.
	ErrNotFound = errors.New("no result found")
	// ErrInvalidInputSchema is returned when a type-erased input does not
	// match the tool's declared input schema.
	ErrInvalidInputSchema = errors.New("invalid tool input schema")
)

type ITool interface {
	SetTitle(string)
	Title() string
	SetDescription(string)
	Description() string
	SetStartHook(fn func(context.Context, AnonymousTool, any))
	StartHook() func(context.Context, AnonymousTool, any)
	SetEndHook(fn func(context.Context, AnonymousTool, any, any))
	EndHook() func(context.Context, AnonymousTool, any, any)
	SetErrorHook(fn func(context.Context, AnonymousTool, any, error))
	ErrorHook() func(context.Context, AnonymousTool, any, error)
}

type Tool[I schema.Schema, O schema.Schema] interface {
	ITool
	Run(context.Context, *I) (*O, error)
}

// AnonymousTool runs with type-erased IO for dynamic dispatch.
type AnonymousTool interface {
	ITool
	// NewInput returns a pointer to a zero value of the tool's input schema
	NewInput() any
	RunAnonymous(context.Context, any) (any, error)
}

type anonymous[I schema.Schema, O schema.Schema] struct {
	Tool[I, O]
}

// NewAnonymous adapts a typed tool for dynamic dispatch.
func NewAnonymous[I schema.Schema, O schema.Schema](tool Tool[I, O]) AnonymousTool {
	return &anonymous[I, O]{Tool: tool}
}

func (a *anonymous[I, O]) NewInput() any {
	return new(I)
}

func (a *anonymous[I, O]) RunAnonymous(ctx context.Context, input any) (any, error) {
	in, ok := input.(*I)
	if !ok {
		return nil, ErrInvalidInputSchema
	}
	return a.Run(ctx, in)
}
