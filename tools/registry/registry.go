package registry

import (
	"errors"
	"sync"

	cohere "github.com/cohere-ai/cohere-go/v2"
	"github.com/invopop/jsonschema"
	anthropic "github.com/liushuangls/go-anthropic/v2"
	openai "github.com/sashabaranov/go-openai"

	"github.com/bububa/research-agents/tools"
)

var (
	// ErrEmptyToolName is returned when registering a tool without a title.
	ErrEmptyToolName = errors.New("tool name is empty")
	// ErrToolRegistered is returned when a tool name is already taken.
	ErrToolRegistered = errors.New("tool name already registered")
)

// Entry binds a registered tool name to its runner and declared input schema.
type Entry struct {
	name        string
	description string
	tool        tools.AnonymousTool
	inputSchema *jsonschema.Schema
}

// Name returns the unique tool name
func (e *Entry) Name() string {
	return e.name
}

// Description returns the tool description presented to the model
func (e *Entry) Description() string {
	return e.description
}

// Tool returns the type-erased runner
func (e *Entry) Tool() tools.AnonymousTool {
	return e.tool
}

// InputSchema returns the JSON schema of the tool input
func (e *Entry) InputSchema() *jsonschema.Schema {
	return e.inputSchema
}

// Registry maps unique tool names to runnable entries.
// Lookups are safe for concurrent use.
type Registry struct {
	mtx     sync.RWMutex
	entries map[string]*Entry
	// names keeps registration order for stable tool listings
	names []string
}

// New returns a Registry seeded with the given tools.
// Seeding panics on a registration conflict, matching construction-time misuse.
func New(list ...tools.AnonymousTool) *Registry {
	ret := &Registry{
		entries: make(map[string]*Entry, len(list)),
	}
	for _, tool := range list {
		if err := ret.Register(tool); err != nil {
			panic(err)
		}
	}
	return ret
}

// Register adds a tool under its title. The input schema is derived from
// the tool's input struct tags.
func (r *Registry) Register(tool tools.AnonymousTool) error {
	name := tool.Title()
	if name == "" {
		return ErrEmptyToolName
	}
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if _, found := r.entries[name]; found {
		return ErrToolRegistered
	}
	r.entries[name] = &Entry{
		name:        name,
		description: tool.Description(),
		tool:        tool,
		inputSchema: reflectInputSchema(tool.NewInput()),
	}
	r.names = append(r.names, name)
	return nil
}

// Get returns the entry registered under name.
// A missing name is a normal outcome, dispatch reports it as not_found.
func (r *Registry) Get(name string) (*Entry, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	entry, found := r.entries[name]
	return entry, found
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return len(r.names)
}

// Entries returns the registered entries in registration order.
func (r *Registry) Entries() []*Entry {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	list := make([]*Entry, 0, len(r.names))
	for _, name := range r.names {
		list = append(list, r.entries[name])
	}
	return list
}

// OpenAITools renders the registry as openai tool definitions.
func (r *Registry) OpenAITools() []openai.Tool {
	entries := r.Entries()
	list := make([]openai.Tool, 0, len(entries))
	for _, e := range entries {
		list = append(list, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        e.name,
				Description: e.description,
				Parameters:  e.inputSchema,
			},
		})
	}
	return list
}

// AnthropicTools renders the registry as anthropic tool definitions.
func (r *Registry) AnthropicTools() []anthropic.ToolDefinition {
	entries := r.Entries()
	list := make([]anthropic.ToolDefinition, 0, len(entries))
	for _, e := range entries {
		list = append(list, anthropic.ToolDefinition{
			Name:        e.name,
			Description: e.description,
			InputSchema: e.inputSchema,
		})
	}
	return list
}

// CohereTools renders the registry as cohere tool definitions.
func (r *Registry) CohereTools() []*cohere.Tool {
	entries := r.Entries()
	list := make([]*cohere.Tool, 0, len(entries))
	for _, e := range entries {
		tool := &cohere.Tool{
			Name:                 e.name,
			Description:          e.description,
			ParameterDefinitions: make(map[string]*cohere.ToolParameterDefinitionsValue),
		}
		if s := e.inputSchema; s != nil && s.Properties != nil {
			required := make(map[string]struct{}, len(s.Required))
			for _, name := range s.Required {
				required[name] = struct{}{}
			}
			for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
				name, prop := pair.Key, pair.Value
				def := &cohere.ToolParameterDefinitionsValue{
					Type: prop.Type,
				}
				if prop.Description != "" {
					desc := prop.Description
					def.Description = &desc
				}
				if _, ok := required[name]; ok {
					v := true
					def.Required = &v
				}
				tool.ParameterDefinitions[name] = def
			}
		}
		list = append(list, tool)
	}
	return list
}

// reflectInputSchema derives a JSON schema from the input struct's
// jsonschema tags, inlined without definitions references.
func reflectInputSchema(input any) *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
	}
	return reflector.Reflect(input)
}
