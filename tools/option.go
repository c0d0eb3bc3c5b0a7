package tools

import "context"

// Option mutates the shared tool Config
type Option func(c *Config)

// WithTitle set the tool title, the name it registers under
func WithTitle(title string) Option {
	return func(c *Config) {
		c.SetTitle(title)
	}
}

// WithDescription set the tool description presented to the model
func WithDescription(desc string) Option {
	return func(c *Config) {
		c.SetDescription(desc)
	}
}

// WithStartHook set a hook observed right before a run starts
func WithStartHook(fn func(context.Context, AnonymousTool, any)) Option {
	return func(c *Config) {
		c.SetStartHook(fn)
	}
}

// WithEndHook set a hook observed after a successful run
func WithEndHook(fn func(context.Context, AnonymousTool, any, any)) Option {
	return func(c *Config) {
		c.SetEndHook(fn)
	}
}

// WithErrorHook set a hook observed after a failed run
func WithErrorHook(fn func(context.Context, AnonymousTool, any, error)) Option {
	return func(c *Config) {
		c.SetErrorHook(fn)
	}
}
