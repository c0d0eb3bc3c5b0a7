package systemprompt

// ContextProvider contributes a titled section to a generated system prompt
type ContextProvider interface {
	Title() string
	Info() string
}
