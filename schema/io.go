package schema

// Input is a plain text question for an agent
type Input struct {
	Base        `json:"-"`
	ChatMessage string `json:"chat_message" jsonschema:"title=chat_message,description=The chat message send to the agent." validate:"required"`
}

// NewInput returns a new Input with the given chat message
func NewInput(msg string) *Input {
	return &Input{
		ChatMessage: msg,
	}
}

func (i Input) String() string {
	return i.ChatMessage
}

// Output is a plain text reply from an agent
type Output struct {
	Base        `json:"-"`
	ChatMessage string `json:"chat_message" jsonschema:"title=chat_message,description=The chat message replied by the agent." validate:"required"`
}

// NewOutput returns a new Output with the given chat message
func NewOutput(msg string) *Output {
	return &Output{
		ChatMessage: msg,
	}
}

func (o Output) String() string {
	return o.ChatMessage
}
