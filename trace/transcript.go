package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// WriteTranscript renders a human readable replay of the recorded events.
// The rendering carries every routing outcome, decision, tool call with its
// arguments, tool result with its status, and the final answer, so a run
// can be reconstructed from the text alone.
func WriteTranscript(w io.Writer, events []Event) error {
	if _, err := io.WriteString(w, "# Run Transcript\n"); err != nil {
		return err
	}
	iteration := 0
	for _, e := range events {
		if e.Iteration > iteration {
			iteration = e.Iteration
			if _, err := fmt.Fprintf(w, "\n## Iteration %d\n\n", iteration); err != nil {
				return err
			}
		}
		switch e.Kind {
		case KindRoute:
			if _, err := fmt.Fprintf(w, "\nQuestion: %s\n", e.Route.Question); err != nil {
				return err
			}
			if e.Route.OutOfDomain {
				if _, err := fmt.Fprintf(w, "Routing: out of domain (%s)\n", e.Route.Reason); err != nil {
					return err
				}
			} else if e.Route.Tool != "" {
				if _, err := fmt.Fprintf(w, "Routing: prefer `%s` (%s)\n", e.Route.Tool, e.Route.Reason); err != nil {
					return err
				}
			} else if _, err := io.WriteString(w, "Routing: no preference\n"); err != nil {
				return err
			}
		case KindDecide:
			line := fmt.Sprintf("Decision: %s\n", e.Decide.Outcome)
			if e.Decide.NumToolCalls > 0 {
				line = fmt.Sprintf("Decision: %s (%d)\n", e.Decide.Outcome, e.Decide.NumToolCalls)
			}
			if _, err := io.WriteString(w, line); err != nil {
				return err
			}
		case KindToolCall:
			if _, err := fmt.Fprintf(w, "- call `%s` [%s] arguments: %s\n", e.ToolCall.Tool, e.ToolCall.CallID, e.ToolCall.Arguments); err != nil {
				return err
			}
		case KindToolResult:
			if _, err := fmt.Fprintf(w, "- result `%s` [%s] %s: %s\n", e.ToolResult.Tool, e.ToolResult.CallID, e.ToolResult.Status, e.ToolResult.Content); err != nil {
				return err
			}
		case KindFinalAnswer:
			if _, err := fmt.Fprintf(w, "\n## Final Answer (%s)\n\n%s\n", e.FinalAnswer.Reason, e.FinalAnswer.Answer); err != nil {
				return err
			}
		}
	}
	return nil
}

// Transcript returns the rendered replay as a string.
func Transcript(events []Event) string {
	var sb strings.Builder
	WriteTranscript(&sb, events)
	return sb.String()
}

// WriteJSONL writes one JSON encoded event per line, a machine readable
// companion to the rendered transcript.
func WriteJSONL(w io.Writer, events []Event) error {
	enc := json.NewEncoder(w)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}
