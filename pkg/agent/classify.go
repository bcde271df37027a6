package agent

import (
	"errors"
	"fmt"
	"strings"

	"gflights/pkg/types"
)

// ErrMalformedTurn is matched by every *MalformedTurnError.
var ErrMalformedTurn = errors.New("malformed model turn")

// MalformedTurnError reports a model turn whose parts match no recognised shape.
type MalformedTurnError struct {
	Shape string
}

func (e *MalformedTurnError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMalformedTurn, e.Shape)
}

func (e *MalformedTurnError) Unwrap() error {
	return ErrMalformedTurn
}

// Outcome is the classification of one model turn: TextOutcome or ToolCallOutcome.
type Outcome interface{ isOutcome() }

// TextOutcome is a turn answered in plain text.
type TextOutcome struct {
	Text string
}

func (TextOutcome) isOutcome() {}

// ToolCallOutcome is a turn requesting a tool; Index is the call's part position.
type ToolCallOutcome struct {
	Index int
	Call  types.ToolCall
}

func (ToolCallOutcome) isOutcome() {}

// Classify matches a model turn against the recognised shapes:
//
//	[Call]          -> ToolCallOutcome at index 0
//	[Text, Call]    -> ToolCallOutcome at index 1, the text is ignored
//	[Text, ...Text] -> TextOutcome with the first part's text
//
// Any other shape is a *MalformedTurnError. A call with no arguments is still a call.
func Classify(turn types.Message) (Outcome, error) {
	parts := turn.Parts
	switch {
	case len(parts) == 1 && isCall(parts[0]):
		return ToolCallOutcome{Index: 0, Call: callOf(parts[0])}, nil
	case len(parts) == 2 && isText(parts[0]) && isCall(parts[1]):
		return ToolCallOutcome{Index: 1, Call: callOf(parts[1])}, nil
	case len(parts) > 0 && allText(parts):
		return TextOutcome{Text: parts[0].(types.TextPart).Text}, nil
	default:
		return nil, &MalformedTurnError{Shape: Shape(turn)}
	}
}

// FollowUpText extracts the answer to an injected function response: the
// first text part of the turn.
func FollowUpText(turn types.Message) (string, error) {
	for _, p := range turn.Parts {
		if t, ok := p.(types.TextPart); ok {
			return t.Text, nil
		}
	}
	return "", &MalformedTurnError{Shape: Shape(turn)}
}

// Shape describes the part kinds of a turn, e.g. "[text call]".
func Shape(turn types.Message) string {
	kinds := make([]string, len(turn.Parts))
	for i, p := range turn.Parts {
		switch p.(type) {
		case types.TextPart:
			kinds[i] = "text"
		case types.FunctionCallPart:
			kinds[i] = "call"
		case types.FunctionResponsePart:
			kinds[i] = "response"
		default:
			kinds[i] = "unknown"
		}
	}
	return "[" + strings.Join(kinds, " ") + "]"
}

func isCall(p types.Part) bool {
	_, ok := p.(types.FunctionCallPart)
	return ok
}

func isText(p types.Part) bool {
	_, ok := p.(types.TextPart)
	return ok
}

func allText(parts []types.Part) bool {
	for _, p := range parts {
		if !isText(p) {
			return false
		}
	}
	return true
}

func callOf(p types.Part) types.ToolCall {
	call := p.(types.FunctionCallPart).Call
	if call.Args == nil {
		call.Args = map[string]any{}
	}
	return call
}
