package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Parser converts raw model output into a structured value.
type Parser[T any] interface {
	Parse(text string) (T, error)
}

// Error reports model output that could not be decoded.
type Error struct {
	Input string
	Err   error
}

func (e *Error) Error() string {
	input := e.Input
	if len(input) > 120 {
		input = input[:120] + "..."
	}
	return fmt.Sprintf("parse model output %q: %v", input, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrTrailingData is wrapped when a JSON value is followed by more text.
var ErrTrailingData = errors.New("unexpected data after JSON value")

// JSONParser decodes one JSON value, optionally wrapped in a markdown fence.
// Tool-call arguments from OpenAI-compatible APIs arrive this way.
type JSONParser[T any] struct {
	// AllowEmpty decodes blank input to the zero value instead of failing.
	AllowEmpty bool
}

func NewJSONParser[T any]() *JSONParser[T] {
	return &JSONParser[T]{}
}

var fenced = regexp.MustCompile("(?s)```(?:json)?(.*?)```")

func (p *JSONParser[T]) Parse(text string) (T, error) {
	var out T
	body := unfence(text)
	if body == "" {
		if p.AllowEmpty {
			return out, nil
		}
		return out, &Error{Input: text, Err: io.ErrUnexpectedEOF}
	}

	dec := json.NewDecoder(strings.NewReader(body))
	if err := dec.Decode(&out); err != nil {
		return out, &Error{Input: text, Err: err}
	}
	if rest, _ := io.ReadAll(dec.Buffered()); len(bytes.TrimSpace(rest)) > 0 || dec.More() {
		return out, &Error{Input: text, Err: ErrTrailingData}
	}
	return out, nil
}

func unfence(text string) string {
	text = strings.TrimSpace(text)
	if m := fenced.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return text
}
