package types

import "strings"

// Role identifies who authored a message in the conversation.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
	// RoleFunction carries a tool result back into the conversation.
	RoleFunction Role = "function"
)

// Part is one ordered segment of a message. The set of parts is closed:
// TextPart, FunctionCallPart and FunctionResponsePart.
type Part interface{ isPart() }

// TextPart is plain model or user text.
type TextPart struct {
	Text string
}

func (TextPart) isPart() {}

// FunctionCallPart is a model request to invoke a declared tool.
type FunctionCallPart struct {
	Call ToolCall
}

func (FunctionCallPart) isPart() {}

// FunctionResponsePart carries the result of a tool back to the model.
type FunctionResponsePart struct {
	Result ToolResult
}

func (FunctionResponsePart) isPart() {}

// ToolCall represents a request from the model to call a specific function.
type ToolCall struct {
	// ID is set by providers that correlate calls and responses (OpenAI).
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolResult is the outcome of executing a ToolCall.
// A nil or empty Payload means the action produced nothing usable.
type ToolResult struct {
	ToolName string `json:"tool_name"`
	CallID   string `json:"call_id,omitempty"`
	Payload  any    `json:"payload,omitempty"`
}

// Usage represents token usage statistics.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Message is a single chat turn made of ordered parts.
type Message struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"-"`
}

// NewText builds a single-part text message.
func NewText(role Role, text string) Message {
	return Message{Role: role, Parts: []Part{TextPart{Text: text}}}
}

// NewFunctionResponse builds the message that injects a tool result.
func NewFunctionResponse(result ToolResult) Message {
	return Message{Role: RoleFunction, Parts: []Part{FunctionResponsePart{Result: result}}}
}

// Text concatenates the text parts of the message.
func (m Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if t, ok := p.(TextPart); ok {
			sb.WriteString(t.Text)
		}
	}
	return sb.String()
}

// FunctionResponse returns the first function response carried by the message.
func (m Message) FunctionResponse() (ToolResult, bool) {
	for _, p := range m.Parts {
		if fr, ok := p.(FunctionResponsePart); ok {
			return fr.Result, true
		}
	}
	return ToolResult{}, false
}

// ChatResponse represents the full response from a chat engine.
type ChatResponse struct {
	Message      Message
	FinishReason string // stop, length, tool_calls, safety
	Usage        Usage
}

// ToolDeclaration describes a tool available to the model.
// Parameters is a JSON-schema object map.
type ToolDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}
