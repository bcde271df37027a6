package provider

import (
	"context"

	"gflights/pkg/tool"
	"gflights/pkg/types"
)

// SessionOptions contains configurable parameters for a chat session.
type SessionOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Tools       []types.ToolDeclaration
	Policy      tool.CallingPolicy
}

// Option is a functional option for configuring SessionOptions.
type Option func(*SessionOptions)

func WithTemperature(t float64) Option {
	return func(o *SessionOptions) {
		o.Temperature = t
	}
}

func WithModel(m string) Option {
	return func(o *SessionOptions) {
		o.Model = m
	}
}

func WithMaxTokens(n int) Option {
	return func(o *SessionOptions) {
		o.MaxTokens = n
	}
}

// WithTools declares the callable tools and the calling policy for the session.
func WithTools(decls []types.ToolDeclaration, policy tool.CallingPolicy) Option {
	return func(o *SessionOptions) {
		o.Tools = decls
		o.Policy = policy
	}
}

// Apply builds SessionOptions from defaults and options.
func Apply(defaults SessionOptions, opts []Option) SessionOptions {
	o := defaults
	if o.Policy.Mode == "" {
		o.Policy = tool.Auto()
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// SendOptions tune a single Send.
type SendOptions struct {
	// Relaxed sends with automatic function calling whatever the session policy.
	Relaxed bool
}

// SendOption is a functional option for one Send.
type SendOption func(*SendOptions)

// Relaxed lets the model answer in text on this send even when the session
// forces tool calls.
func Relaxed() SendOption {
	return func(o *SendOptions) {
		o.Relaxed = true
	}
}

// ApplySend builds the options for sending msg. Function responses are always
// relaxed so the follow-up may be text.
func ApplySend(msg types.Message, opts []SendOption) SendOptions {
	var o SendOptions
	if _, ok := msg.FunctionResponse(); ok {
		o.Relaxed = true
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Engine starts chat sessions against an LLM backend.
type Engine interface {
	// Name returns the provider name (e.g., "gemini", "openai").
	Name() string

	// StartSession opens a new conversation with empty history.
	StartSession(ctx context.Context, opts ...Option) (Session, error)

	// Close releases the underlying client.
	Close() error
}

// Session is one conversation with the engine. It is not safe for concurrent use.
type Session interface {
	// History returns a snapshot of the messages the engine will see.
	History() []types.Message

	// AppendHistory adds messages before the next Send, e.g. when replaying a
	// transcript. Nothing is added if any message cannot be represented.
	AppendHistory(msgs ...types.Message) error

	// Send delivers a user message or a function response and blocks until the
	// complete reply is available. Both are appended to the history.
	// A function response, or any send with Relaxed, uses automatic function
	// calling so the reply may be text. Tool calls left unanswered by earlier
	// turns are closed before a new user message goes out.
	Send(ctx context.Context, msg types.Message, opts ...SendOption) (*types.ChatResponse, error)
}
