package tool

import (
	"context"

	"github.com/google/uuid"
)

// ToolContext carries metadata and services for tool execution.
type ToolContext struct {
	SessionID   string
	ExecutionID string // Unique ID for this execution
	CallID      string // ID the model gave the call, when it has one

	Context context.Context

	Logger Logger
}

// Logger is satisfied by *slog.Logger.
type Logger interface {
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	Debug(msg string, keysAndValues ...any)
}

// Option defines a function to configure ToolContext
type Option func(*ToolContext)

// NewToolContext builds a ToolContext with a fresh execution ID.
func NewToolContext(opts ...Option) *ToolContext {
	tc := &ToolContext{
		ExecutionID: uuid.NewString(),
		Context:     context.Background(),
		Logger:      nopLogger{},
	}
	for _, opt := range opts {
		opt(tc)
	}
	return tc
}

func WithSessionID(id string) Option {
	return func(tc *ToolContext) {
		tc.SessionID = id
	}
}

func WithLogger(l Logger) Option {
	return func(tc *ToolContext) {
		if l != nil {
			tc.Logger = l
		}
	}
}

func WithCallID(id string) Option {
	return func(tc *ToolContext) {
		tc.CallID = id
	}
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
func (nopLogger) Debug(string, ...any) {}
