package tool

import (
	"context"
	"math"
	"time"
)

// Tool is a capability the model may request by name.
type Tool interface {
	Name() string
	Description() string

	// InputSchema is the JSON-schema object declared to the chat engine.
	InputSchema() map[string]any

	Execute(ctx context.Context, input map[string]any, tc *ToolContext) (any, error)
}

// Limited is implemented by tools that carry their own execution limits.
type Limited interface {
	Tool
	Limits() Limits
}

// Limits bound one tool execution. A zero Timeout uses the executor default
// and a nil Retry means a single attempt.
type Limits struct {
	Timeout time.Duration
	Retry   *RetryPolicy
}

// RetryPolicy retries failed executions with exponential backoff. Only errors
// accepted by RetryIf are retried; a nil RetryIf retries every error.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	RetryIf        func(error) bool
}

// Retry returns a backoff policy for read-only tools.
func Retry(maxRetries int, retryIf func(error) bool) *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:     maxRetries,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2.0,
		RetryIf:        retryIf,
	}
}

func (p *RetryPolicy) attempts() int {
	if p == nil {
		return 1
	}
	return 1 + p.MaxRetries
}

func (p *RetryPolicy) retries(err error) bool {
	if p == nil {
		return false
	}
	return p.RetryIf == nil || p.RetryIf(err)
}

func (p *RetryPolicy) backoff(attempt int) time.Duration {
	if p == nil {
		return 0
	}
	d := float64(p.InitialBackoff) * math.Pow(p.Multiplier, float64(attempt))
	if p.MaxBackoff > 0 && d > float64(p.MaxBackoff) {
		d = float64(p.MaxBackoff)
	}
	return time.Duration(d)
}
