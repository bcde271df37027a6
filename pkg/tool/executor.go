package tool

import (
	"context"
	"time"

	"gflights/pkg/types"
)

// ExecutorConfig controls how tools are executed.
type ExecutorConfig struct {
	DefaultTimeout time.Duration
	SessionID      string
	Logger         Logger
}

// Executor dispatches tool calls by name through a Registry.
type Executor struct {
	config   ExecutorConfig
	registry *Registry
}

// NewExecutor builds an Executor with sane defaults.
func NewExecutor(registry *Registry, cfg ExecutorConfig) *Executor {
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}
	return &Executor{
		config:   cfg,
		registry: registry,
	}
}

// Registry returns the registry the executor dispatches through.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// ExecuteResult captures the output of a tool invocation.
type ExecuteResult struct {
	Result     types.ToolResult
	Error      error
	Duration   time.Duration
	StartedAt  time.Time
	FinishedAt time.Time
	Attempts   int
}

// Success reports whether the tool ran without error.
func (r *ExecuteResult) Success() bool {
	return r.Error == nil
}

// Empty reports whether the tool ran but produced no usable payload.
func (r *ExecuteResult) Empty() bool {
	return r.Error == nil && IsEmpty(r.Result.Payload)
}

// Execute runs the tool named by call with timeout and retry handling.
// An unregistered name yields an *UnknownToolError in the result.
func (e *Executor) Execute(ctx context.Context, call types.ToolCall) *ExecuteResult {
	start := time.Now()
	res := &ExecuteResult{
		Result:    types.ToolResult{ToolName: call.Name, CallID: call.ID},
		StartedAt: start,
	}
	finish := func(err error) *ExecuteResult {
		res.Error = err
		res.FinishedAt = time.Now()
		res.Duration = res.FinishedAt.Sub(start)
		return res
	}

	t, err := e.registry.Get(call.Name)
	if err != nil {
		return finish(err)
	}

	if err := ValidateInput(t, call.Args); err != nil {
		return finish(err)
	}

	timeout := e.config.DefaultTimeout
	var retry *RetryPolicy
	if lt, ok := t.(Limited); ok {
		limits := lt.Limits()
		if limits.Timeout > 0 {
			timeout = limits.Timeout
		}
		retry = limits.Retry
	}
	maxAttempts := retry.attempts()

	tc := NewToolContext(WithSessionID(e.config.SessionID), WithCallID(call.ID), WithLogger(e.config.Logger))
	var execErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		res.Attempts = attempt + 1

		execCtx, cancel := context.WithTimeout(ctx, timeout)
		tc.Context = execCtx
		res.Result.Payload, execErr = t.Execute(execCtx, call.Args, tc)
		cancel()

		if execErr == nil {
			break
		}
		e.config.Logger.Error("tool execution failed",
			"tool", call.Name, "attempt", res.Attempts, "call_id", call.ID, "execution_id", tc.ExecutionID, "error", execErr)

		if attempt == maxAttempts-1 || !retry.retries(execErr) {
			break
		}
		select {
		case <-time.After(retry.backoff(attempt)):
		case <-ctx.Done():
			return finish(ctx.Err())
		}
	}
	return finish(execErr)
}
