package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// meta holds what every concrete tool declares.
type meta struct {
	name        string
	description string
	schema      map[string]any
	limits      Limits
}

func newMeta(name, description string, schema map[string]any) meta {
	return meta{
		name:        name,
		description: description,
		schema:      schema,
	}
}

func (m *meta) Name() string                { return m.name }
func (m *meta) Description() string         { return m.description }
func (m *meta) InputSchema() map[string]any { return m.schema }
func (m *meta) Limits() Limits              { return m.limits }

// Func is a tool over the raw argument map. Its default schema is an object
// with no properties.
type Func struct {
	meta
	fn func(ctx context.Context, input map[string]any, tc *ToolContext) (any, error)
}

func NewFunc(name, description string, fn func(ctx context.Context, input map[string]any, tc *ToolContext) (any, error)) *Func {
	return &Func{
		meta: newMeta(name, description, map[string]any{"type": "object", "properties": map[string]any{}}),
		fn:   fn,
	}
}

func (f *Func) Execute(ctx context.Context, input map[string]any, tc *ToolContext) (any, error) {
	if f.fn == nil {
		return nil, fmt.Errorf("tool %s has no implementation", f.name)
	}
	return f.fn(ctx, input, tc)
}

func (f *Func) WithSchema(schema map[string]any) *Func {
	f.schema = schema
	return f
}

func (f *Func) WithTimeout(d time.Duration) *Func {
	f.limits.Timeout = d
	return f
}

// WithRetry opts the tool into retries. Only idempotent tools should.
func (f *Func) WithRetry(policy *RetryPolicy) *Func {
	f.limits.Retry = policy
	return f
}

// Struct is a tool whose arguments are decoded by name into T. Its schema is
// generated from T's fields.
type Struct[T any] struct {
	meta
	fn func(context.Context, T, *ToolContext) (any, error)
}

func NewStruct[T any](name, description string, fn func(context.Context, T, *ToolContext) (any, error)) *Struct[T] {
	var zero T
	return &Struct[T]{
		meta: newMeta(name, description, GenerateSchema(zero)),
		fn:   fn,
	}
}

// Execute decodes input through JSON, so numbers arriving as float64 fill
// integer fields and custom UnmarshalJSON methods on T apply.
func (s *Struct[T]) Execute(ctx context.Context, input map[string]any, tc *ToolContext) (any, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode arguments for %s: %w", s.name, err)
	}
	var args T
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("decode arguments for %s: %w", s.name, err)
	}
	return s.fn(ctx, args, tc)
}

func (s *Struct[T]) WithSchema(schema map[string]any) *Struct[T] {
	s.schema = schema
	return s
}

func (s *Struct[T]) WithTimeout(d time.Duration) *Struct[T] {
	s.limits.Timeout = d
	return s
}

func (s *Struct[T]) WithRetry(policy *RetryPolicy) *Struct[T] {
	s.limits.Retry = policy
	return s
}

var (
	_ Limited = (*Func)(nil)
	_ Limited = (*Struct[struct{}])(nil)
)
