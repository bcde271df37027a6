package echo

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"gflights/pkg/provider"
	"gflights/pkg/types"
)

// ErrScriptExhausted is returned by a scripted engine with no turns left.
var ErrScriptExhausted = errors.New("echo: script exhausted")

// Engine is a deterministic offline provider useful for tests and fallbacks.
// Without a script it echoes the last message back as text; with a script it
// replays the canned model turns in order across all its sessions.
type Engine struct {
	Prefix string

	mu       sync.Mutex
	script   []types.Message
	scripted bool
	sessions []*Session
}

// New returns an echo engine.
func New(prefix string) *Engine {
	return &Engine{Prefix: prefix}
}

// NewScripted returns an engine that answers with turns, one per Send.
func NewScripted(turns ...types.Message) *Engine {
	return &Engine{script: turns, scripted: true}
}

// Text is a shorthand for a single text-part model turn.
func Text(text string) types.Message {
	return types.NewText(types.RoleModel, text)
}

// Call is a shorthand for a model turn holding one function call,
// optionally preceded by text.
func Call(name string, args map[string]any, preamble ...string) types.Message {
	msg := types.Message{Role: types.RoleModel}
	for _, p := range preamble {
		msg.Parts = append(msg.Parts, types.TextPart{Text: p})
	}
	msg.Parts = append(msg.Parts, types.FunctionCallPart{Call: types.ToolCall{Name: name, Args: args}})
	return msg
}

func (e *Engine) Name() string {
	if e.Prefix == "" {
		return "echo"
	}
	return "echo-" + strings.ReplaceAll(e.Prefix, " ", "_")
}

func (e *Engine) Close() error {
	return nil
}

func (e *Engine) StartSession(_ context.Context, opts ...provider.Option) (provider.Session, error) {
	s := &Session{engine: e, Options: provider.Apply(provider.SessionOptions{Model: "echo"}, opts)}
	e.mu.Lock()
	e.sessions = append(e.sessions, s)
	e.mu.Unlock()
	return s, nil
}

// Sessions returns the sessions started so far, oldest first.
func (e *Engine) Sessions() []*Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Session, len(e.sessions))
	copy(out, e.sessions)
	return out
}

// Remaining reports how many scripted turns are left.
func (e *Engine) Remaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.script)
}

func (e *Engine) next(msg types.Message) (types.Message, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scripted {
		if len(e.script) == 0 {
			return types.Message{}, ErrScriptExhausted
		}
		turn := e.script[0]
		e.script = e.script[1:]
		return turn, nil
	}

	var sb strings.Builder
	if e.Prefix != "" {
		sb.WriteString(strings.TrimSpace(e.Prefix))
		sb.WriteString(" ")
	}
	if result, ok := msg.FunctionResponse(); ok {
		raw, err := json.Marshal(result.Payload)
		if err != nil {
			return types.Message{}, err
		}
		sb.WriteString(result.ToolName)
		sb.WriteString(": ")
		sb.Write(raw)
	} else {
		sb.WriteString(msg.Text())
	}
	return Text(sb.String()), nil
}

// Session records everything sent to it.
type Session struct {
	Options provider.SessionOptions

	engine  *Engine
	history []types.Message
	sends   []provider.SendOptions
}

func (s *Session) History() []types.Message {
	out := make([]types.Message, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Session) AppendHistory(msgs ...types.Message) error {
	s.history = append(s.history, msgs...)
	return nil
}

// Sends returns the options each Send was made with, oldest first.
func (s *Session) Sends() []provider.SendOptions {
	out := make([]provider.SendOptions, len(s.sends))
	copy(out, s.sends)
	return out
}

// Send implements provider.Session
func (s *Session) Send(ctx context.Context, msg types.Message, opts ...provider.SendOption) (*types.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := msg.FunctionResponse(); !ok {
		s.history = append(s.history, provider.Unanswered(s.history)...)
	}
	reply, err := s.engine.next(msg)
	if err != nil {
		return nil, err
	}
	s.sends = append(s.sends, provider.ApplySend(msg, opts))
	s.history = append(s.history, msg, reply)

	finish := "stop"
	for _, p := range reply.Parts {
		if _, ok := p.(types.FunctionCallPart); ok {
			finish = "tool_calls"
		}
	}
	n := len(reply.Text())
	return &types.ChatResponse{
		Message:      reply,
		FinishReason: finish,
		Usage: types.Usage{
			PromptTokens:     len(msg.Text()),
			CompletionTokens: n,
			TotalTokens:      len(msg.Text()) + n,
		},
	}, nil
}

var (
	_ provider.Engine  = (*Engine)(nil)
	_ provider.Session = (*Session)(nil)
)
