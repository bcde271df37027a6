package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gflights/pkg/agent"
	"gflights/pkg/memory"
	"gflights/pkg/prompt"
	"gflights/pkg/provider"
	"gflights/pkg/tool"
)

// ErrSessionClosed is returned by Send after Close.
var ErrSessionClosed = errors.New("chat session closed")

// Config describes how a Session is assembled.
type Config struct {
	Registry *tool.Registry
	Policy   tool.CallingPolicy

	AssistantName string
	ReferenceYear int
	// Introduction overrides the prompt sent to a fresh session. It may use
	// the {{name}} and {{year}} placeholders.
	Introduction prompt.Template

	// Model and Temperature override the engine defaults when set.
	Model       string
	Temperature float64

	ToolTimeout time.Duration
	Logger      *slog.Logger
}

const (
	defaultAssistantName = "ReX"
	defaultReferenceYear = 2024
)

// Session owns one conversation: the engine session, the transcript and
// the agent that drives turns against them.
type Session struct {
	ID string

	store  memory.Store
	agent  *agent.Agent
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Open starts an engine session with the registry's tools, replays the
// transcript into it and, when the transcript is empty, sends the
// introduction prompt with automatic function calling before returning.
func Open(ctx context.Context, engine provider.Engine, store memory.Store, cfg Config) (*Session, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("tool registry is required")
	}
	if store == nil {
		transcript, err := memory.NewTranscript()
		if err != nil {
			return nil, err
		}
		store = transcript
	}
	if cfg.Policy.Mode == "" {
		cfg.Policy = tool.Forced()
	}
	if err := cfg.Policy.Validate(cfg.Registry); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session_id", id, "provider", engine.Name())

	opts := []provider.Option{provider.WithTools(cfg.Registry.Declarations(), cfg.Policy)}
	if strings.TrimSpace(cfg.Model) != "" {
		opts = append(opts, provider.WithModel(cfg.Model))
	}
	if cfg.Temperature > 0 {
		opts = append(opts, provider.WithTemperature(cfg.Temperature))
	}
	es, err := engine.StartSession(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("start %s session: %w", engine.Name(), err)
	}

	if err := memory.ReplayInto(store, es); err != nil {
		return nil, err
	}
	logger.Debug("transcript replayed", "entries", store.Len())

	a, err := agent.New(agent.Config{
		Session: es,
		Executor: tool.NewExecutor(cfg.Registry, tool.ExecutorConfig{
			DefaultTimeout: cfg.ToolTimeout,
			SessionID:      id,
			Logger:         logger,
		}),
		Memory: store,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	s := &Session{ID: id, store: store, agent: a, logger: logger}
	if store.Len() == 0 {
		name := cfg.AssistantName
		if strings.TrimSpace(name) == "" {
			name = defaultAssistantName
		}
		year := cfg.ReferenceYear
		if year == 0 {
			year = defaultReferenceYear
		}
		tpl := cfg.Introduction
		if strings.TrimSpace(tpl.Text) == "" {
			tpl = prompt.Introduction
		}
		intro, err := tpl.Execute(map[string]any{"name": name, "year": year})
		if err != nil {
			return nil, err
		}
		// The introduction is not a user request, so the model may answer it
		// in text even when the policy forces tool calls.
		if _, err := a.Run(ctx, intro, provider.Relaxed()); err != nil {
			return nil, fmt.Errorf("introduction: %w", err)
		}
		logger.Info("session started", "assistant", name)
	} else {
		logger.Info("session resumed", "entries", store.Len())
	}
	return s, nil
}

// Send runs one user query and returns the text to display.
func (s *Session) Send(ctx context.Context, query string) (string, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return "", ErrSessionClosed
	}
	return s.agent.Run(ctx, query)
}

// Entries returns the full transcript, introduction prompt included.
func (s *Session) Entries() []memory.Entry {
	return s.store.All()
}

// Visible returns the transcript as displayed: without the introduction prompt.
func (s *Session) Visible() []memory.Entry {
	return memory.Visible(s.store)
}

// Close ends the session and discards its transcript. The engine stays open.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.store.Reset()
	s.logger.Debug("session closed")
	return nil
}
