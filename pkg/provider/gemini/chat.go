package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"gflights/pkg/provider"
	"gflights/pkg/types"
)

// Config contains Gemini credential and runtime options.
type Config struct {
	APIKey      string
	Model       string // e.g., "gemini-1.5-pro"
	Temperature float64
}

// Engine implements provider.Engine using Google Gemini chat sessions.
type Engine struct {
	client   *genai.Client
	defaults provider.SessionOptions
}

const (
	defaultModel       = "gemini-1.5-pro"
	defaultTemperature = 0.4
)

// NewEngine builds a Gemini chat engine.
func NewEngine(ctx context.Context, cfg Config) (*Engine, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	modelName := cfg.Model
	if strings.TrimSpace(modelName) == "" {
		modelName = defaultModel
	}

	temp := cfg.Temperature
	if temp == 0 {
		temp = defaultTemperature
	}

	return &Engine{
		client:   client,
		defaults: provider.SessionOptions{Model: modelName, Temperature: temp},
	}, nil
}

func (e *Engine) Name() string {
	return "gemini"
}

func (e *Engine) Close() error {
	return e.client.Close()
}

// StartSession configures a GenerativeModel with the declared tools and
// calling policy and opens a ChatSession on it.
func (e *Engine) StartSession(ctx context.Context, opts ...provider.Option) (provider.Session, error) {
	options := provider.Apply(e.defaults, opts)

	gm := e.client.GenerativeModel(options.Model)
	gm.SetTemperature(float32(options.Temperature))
	if options.MaxTokens > 0 {
		gm.SetMaxOutputTokens(int32(options.MaxTokens))
	}
	if len(options.Tools) > 0 {
		tools, err := toGeminiTools(options.Tools)
		if err != nil {
			return nil, err
		}
		gm.Tools = tools
		gm.ToolConfig = toToolConfig(options.Policy)
	}

	return &session{model: gm, cs: gm.StartChat()}, nil
}

type session struct {
	model *genai.GenerativeModel
	cs    *genai.ChatSession
}

func (s *session) History() []types.Message {
	out := make([]types.Message, 0, len(s.cs.History))
	for _, c := range s.cs.History {
		out = append(out, fromContent(c))
	}
	return out
}

func (s *session) AppendHistory(msgs ...types.Message) error {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, msg := range msgs {
		c, err := toContent(msg)
		if err != nil {
			return fmt.Errorf("gemini: append history: %w", err)
		}
		contents = append(contents, c)
	}
	s.cs.History = append(s.cs.History, contents...)
	return nil
}

// Send implements provider.Session.Send. The ChatSession records both the
// sent content and the reply in its History.
func (s *session) Send(ctx context.Context, msg types.Message, opts ...provider.SendOption) (*types.ChatResponse, error) {
	parts, err := toGeminiParts(msg)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, errors.New("gemini: empty message")
	}

	if _, ok := msg.FunctionResponse(); !ok {
		if err := s.closeUnanswered(); err != nil {
			return nil, err
		}
	}
	restore := s.relax(provider.ApplySend(msg, opts).Relaxed)
	defer restore()

	resp, err := s.cs.SendMessage(ctx, parts...)
	if err != nil {
		return nil, err
	}
	return toChatResponse(resp)
}

// closeUnanswered answers function calls that an earlier turn never sent a
// response for, so the next user turn does not directly follow a call.
func (s *session) closeUnanswered() error {
	return s.AppendHistory(provider.Unanswered(s.History())...)
}

// relax switches the model to automatic function calling for one send and
// returns the function that restores the session policy. The chat session
// reads the model's ToolConfig on every send.
func (s *session) relax(relaxed bool) (restore func()) {
	if !relaxed || s.model.ToolConfig == nil {
		return func() {}
	}
	saved := s.model.ToolConfig
	s.model.ToolConfig = toToolConfig(autoPolicy)
	return func() { s.model.ToolConfig = saved }
}

var _ provider.Engine = (*Engine)(nil)
