package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"gflights/pkg/parser"
	"gflights/pkg/provider"
	"gflights/pkg/tool"
	"gflights/pkg/types"
)

// Config contains OpenAI credential and runtime options.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	HTTPClient  *http.Client
	Temperature float64 // Default temperature
}

// Engine implements provider.Engine using OpenAI chat completions.
// The API is stateless, so each session keeps its own history and replays it
// on every request.
type Engine struct {
	name     string
	client   *goopenai.Client
	defaults provider.SessionOptions
}

const (
	defaultTemperature = 0.4
	defaultModel       = "gpt-4o"
)

// NewEngine builds a chat completion engine.
func NewEngine(cfg Config) (*Engine, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		apiCfg.HTTPClient = cfg.HTTPClient
	}

	modelName := cfg.Model
	if strings.TrimSpace(modelName) == "" {
		modelName = defaultModel
	}

	temp := cfg.Temperature
	if temp == 0 {
		temp = defaultTemperature
	}

	return NewEngineWithClient("openai", goopenai.NewClientWithConfig(apiCfg), provider.SessionOptions{
		Model:       modelName,
		Temperature: temp,
	}), nil
}

// NewEngineWithClient wraps a preconfigured client; OpenAI-compatible
// gateways reuse the engine this way.
func NewEngineWithClient(name string, client *goopenai.Client, defaults provider.SessionOptions) *Engine {
	return &Engine{name: name, client: client, defaults: defaults}
}

func (e *Engine) Name() string {
	return e.name
}

func (e *Engine) Close() error {
	return nil
}

func (e *Engine) StartSession(_ context.Context, opts ...provider.Option) (provider.Session, error) {
	options := provider.Apply(e.defaults, opts)
	tools := make([]goopenai.Tool, 0, len(options.Tools))
	for _, d := range options.Tools {
		if !options.Policy.Allows(d.Name) {
			continue
		}
		tools = append(tools, goopenai.Tool{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		})
	}
	return &session{
		name:    e.name,
		client:  e.client,
		options: options,
		tools:   tools,
		args:    &parser.JSONParser[map[string]any]{AllowEmpty: true},
	}, nil
}

type session struct {
	name    string
	client  *goopenai.Client
	options provider.SessionOptions
	tools   []goopenai.Tool
	history []types.Message
	args    *parser.JSONParser[map[string]any]
}

func (s *session) History() []types.Message {
	out := make([]types.Message, len(s.history))
	copy(out, s.history)
	return out
}

func (s *session) AppendHistory(msgs ...types.Message) error {
	for _, msg := range msgs {
		if _, err := toOpenAIMessages(msg); err != nil {
			return fmt.Errorf("%s: append history: %w", s.name, err)
		}
	}
	s.history = append(s.history, msgs...)
	return nil
}

// Send implements provider.Session.Send. The API rejects an assistant
// tool_calls message that is not followed by a tool message for each call,
// so calls a previous turn left unanswered are closed first.
func (s *session) Send(ctx context.Context, msg types.Message, opts ...provider.SendOption) (*types.ChatResponse, error) {
	sendOpts := provider.ApplySend(msg, opts)
	if _, isResponse := msg.FunctionResponse(); !isResponse {
		s.history = append(s.history, provider.Unanswered(s.history)...)
	}
	req, err := s.prepareRequest(append(s.History(), msg), sendOpts.Relaxed)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s: no choices returned", s.name)
	}

	choice := resp.Choices[0]
	reply, err := s.fromOpenAIMessage(choice.Message)
	if err != nil {
		return nil, err
	}
	s.history = append(s.history, msg, reply)

	return &types.ChatResponse{
		Message:      reply,
		FinishReason: string(choice.FinishReason),
		Usage: types.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func (s *session) prepareRequest(messages []types.Message, relaxed bool) (goopenai.ChatCompletionRequest, error) {
	wire := make([]goopenai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		converted, err := toOpenAIMessages(msg)
		if err != nil {
			return goopenai.ChatCompletionRequest{}, err
		}
		wire = append(wire, converted...)
	}

	req := goopenai.ChatCompletionRequest{
		Model:       s.options.Model,
		Messages:    wire,
		Temperature: float32(s.options.Temperature),
		MaxTokens:   s.options.MaxTokens,
	}
	if len(s.tools) == 0 {
		return req, nil
	}

	req.Tools = s.tools
	policy := s.options.Policy
	if relaxed {
		policy = tool.Auto()
	}
	req.ToolChoice = toolChoice(policy)
	return req, nil
}

// toolChoice maps the calling policy onto tool_choice. A single allowed tool
// is named explicitly; otherwise "required" applies to the session's tool list.
func toolChoice(p tool.CallingPolicy) any {
	if !p.IsForced() {
		return "auto"
	}
	if len(p.Allowed) == 1 {
		return goopenai.ToolChoice{
			Type:     goopenai.ToolTypeFunction,
			Function: goopenai.ToolFunction{Name: p.Allowed[0]},
		}
	}
	return "required"
}

func toOpenAIMessages(msg types.Message) ([]goopenai.ChatCompletionMessage, error) {
	switch msg.Role {
	case types.RoleFunction:
		var out []goopenai.ChatCompletionMessage
		for _, p := range msg.Parts {
			fr, ok := p.(types.FunctionResponsePart)
			if !ok {
				continue
			}
			content, err := json.Marshal(fr.Result.Payload)
			if err != nil {
				return nil, fmt.Errorf("encode tool payload: %w", err)
			}
			out = append(out, goopenai.ChatCompletionMessage{
				Role:       goopenai.ChatMessageRoleTool,
				Name:       fr.Result.ToolName,
				ToolCallID: fr.Result.CallID,
				Content:    string(content),
			})
		}
		return out, nil
	case types.RoleModel:
		oMsg := goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleAssistant,
			Content: msg.Text(),
		}
		for _, p := range msg.Parts {
			fc, ok := p.(types.FunctionCallPart)
			if !ok {
				continue
			}
			args, err := json.Marshal(fc.Call.Args)
			if err != nil {
				return nil, fmt.Errorf("encode tool arguments: %w", err)
			}
			oMsg.ToolCalls = append(oMsg.ToolCalls, goopenai.ToolCall{
				ID:   fc.Call.ID,
				Type: goopenai.ToolTypeFunction,
				Function: goopenai.FunctionCall{
					Name:      fc.Call.Name,
					Arguments: string(args),
				},
			})
		}
		return []goopenai.ChatCompletionMessage{oMsg}, nil
	default:
		return []goopenai.ChatCompletionMessage{{
			Role:    goopenai.ChatMessageRoleUser,
			Content: msg.Text(),
		}}, nil
	}
}

// fromOpenAIMessage orders text before calls so a reply with both reads as
// [TextPart, FunctionCallPart].
func (s *session) fromOpenAIMessage(m goopenai.ChatCompletionMessage) (types.Message, error) {
	msg := types.Message{Role: types.RoleModel}
	if m.Content != "" || len(m.ToolCalls) == 0 {
		msg.Parts = append(msg.Parts, types.TextPart{Text: m.Content})
	}
	for _, tc := range m.ToolCalls {
		args, err := s.args.Parse(tc.Function.Arguments)
		if err != nil {
			return types.Message{}, fmt.Errorf("%s: tool call %s: %w", s.name, tc.Function.Name, err)
		}
		if args == nil {
			args = map[string]any{}
		}
		msg.Parts = append(msg.Parts, types.FunctionCallPart{Call: types.ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: args,
		}})
	}
	return msg, nil
}

// Ensure interface compliance
var _ provider.Engine = (*Engine)(nil)
