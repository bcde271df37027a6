package gemini

import (
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"

	"gflights/pkg/provider"
	"gflights/pkg/tool"
	"gflights/pkg/types"
)

var autoPolicy = tool.Auto()

func toToolConfig(p tool.CallingPolicy) *genai.ToolConfig {
	cfg := &genai.FunctionCallingConfig{Mode: genai.FunctionCallingAuto}
	if p.IsForced() {
		// An empty allow-list lets the model pick any declared function.
		cfg.Mode = genai.FunctionCallingAny
		cfg.AllowedFunctionNames = p.Allowed
	}
	return &genai.ToolConfig{FunctionCallingConfig: cfg}
}

func toGeminiTools(decls []types.ToolDeclaration) ([]*genai.Tool, error) {
	fds := make([]*genai.FunctionDeclaration, 0, len(decls))
	for _, d := range decls {
		params, err := toSchema(d.Parameters)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", d.Name, err)
		}
		fds = append(fds, &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  params,
		})
	}
	return []*genai.Tool{{FunctionDeclarations: fds}}, nil
}

// toSchema converts a JSON-schema map into the Gemini schema subset.
func toSchema(m map[string]any) (*genai.Schema, error) {
	if m == nil {
		return nil, nil
	}
	typ, _ := m["type"].(string)
	s := &genai.Schema{}
	switch typ {
	case "string":
		s.Type = genai.TypeString
	case "number":
		s.Type = genai.TypeNumber
	case "integer":
		s.Type = genai.TypeInteger
	case "boolean":
		s.Type = genai.TypeBoolean
	case "array":
		s.Type = genai.TypeArray
	case "object", "":
		s.Type = genai.TypeObject
	default:
		return nil, fmt.Errorf("unsupported schema type %q", typ)
	}
	s.Description, _ = m["description"].(string)
	s.Format, _ = m["format"].(string)
	s.Nullable, _ = m["nullable"].(bool)

	switch enum := m["enum"].(type) {
	case []string:
		s.Enum = enum
	case []any:
		for _, v := range enum {
			s.Enum = append(s.Enum, fmt.Sprint(v))
		}
	}

	if items, ok := m["items"].(map[string]any); ok {
		is, err := toSchema(items)
		if err != nil {
			return nil, err
		}
		s.Items = is
	}

	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			pm, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("property %s: schema must be an object", name)
			}
			ps, err := toSchema(pm)
			if err != nil {
				return nil, fmt.Errorf("property %s: %w", name, err)
			}
			s.Properties[name] = ps
		}
	}
	s.Required = tool.RequiredFields(m)
	return s, nil
}

func toGeminiParts(msg types.Message) ([]genai.Part, error) {
	parts := make([]genai.Part, 0, len(msg.Parts))
	for _, p := range msg.Parts {
		switch v := p.(type) {
		case types.TextPart:
			parts = append(parts, genai.Text(v.Text))
		case types.FunctionCallPart:
			parts = append(parts, genai.FunctionCall{Name: v.Call.Name, Args: v.Call.Args})
		case types.FunctionResponsePart:
			obj, err := provider.PayloadObject(v.Result.Payload)
			if err != nil {
				return nil, err
			}
			parts = append(parts, genai.FunctionResponse{Name: v.Result.ToolName, Response: obj})
		}
	}
	return parts, nil
}

func toContent(msg types.Message) (*genai.Content, error) {
	parts, err := toGeminiParts(msg)
	if err != nil {
		return nil, err
	}
	role := "user"
	if msg.Role == types.RoleModel {
		role = "model"
	}
	return &genai.Content{Role: role, Parts: parts}, nil
}

func fromContent(c *genai.Content) types.Message {
	msg := types.Message{Role: types.RoleUser}
	if c == nil {
		return msg
	}
	if c.Role == "model" {
		msg.Role = types.RoleModel
	}
	for _, part := range c.Parts {
		switch p := part.(type) {
		case genai.Text:
			msg.Parts = append(msg.Parts, types.TextPart{Text: string(p)})
		case genai.FunctionCall:
			msg.Parts = append(msg.Parts, types.FunctionCallPart{Call: types.ToolCall{Name: p.Name, Args: p.Args}})
		case *genai.FunctionCall:
			msg.Parts = append(msg.Parts, types.FunctionCallPart{Call: types.ToolCall{Name: p.Name, Args: p.Args}})
		case genai.FunctionResponse:
			msg.Role = types.RoleFunction
			msg.Parts = append(msg.Parts, types.FunctionResponsePart{Result: types.ToolResult{ToolName: p.Name, Payload: p.Response}})
		case *genai.FunctionResponse:
			msg.Role = types.RoleFunction
			msg.Parts = append(msg.Parts, types.FunctionResponsePart{Result: types.ToolResult{ToolName: p.Name, Payload: p.Response}})
		}
	}
	return msg
}

func toChatResponse(resp *genai.GenerateContentResponse) (*types.ChatResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("gemini: no candidates returned")
	}

	cand := resp.Candidates[0]
	out := &types.ChatResponse{
		Message:      fromContent(cand.Content),
		FinishReason: toFinishReason(cand.FinishReason),
	}
	out.Message.Role = types.RoleModel
	// Gemini does not identify calls; give each one an ID for logs and tool contexts.
	for i, p := range out.Message.Parts {
		if fc, ok := p.(types.FunctionCallPart); ok && fc.Call.ID == "" {
			fc.Call.ID = uuid.NewString()
			out.Message.Parts[i] = fc
		}
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = types.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}

func toFinishReason(fr genai.FinishReason) string {
	switch fr {
	case genai.FinishReasonStop:
		return "stop"
	case genai.FinishReasonMaxTokens:
		return "length"
	case genai.FinishReasonSafety:
		return "safety"
	case genai.FinishReasonRecitation:
		return "recitation"
	case genai.FinishReasonUnspecified:
		return ""
	default:
		return fmt.Sprintf("unknown:%d", fr)
	}
}
