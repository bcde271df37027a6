package provider

import (
	"encoding/json"
	"fmt"

	"gflights/pkg/types"
)

// PayloadObject converts a tool payload into a JSON object. Payloads that are
// not objects (lists, scalars) are wrapped under the "content" key.
func PayloadObject(payload any) (map[string]any, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode tool payload: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("decode tool payload: %w", err)
	}
	if obj, ok := generic.(map[string]any); ok {
		return obj, nil
	}
	return map[string]any{"content": generic}, nil
}

// NoResult is the payload that closes a tool call whose result never reached
// the model.
var NoResult = map[string]any{"error": "no result"}

// Unanswered returns function responses, carrying NoResult, for the calls in
// the last model turn of history that no later message answers. Engines that
// pair every call with a response append them before the next user message.
func Unanswered(history []types.Message) []types.Message {
	last := -1
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == types.RoleModel {
			last = i
			break
		}
	}
	if last < 0 {
		return nil
	}

	answered := make(map[string]bool)
	for _, msg := range history[last+1:] {
		for _, p := range msg.Parts {
			if fr, ok := p.(types.FunctionResponsePart); ok {
				answered[callKey(fr.Result.CallID, fr.Result.ToolName)] = true
			}
		}
	}

	var out []types.Message
	for _, p := range history[last].Parts {
		fc, ok := p.(types.FunctionCallPart)
		if !ok || answered[callKey(fc.Call.ID, fc.Call.Name)] {
			continue
		}
		out = append(out, types.NewFunctionResponse(types.ToolResult{
			ToolName: fc.Call.Name,
			CallID:   fc.Call.ID,
			Payload:  NoResult,
		}))
	}
	return out
}

// callKey matches calls to responses by ID, or by name when the engine does
// not keep call IDs in its history.
func callKey(id, name string) string {
	if id != "" {
		return "id:" + id
	}
	return "name:" + name
}
