package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gflights/pkg/tool"
	"gflights/pkg/types"
)

func TestPayloadObject(t *testing.T) {
	type booking struct {
		FlightID int    `json:"flight_id"`
		Seat     string `json:"seat_type"`
	}

	obj, err := PayloadObject(booking{FlightID: 42, Seat: "economy"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"flight_id": float64(42), "seat_type": "economy"}, obj)

	obj, err = PayloadObject([]string{"UA 100", "DL 200"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"content": []any{"UA 100", "DL 200"}}, obj)

	_, err = PayloadObject(make(chan int))
	require.Error(t, err)
}

func TestApply(t *testing.T) {
	opts := Apply(SessionOptions{Model: "m", Temperature: 0.4}, []Option{
		WithModel("other"),
		WithMaxTokens(128),
	})
	assert.Equal(t, "other", opts.Model)
	assert.Equal(t, 0.4, opts.Temperature)
	assert.Equal(t, 128, opts.MaxTokens)
	assert.Equal(t, tool.Auto(), opts.Policy)

	opts = Apply(SessionOptions{}, []Option{WithTools(nil, tool.Forced()), WithTemperature(1)})
	assert.True(t, opts.Policy.IsForced())
	assert.Equal(t, 1.0, opts.Temperature)
}

func TestApplySend(t *testing.T) {
	user := types.NewText(types.RoleUser, "hello")
	assert.False(t, ApplySend(user, nil).Relaxed)
	assert.True(t, ApplySend(user, []SendOption{Relaxed()}).Relaxed)

	response := types.NewFunctionResponse(types.ToolResult{ToolName: "search"})
	assert.True(t, ApplySend(response, nil).Relaxed, "function responses never force a call")
}

func TestUnanswered(t *testing.T) {
	call := func(id, name string) types.Message {
		return types.Message{Role: types.RoleModel, Parts: []types.Part{
			types.FunctionCallPart{Call: types.ToolCall{ID: id, Name: name}},
		}}
	}

	assert.Empty(t, Unanswered(nil))
	assert.Empty(t, Unanswered([]types.Message{types.NewText(types.RoleUser, "hi"), types.NewText(types.RoleModel, "hello")}))

	open := Unanswered([]types.Message{types.NewText(types.RoleUser, "book 999"), call("call_1", "book")})
	require.Len(t, open, 1)
	result, ok := open[0].FunctionResponse()
	require.True(t, ok)
	assert.Equal(t, "call_1", result.CallID)
	assert.Equal(t, "book", result.ToolName)
	assert.Equal(t, NoResult, result.Payload)

	answered := []types.Message{
		call("call_1", "book"),
		types.NewFunctionResponse(types.ToolResult{ToolName: "book", CallID: "call_1", Payload: "ok"}),
	}
	assert.Empty(t, Unanswered(answered))

	byName := []types.Message{
		call("", "search"),
		types.NewFunctionResponse(types.ToolResult{ToolName: "search"}),
	}
	assert.Empty(t, Unanswered(byName), "engines without call IDs match on the tool name")
}
