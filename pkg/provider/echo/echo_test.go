package echo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gflights/pkg/provider"
	"gflights/pkg/tool"
	"gflights/pkg/types"
)

func TestEngine_Echo(t *testing.T) {
	e := New("Echo Agent")
	assert.Equal(t, "echo-Echo_Agent", e.Name())

	sess, err := e.StartSession(context.Background())
	require.NoError(t, err)

	resp, err := sess.Send(context.Background(), types.NewText(types.RoleUser, "hello"))
	require.NoError(t, err)
	assert.Equal(t, "Echo Agent hello", resp.Message.Text())
	assert.Equal(t, "stop", resp.FinishReason)

	resp, err = sess.Send(context.Background(), types.NewFunctionResponse(types.ToolResult{ToolName: "book", Payload: map[string]any{"ok": true}}))
	require.NoError(t, err)
	assert.Equal(t, `Echo Agent book: {"ok":true}`, resp.Message.Text())
	assert.Len(t, sess.History(), 4)
}

func TestEngine_Scripted(t *testing.T) {
	e := NewScripted(
		Call("get_search_flights2", map[string]any{"origin": "LAX"}, "Searching"),
		Text("done"),
	)

	sess, err := e.StartSession(context.Background(), provider.WithTools(nil, tool.Forced()))
	require.NoError(t, err)
	require.Len(t, e.Sessions(), 1)
	assert.True(t, e.Sessions()[0].Options.Policy.IsForced())

	resp, err := sess.Send(context.Background(), types.NewText(types.RoleUser, "find"))
	require.NoError(t, err)
	assert.Equal(t, "tool_calls", resp.FinishReason)
	require.Len(t, resp.Message.Parts, 2)
	assert.Equal(t, types.TextPart{Text: "Searching"}, resp.Message.Parts[0])

	_, err = sess.Send(context.Background(), types.NewText(types.RoleUser, "x"), provider.Relaxed())
	require.NoError(t, err)
	assert.Zero(t, e.Remaining())

	history := sess.History()
	require.Len(t, history, 5)
	closing, ok := history[2].FunctionResponse()
	require.True(t, ok, "the unanswered call is closed before the next user message")
	assert.Equal(t, "get_search_flights2", closing.ToolName)
	assert.Equal(t, provider.NoResult, closing.Payload)

	sends := e.Sessions()[0].Sends()
	require.Len(t, sends, 2)
	assert.False(t, sends[0].Relaxed)
	assert.True(t, sends[1].Relaxed)

	_, err = sess.Send(context.Background(), types.NewText(types.RoleUser, "y"))
	require.ErrorIs(t, err, ErrScriptExhausted)
}

func TestSession_HonoursCancelledContext(t *testing.T) {
	sess, err := New("").StartSession(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sess.Send(ctx, types.NewText(types.RoleUser, "hello"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sess.History())
}
