package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gflights/pkg/types"
)

func model(parts ...types.Part) types.Message {
	return types.Message{Role: types.RoleModel, Parts: parts}
}

func call(name string, args map[string]any) types.FunctionCallPart {
	return types.FunctionCallPart{Call: types.ToolCall{Name: name, Args: args}}
}

func TestClassify(t *testing.T) {
	search := call("get_search_flights2", map[string]any{"origin": "SFO"})

	tests := []struct {
		name    string
		turn    types.Message
		want    Outcome
		wantErr string
	}{
		{
			name: "single call",
			turn: model(search),
			want: ToolCallOutcome{Index: 0, Call: search.Call},
		},
		{
			name: "text then call",
			turn: model(types.TextPart{Text: "Let me look."}, search),
			want: ToolCallOutcome{Index: 1, Call: search.Call},
		},
		{
			name: "single text",
			turn: model(types.TextPart{Text: "Hi!"}),
			want: TextOutcome{Text: "Hi!"},
		},
		{
			name: "several texts keep the first",
			turn: model(types.TextPart{Text: "one"}, types.TextPart{Text: "two"}),
			want: TextOutcome{Text: "one"},
		},
		{
			name: "zero-argument call is still a call",
			turn: model(call("list_airports", nil)),
			want: ToolCallOutcome{Index: 0, Call: types.ToolCall{Name: "list_airports", Args: map[string]any{}}},
		},
		{name: "empty turn", turn: model(), wantErr: "[]"},
		{name: "call then text", turn: model(search, types.TextPart{Text: "x"}), wantErr: "[call text]"},
		{name: "two calls", turn: model(search, search), wantErr: "[call call]"},
		{name: "text text call", turn: model(types.TextPart{}, types.TextPart{}, search), wantErr: "[text text call]"},
		{name: "function response", turn: model(types.FunctionResponsePart{}), wantErr: "[response]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.turn)
			if tt.wantErr != "" {
				require.ErrorIs(t, err, ErrMalformedTurn)
				var mt *MalformedTurnError
				require.ErrorAs(t, err, &mt)
				assert.Equal(t, tt.wantErr, mt.Shape)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFollowUpText(t *testing.T) {
	text, err := FollowUpText(model(types.TextPart{Text: "Found 2 flights"}, types.TextPart{Text: "more"}))
	require.NoError(t, err)
	assert.Equal(t, "Found 2 flights", text)

	text, err = FollowUpText(model(call("book_flight_declaration", nil), types.TextPart{Text: "Booked"}))
	require.NoError(t, err)
	assert.Equal(t, "Booked", text)

	_, err = FollowUpText(model(call("book_flight_declaration", nil)))
	require.ErrorIs(t, err, ErrMalformedTurn)
}
