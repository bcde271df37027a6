package agent

import (
	"context"
	"log/slog"

	"github.com/looplab/fsm"
)

// Turn states.
const (
	StateAwaitingInput      = "awaiting_user_input"
	StateModelResponded     = "model_responded"
	StateToolDispatch       = "tool_dispatch"
	StateToolResultInjected = "tool_result_injected"
	StateFollowUpReceived   = "followup_received"
	StateDone               = "done"
)

// Turn events.
const (
	eventSend        = "send"
	eventReplyText   = "reply_text"
	eventRequestTool = "request_tool"
	eventInject      = "inject"
	eventEmptyResult = "empty_result"
	eventReceive     = "receive"
	eventFinish      = "finish"
)

func newTurnMachine(logger *slog.Logger) *fsm.FSM {
	return fsm.NewFSM(
		StateAwaitingInput,
		fsm.Events{
			{Name: eventSend, Src: []string{StateAwaitingInput}, Dst: StateModelResponded},
			{Name: eventReplyText, Src: []string{StateModelResponded}, Dst: StateDone},
			{Name: eventRequestTool, Src: []string{StateModelResponded}, Dst: StateToolDispatch},
			{Name: eventInject, Src: []string{StateToolDispatch}, Dst: StateToolResultInjected},
			{Name: eventEmptyResult, Src: []string{StateToolDispatch}, Dst: StateDone},
			{Name: eventReceive, Src: []string{StateToolResultInjected}, Dst: StateFollowUpReceived},
			{Name: eventFinish, Src: []string{StateFollowUpReceived}, Dst: StateDone},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				logger.Debug("turn state", "event", e.Event, "from", e.Src, "to", e.Dst)
			},
		},
	)
}
