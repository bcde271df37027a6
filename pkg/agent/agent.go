package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/looplab/fsm"

	"gflights/pkg/memory"
	"gflights/pkg/provider"
	"gflights/pkg/tool"
	"gflights/pkg/types"
)

// SearchFailed is the answer shown when a tool produced an empty payload.
const SearchFailed = "Search Failed"

// Config describes how an Agent is assembled.
type Config struct {
	Session  provider.Session
	Executor *tool.Executor
	Memory   memory.Store
	Logger   *slog.Logger
}

// Agent drives one user query at a time through the model, an optional tool
// invocation, and the model's follow-up, recording completed turns in memory.
type Agent struct {
	session  provider.Session
	executor *tool.Executor
	memory   memory.Store
	logger   *slog.Logger

	mu      sync.Mutex
	machine *fsm.FSM
}

// New builds an Agent and wires defaults.
func New(cfg Config) (*Agent, error) {
	if cfg.Session == nil {
		return nil, fmt.Errorf("session is required")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}

	mem := cfg.Memory
	if mem == nil {
		transcript, err := memory.NewTranscript()
		if err != nil {
			return nil, err
		}
		mem = transcript
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Agent{
		session:  cfg.Session,
		executor: cfg.Executor,
		memory:   mem,
		logger:   logger,
		machine:  newTurnMachine(logger),
	}, nil
}

// Run sends input to the model and resolves the reply to display text.
// opts apply to the user message only. The (user, model) pair is appended to
// memory only when the turn completes; on error nothing is recorded.
func (a *Agent) Run(ctx context.Context, input string, opts ...provider.SendOption) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.machine.SetState(StateAwaitingInput)
	a.logger.Debug("sending user message", "input", input)

	resp, err := a.session.Send(ctx, types.NewText(types.RoleUser, input), opts...)
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	if err := a.fire(ctx, eventSend); err != nil {
		return "", err
	}
	a.logger.Debug("model responded",
		"shape", Shape(resp.Message), "finish_reason", resp.FinishReason, "total_tokens", resp.Usage.TotalTokens)

	output, err := a.resolve(ctx, resp.Message)
	if err != nil {
		return "", err
	}

	if err := a.memory.Append(
		memory.Entry{Role: types.RoleUser, Content: input},
		memory.Entry{Role: types.RoleModel, Content: output},
	); err != nil {
		return "", fmt.Errorf("record turn: %w", err)
	}
	return output, nil
}

func (a *Agent) resolve(ctx context.Context, turn types.Message) (string, error) {
	outcome, err := Classify(turn)
	if err != nil {
		return "", err
	}

	switch o := outcome.(type) {
	case TextOutcome:
		if err := a.fire(ctx, eventReplyText); err != nil {
			return "", err
		}
		return o.Text, nil
	case ToolCallOutcome:
		return a.dispatch(ctx, o)
	default:
		return "", fmt.Errorf("unhandled outcome %T", outcome)
	}
}

func (a *Agent) dispatch(ctx context.Context, o ToolCallOutcome) (string, error) {
	if err := a.fire(ctx, eventRequestTool); err != nil {
		return "", err
	}
	a.logger.Debug("function call", "index", o.Index, "name", o.Call.Name, "args", o.Call.Args)

	res := a.executor.Execute(ctx, o.Call)
	if res.Error != nil {
		return "", fmt.Errorf("execute %s: %w", o.Call.Name, res.Error)
	}
	a.logger.Debug("function result", "name", o.Call.Name, "duration", res.Duration, "payload", res.Result.Payload)

	if res.Empty() {
		if err := a.fire(ctx, eventEmptyResult); err != nil {
			return "", err
		}
		return SearchFailed, nil
	}

	if err := a.fire(ctx, eventInject); err != nil {
		return "", err
	}
	follow, err := a.session.Send(ctx, types.NewFunctionResponse(res.Result))
	if err != nil {
		return "", fmt.Errorf("send function response: %w", err)
	}
	if err := a.fire(ctx, eventReceive); err != nil {
		return "", err
	}
	a.logger.Debug("follow-up received", "shape", Shape(follow.Message), "finish_reason", follow.FinishReason)

	text, err := FollowUpText(follow.Message)
	if err != nil {
		return "", err
	}
	if err := a.fire(ctx, eventFinish); err != nil {
		return "", err
	}
	return text, nil
}

func (a *Agent) fire(ctx context.Context, event string) error {
	if err := a.machine.Event(ctx, event); err != nil {
		return fmt.Errorf("turn state %s: %w", a.machine.Current(), err)
	}
	return nil
}

// State reports the state the last turn reached.
func (a *Agent) State() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.machine.Current()
}

// History returns a copy of the remembered conversation.
func (a *Agent) History() []memory.Entry {
	return a.memory.All()
}
