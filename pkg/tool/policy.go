package tool

import (
	"fmt"
	"slices"
)

// CallingMode tells the chat engine whether it must pick a tool.
type CallingMode string

const (
	// ModeAuto lets the model answer in text or call a tool.
	ModeAuto CallingMode = "auto"
	// ModeForced requires the model to call one of the allowed tools.
	ModeForced CallingMode = "any"
)

// CallingPolicy is the function-calling configuration handed to the engine.
// In forced mode an empty Allowed set means every registered tool is eligible.
type CallingPolicy struct {
	Mode    CallingMode
	Allowed []string
}

// Forced returns a policy that requires a call to one of allowed,
// or to any registered tool when allowed is empty.
func Forced(allowed ...string) CallingPolicy {
	return CallingPolicy{Mode: ModeForced, Allowed: allowed}
}

// Auto returns a policy that leaves the choice to the model.
func Auto() CallingPolicy {
	return CallingPolicy{Mode: ModeAuto}
}

// IsForced reports whether the policy requires a tool call.
func (p CallingPolicy) IsForced() bool {
	return p.Mode == ModeForced
}

// Allows reports whether the named tool may be offered to the model.
func (p CallingPolicy) Allows(name string) bool {
	if len(p.Allowed) == 0 {
		return true
	}
	return slices.Contains(p.Allowed, name)
}

// Validate checks the mode and that every allowed name is registered.
func (p CallingPolicy) Validate(r *Registry) error {
	switch p.Mode {
	case ModeAuto, ModeForced:
	default:
		return fmt.Errorf("invalid calling mode %q", p.Mode)
	}
	for _, name := range p.Allowed {
		if !r.Has(name) {
			return &UnknownToolError{Name: name}
		}
	}
	return nil
}
