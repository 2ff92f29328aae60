// Package workflow models the approval lifecycle of a work request as a
// guarded state machine.
package workflow

import (
	"context"
	"errors"
	"fmt"
)

// State is a position in the request lifecycle. APPROVED, REJECTED and
// CANCELLED are terminal.
type State string

const (
	StatePending    State = "PENDING"
	StateInProgress State = "IN_PROGRESS"
	StateApproved   State = "APPROVED"
	StateRejected   State = "REJECTED"
	StateCancelled  State = "CANCELLED"
)

func (s State) String() string { return string(s) }

// IsValid reports whether s is one of the five lifecycle states.
func (s State) IsValid() bool {
	switch s {
	case StatePending, StateInProgress, StateApproved, StateRejected, StateCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no trigger can move the request further.
func (s State) IsTerminal() bool {
	switch s {
	case StateApproved, StateRejected, StateCancelled:
		return true
	}
	return false
}

// Trigger names the decision that moves a request between states.
type Trigger string

const (
	TriggerApprove       Trigger = "APPROVE"
	TriggerReject        Trigger = "REJECT"
	TriggerCancel        Trigger = "CANCEL"
	TriggerConfirmPickup Trigger = "CONFIRM_PICKUP"
)

var (
	// ErrInvalidTransition means no rule permits the trigger from the current state.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrGuardFailed means matching rules exist but every guard declined.
	ErrGuardFailed = errors.New("guard condition failed")
)

// Guard decides at fire time whether a transition may be taken.
type Guard func(ctx context.Context) bool

// Rule permits one trigger to move the machine between two states. A nil
// When makes the rule unconditional. Several rules may share a from-state
// and trigger; the first whose guard passes wins.
type Rule struct {
	From    State
	Trigger Trigger
	To      State
	When    Guard
}

// Machine is a work request lifecycle positioned at a current state. Rules
// are authored in code, so a rule naming an unknown state panics at
// construction. The initial state comes from storage and is only checked
// when a trigger fires: an unknown state simply permits nothing.
type Machine struct {
	state State
	rules []Rule
}

// NewMachine returns a machine positioned at initial.
func NewMachine(initial State, rules []Rule) *Machine {
	for _, r := range rules {
		if !r.From.IsValid() || !r.To.IsValid() {
			panic(fmt.Sprintf("workflow: rule %s -> %s names an unknown state", r.From, r.To))
		}
	}
	return &Machine{state: initial, rules: rules}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// CanFire reports whether any rule permits the trigger from the current
// state. Guards are not evaluated.
func (m *Machine) CanFire(trigger Trigger) bool {
	for _, r := range m.rules {
		if r.From == m.state && r.Trigger == trigger {
			return true
		}
	}
	return false
}

// Fire applies the trigger, moving to the target of the first matching rule
// whose guard passes. It returns ErrInvalidTransition when no rule matches
// and ErrGuardFailed when rules match but every guard declines. The state
// is unchanged on error.
func (m *Machine) Fire(ctx context.Context, trigger Trigger) error {
	matched := false
	for _, r := range m.rules {
		if r.From != m.state || r.Trigger != trigger {
			continue
		}
		matched = true
		if r.When == nil || r.When(ctx) {
			m.state = r.To
			return nil
		}
	}
	if !matched {
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, trigger, m.state)
	}
	return fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, m.state)
}
