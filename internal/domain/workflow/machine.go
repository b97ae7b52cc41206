package workflow

import "context"

// StateMachine tracks the current state of one item and validates transitions
type StateMachine interface {
	State() State

	// CanFire returns true if the trigger is permitted in the current state
	CanFire(trigger Trigger) bool

	// Fire executes the trigger, moving to the target state if allowed
	Fire(ctx context.Context, trigger Trigger) error

	PermittedTriggers() []Trigger
}
