package workflow

import "errors"

var (
	// ErrInvalidTransition means the trigger is not configured for the current state,
	// including any trigger fired on a settled item
	ErrInvalidTransition = errors.New("upload status transition not permitted")

	// ErrGuardFailed means every guarded transition for the trigger refused
	ErrGuardFailed = errors.New("upload status guard refused")
)
