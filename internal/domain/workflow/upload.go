package workflow

import "sync"

var (
	uploadOnce    sync.Once
	uploadBuilder StateMachineBuilder
)

// UploadLifecycle returns the shared rule set for upload items:
// PENDING moves to COMPLETED on SETTLE or to FAILED on FAIL, and nothing leaves a settled state.
func UploadLifecycle() StateMachineBuilder {
	uploadOnce.Do(func() {
		b := NewBuilder()
		b.Configure(StatePending).
			Permit(TriggerSettle, StateCompleted).
			Permit(TriggerFail, StateFailed)
		uploadBuilder = b
	})
	return uploadBuilder
}

// NewUploadMachine builds a lifecycle machine positioned at state
func NewUploadMachine(state State) StateMachine {
	return UploadLifecycle().Build(state)
}
