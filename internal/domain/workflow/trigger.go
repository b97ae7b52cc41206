package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	// TriggerSettle is fired by the scheduler when an upload finishes successfully
	TriggerSettle Trigger = "SETTLE"
	// TriggerFail is fired when an injected failure aborts the upload
	TriggerFail Trigger = "FAIL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
