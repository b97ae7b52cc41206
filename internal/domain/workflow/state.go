package workflow

// State is a lifecycle state of a simulated upload job
type State string

const (
	StatePending   State = "PENDING"
	StateCompleted State = "COMPLETED"
	StateFailed    State = "FAILED"
)

var validStates = map[State]bool{
	StatePending:   true,
	StateCompleted: true,
	StateFailed:    true,
}

// Completed and Failed are the only settled states; an item reaches exactly one of them.
var terminalStates = map[State]bool{
	StateCompleted: true,
	StateFailed:    true,
}

// IsTerminal returns true if no further transitions are allowed from the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}
