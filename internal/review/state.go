package review

import "errors"

var (
	// ErrInvalidTransition is returned when a trigger is not allowed in the
	// current state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrValidation is returned when the gate blocks a save
	ErrValidation = errors.New("validation failed")
)

// State is a step of the save confirmation flow
type State string

const (
	StateIdle      State = "IDLE"
	StateSummary   State = "SUMMARY"
	StateCommitted State = "COMMITTED"
)

func (s State) String() string {
	return string(s)
}

// IsTerminal returns true once no further transitions are allowed
func (s State) IsTerminal() bool {
	return s == StateCommitted
}

// Trigger is a user action that moves the flow
type Trigger string

const (
	TriggerSave    Trigger = "SAVE"
	TriggerConfirm Trigger = "CONFIRM"
	TriggerCancel  Trigger = "CANCEL"
)

func (t Trigger) String() string {
	return string(t)
}

// transitions lists every permitted move. Save is additionally guarded by
// the validation gate and Confirm by the persistence call.
var transitions = map[State]map[Trigger]State{
	StateIdle: {
		TriggerSave: StateSummary,
	},
	StateSummary: {
		TriggerConfirm: StateCommitted,
		TriggerCancel:  StateIdle,
	},
}

func next(from State, t Trigger) (State, bool) {
	to, ok := transitions[from][t]
	return to, ok
}
