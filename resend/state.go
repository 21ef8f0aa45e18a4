package resend

// State is the position of a record in the retry state machine.
type State int

const (
	Pending State = iota
	Sent
	Succeeded
	Failed
	Exhausted
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Sent:
		return "sent"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Exhausted:
		return "exhausted"
	}
	return "unknown"
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == Succeeded || s == Exhausted
}

// Transition is a state change of one record.
type Transition struct {
	// Attempt is the zero-based attempt the record is at after the change.
	Attempt int
	From    State
	To      State
	// Err is the failure that caused the change, if any.
	Err error
}
