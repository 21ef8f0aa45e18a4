package resend

import (
	"fmt"

	"github.com/heetch/courier/delivery"
)

// ExhaustedError is the terminal error of a record that was given up on.
type ExhaustedError struct {
	// Attempts is the number of times the record was sent.
	Attempts int
	// Err is the failure of the last attempt.
	Err error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Is makes every ExhaustedError match delivery.ErrExhausted.
func (e *ExhaustedError) Is(target error) bool {
	return target == delivery.ErrExhausted
}
