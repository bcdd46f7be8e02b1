package waiter

import (
	"fmt"
)

// Error is returned when confirmation lifecycle fails. State is the final
// state, Err matches one of txerr categories.
type Error struct {
	TxID  string
	State State
	Err   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.TxID == "" {
		return fmt.Sprintf("%s: %v", e.State, e.Err)
	}
	return fmt.Sprintf("tx %s: %s: %v", e.TxID, e.State, e.Err)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Submitted returns true if the node accepted the transaction before the
// failure. Such transaction should be re-queried by its id, not resubmitted.
func (e *Error) Submitted() bool {
	return e.TxID != ""
}
