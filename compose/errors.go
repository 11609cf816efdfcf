package compose

import "errors"

// ErrSubmitInFlight is returned when Submit is called while an earlier
// submission from the same workflow is still waiting for its response.
var ErrSubmitInFlight = errors.New("a submission is already in progress")

// ValidationError rejects a draft before any request is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
