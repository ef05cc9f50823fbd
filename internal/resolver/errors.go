package resolver

import (
	"errors"
)

// Validation failures. They are raised before any write reaches the collaborator.
var (
	ErrCannotLog         = errors.New("task cannot be logged")
	ErrScheduleNotFound  = errors.New("schedule not found")
	ErrRunningTaskExists = errors.New("running task exists")
	ErrAlreadyEnded      = errors.New("already ended")
	ErrNotStarted        = errors.New("not started")
	ErrNotStartedYet     = errors.New("not started yet")
	ErrEndBeforeStart    = errors.New("end before start")
	ErrInvalidWindow     = errors.New("end time must be after start time")
)

var messages = map[error]string{
	ErrCannotLog:         "This task cannot be logged right now.",
	ErrScheduleNotFound:  "The selected schedule does not belong to this task.",
	ErrRunningTaskExists: "Please end the running task first.",
	ErrAlreadyEnded:      "You have already ended this task.",
	ErrNotStarted:        "You have not started this task yet.",
	ErrNotStartedYet:     "You cannot end a task that has not started yet.",
	ErrEndBeforeStart:    "End time cannot be before start time.",
	ErrInvalidWindow:     "End time must be after start time.",
}

// ValidationError is a user-facing rejection. Message is shown as is; Err keeps
// the sentinel for errors.Is.
type ValidationError struct {
	Err     error
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid wraps err as a ValidationError, reusing the canned message for known sentinels.
func Invalid(err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return err
	}
	msg, ok := messages[err]
	if !ok {
		msg = err.Error()
	}
	return &ValidationError{Err: err, Message: msg}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
