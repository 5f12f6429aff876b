package tracker

import "errors"

// Sentinel errors returned by the tracker.
var (
	ErrChannelNotFound = errors.New("channel has no task state")
	ErrTaskNotFound    = errors.New("task not found")
	ErrInvalidDays     = errors.New("invalid day count")
	ErrNoSession       = errors.New("no setup session")
	ErrEmptyTaskName   = errors.New("empty task name")
	ErrPromptExpired   = errors.New("prompt expired or unknown")

	// ErrUnexpectedAnswer is returned for an answer the prompt has no button for.
	ErrUnexpectedAnswer = errors.New("unexpected prompt answer")
)

// UserError is an error caused by user input. Its message is meant to be shown
// back to the user; Unwrap exposes the sentinel for errors.Is.
type UserError struct {
	Title   string
	Message string
	Err     error
}

func (e *UserError) Error() string { return e.Message }

func (e *UserError) Unwrap() error { return e.Err }

func userError(sentinel error, title, message string) error {
	return &UserError{Title: title, Message: message, Err: sentinel}
}
