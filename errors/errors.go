package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput  = fmt.Errorf("invalid input")
	ErrUsernameTaken = fmt.Errorf("username is already taken in this room")
	ErrAlreadyJoined = fmt.Errorf("connection already joined a room")
	ErrNotJoined     = fmt.Errorf("connection has not joined a room")
	ErrSlowConsumer  = fmt.Errorf("outbound buffer full")
	ErrWorkerPanic   = fmt.Errorf("worker panic")
	ErrEmptyWords    = fmt.Errorf("no words have been found")
)

// Wire codes carried by error events sent back to the triggering connection.
const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodeUsernameTaken = "USERNAME_TAKEN"
	CodeAlreadyJoined = "ALREADY_JOINED"
	CodeNotJoined     = "NOT_JOINED"
)

// CodeOf maps a registry or validation failure to its wire code.
// Anything unrecognized is reported as INVALID_INPUT.
func CodeOf(err error) string {
	switch {
	case errors.Is(err, ErrUsernameTaken):
		return CodeUsernameTaken
	case errors.Is(err, ErrAlreadyJoined):
		return CodeAlreadyJoined
	case errors.Is(err, ErrNotJoined):
		return CodeNotJoined
	default:
		return CodeInvalidInput
	}
}
