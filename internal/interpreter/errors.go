package interpreter

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnrecognizedCommand is returned when neither interpretation stage
	// produced a usable intent.
	ErrUnrecognizedCommand = errors.New("could not understand the command")

	// ErrUnknownAction is returned when a parsed intent carries an action
	// outside the closed set of permitted values.
	ErrUnknownAction = errors.New("unknown action")

	// ErrNoAPIKey is returned when the generative parser is constructed
	// without an API key.
	ErrNoAPIKey = errors.New("generative parser API key is empty")

	// ErrEmptyResponse is returned when the generative backend answered
	// without any candidate text.
	ErrEmptyResponse = errors.New("generative backend returned an empty response")
)

// CommandExamples are shown to callers whose command could not be understood.
var CommandExamples = []string{
	"Create a permission for managing users",
	"Make a new role called Supervisor",
	"Give the Editor role permission to edit content",
}

// ValidationError reports the required fields missing from a parsed intent.
type ValidationError struct {
	Action  Action
	Missing []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("intent %s is missing required field(s): %s",
		e.Action, strings.Join(e.Missing, ", "))
}
