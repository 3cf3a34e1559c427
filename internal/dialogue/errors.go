package dialogue

import "errors"

var (
	// ErrTurnInProgress is returned when a turn is submitted while another is awaiting a reply.
	ErrTurnInProgress = errors.New("dialogue: turn already in progress")
	// ErrInvalidPhase is returned when an action is not legal in the current phase.
	ErrInvalidPhase = errors.New("dialogue: action not valid in current phase")
	// ErrBackend marks failures of the dialogue backend or plan regeneration.
	ErrBackend = errors.New("dialogue: backend request failed")
	// ErrEmptyInput is returned for blank topics, replies, or feedback.
	ErrEmptyInput = errors.New("dialogue: input required")
)
