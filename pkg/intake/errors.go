package intake

import "errors"

// Sentinel errors for the intake package.
var (
	// ErrInvalidArgs indicates a tool call carried unusable arguments.
	ErrInvalidArgs = errors.New("intake: invalid tool arguments")

	// ErrNoRecipient indicates a follow-up had no address to send to.
	ErrNoRecipient = errors.New("intake: no follow-up recipient")
)
