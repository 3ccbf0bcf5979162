package policy

import "errors"

var (
	// ErrUnknownMode is returned when a mode name has no built-in profile.
	ErrUnknownMode = errors.New("unknown mode")
)
