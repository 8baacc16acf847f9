package tracker

import "errors"

// Typed errors reported by lifecycle operations. Callers match with
// errors.Is and decide how to surface them; nothing here is retried.
var (
	// ErrMissingField signals a missing or empty required field.
	ErrMissingField = errors.New("missing required field")

	// ErrProjectNotFound signals an operation on an unknown project name.
	ErrProjectNotFound = errors.New("project not found")

	// ErrNoActiveSession signals stop/break/commit with no open session.
	ErrNoActiveSession = errors.New("no active session found")

	// ErrParentCycle signals a parent assignment that would nest deeper
	// than one level or loop back on itself.
	ErrParentCycle = errors.New("invalid parent project")
)
