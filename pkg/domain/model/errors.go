package model

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for the failure taxonomy. Handlers match these with
// errors.Is to choose user-facing wording; the sweep uses them to decide
// between skipping a pair and aborting a pass.
var (
	// ErrLookupUnavailable means a record-resolution call failed or timed out.
	// It is recovered per pair or per interaction and never mutates state.
	ErrLookupUnavailable = goerr.New("record lookup unavailable")

	// ErrTransportFailure means a message could not be delivered to the
	// subscriber. Notification state is left untouched so the next sweep
	// retries the send.
	ErrTransportFailure = goerr.New("message delivery failed")

	// ErrStoreUnavailable means the subscription store could not be reached
	ErrStoreUnavailable = goerr.New("subscription store unavailable")

	// ErrInvalidInput means malformed user input (bad address, empty text,
	// stale positional reference)
	ErrInvalidInput = goerr.New("invalid input")

	// ErrStaleSession means an action arrived without the session state it
	// requires, e.g. a track confirmation with no staged record
	ErrStaleSession = goerr.New("stale session state")
)
