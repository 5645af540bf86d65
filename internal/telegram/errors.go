package telegram

import (
	"errors"
	"fmt"
)

// Transport errors for the recommendation RPC.
// These errors are the complete typed failure set the fetcher absorbs;
// nothing past the fetcher ever sees them.
//
// Design decision: We define specific error values rather than wrapping all
// errors generically. The fetcher handles each failure mode differently
// (log level, flood-wait sleep), so callers need errors.Is/As to
// discriminate.
var (
	// ErrInvalidPeer is returned when the channel identifier is malformed
	// or does not resolve to any peer the gateway knows about.
	ErrInvalidPeer = errors.New("invalid channel identifier")

	// ErrPrivateChannel is returned when the target channel is private or
	// the session lacks permission to read its recommendations.
	ErrPrivateChannel = errors.New("channel is private or forbidden")

	// ErrNotConnected is returned when an RPC is issued before Connect or
	// after Close.
	ErrNotConnected = errors.New("client is not connected")

	// ErrNotAuthorized is returned by Connect when the gateway session
	// exists but holds no authorized account. Authentication itself is a
	// precondition, not something this package performs.
	ErrNotAuthorized = errors.New("gateway session is not authorized")
)

// FloodWaitError is returned when the platform signals a rate limit with a
// server-specified wait duration. The fetcher sleeps for Seconds+1 and
// degrades the call to zero results; it never retries the same call.
type FloodWaitError struct {
	// Seconds is the server-mandated wait before the next request.
	Seconds int
}

// Error implements the error interface.
func (e *FloodWaitError) Error() string {
	return fmt.Sprintf("flood wait: retry after %d seconds", e.Seconds)
}
