package safeurl

import "errors"

// Guard violation errors.
//
// Design decision: We keep two distinct sentinels instead of a single
// "blocked" error because telemetry needs to distinguish malformed input
// (likely user error) from unsafe targets (likely probing attempts).
// Callers can use errors.Is() on either.
var (
	// ErrInvalidURL is returned for empty, oversized, unparsable input or
	// input using a scheme outside {http, https}.
	ErrInvalidURL = errors.New("invalid url")

	// ErrUnsafeTarget is returned when the URL parses cleanly but points at
	// a private, loopback, link-local, or metadata address. Requests to
	// such targets must never leave the process.
	ErrUnsafeTarget = errors.New("unsafe target")
)
