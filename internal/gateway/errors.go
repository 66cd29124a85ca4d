package gateway

import "errors"

// Failure taxonomy for remote operations. Every gateway error wraps exactly
// one of these so callers can classify with errors.Is.
var (
	// ErrNetwork covers rejected requests and non-success HTTP statuses.
	ErrNetwork = errors.New("network failure")
	// ErrDecode covers response bodies the client cannot parse.
	ErrDecode = errors.New("decode failure")
)
