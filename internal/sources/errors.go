package sources

import "errors"

var (
	// ErrUpstreamUnavailable means the upstream could not be reached or
	// answered with a non-success status
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrUpstreamError means the upstream answered but the body was malformed
	ErrUpstreamError = errors.New("upstream returned a malformed response")
)
