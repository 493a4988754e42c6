package http1

import "errors"

var (
	// ErrMalformedRequest is returned for request heads that cannot be parsed.
	// The connection is closed without a response.
	ErrMalformedRequest = errors.New("malformed request")
	// ErrUnsupportedMethod is returned for methods other than GET and HEAD.
	ErrUnsupportedMethod = errors.New("unsupported method")
	// ErrPartialWrite is returned when the transport accepted fewer bytes than
	// requested. It is never retried: a transparent retry would change the
	// write boundary the reproduction depends on.
	ErrPartialWrite = errors.New("partial write")
)
