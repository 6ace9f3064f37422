package llm

import "errors"

var (
	// ErrUpstream indicates the completion service was unreachable, returned an
	// error status, or produced no usable text.
	ErrUpstream = errors.New("completion service error")

	// ErrTimeout indicates a completion call exceeded its configured timeout.
	ErrTimeout = errors.New("completion service timed out")

	// ErrParse tags model output that could not be decoded as JSON.
	ErrParse = errors.New("unparseable model output")
)
