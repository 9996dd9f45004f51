package session

import "errors"

// preconditionError signals a request that never started: empty prompt, no
// vocabulary loaded. Maps to 400 at the HTTP boundary.
type preconditionError struct{ msg string }

func (e preconditionError) Error() string { return e.msg }

// ErrPrecondition constructs a preconditionError.
func ErrPrecondition(msg string) error { return preconditionError{msg: msg} }

// IsPrecondition reports whether err is a failed request precondition.
func IsPrecondition(err error) bool {
	var e preconditionError
	return errors.As(err, &e)
}

// busyError signals that a session is already in flight. New requests are
// rejected, never queued.
type busyError struct{}

func (busyError) Error() string { return "a session is already in flight" }

// ErrBusy constructs a busyError.
func ErrBusy() error { return busyError{} }

// IsBusy reports whether err indicates an active session rejected the request.
func IsBusy(err error) bool {
	var e busyError
	return errors.As(err, &e)
}

// adapterError wraps a head-model failure. Not retried within the session.
type adapterError struct{ cause error }

func (e adapterError) Error() string { return "head inference: " + e.cause.Error() }
func (e adapterError) Unwrap() error { return e.cause }

// ErrAdapter wraps cause as a head-model failure.
func ErrAdapter(cause error) error { return adapterError{cause: cause} }

// IsAdapter reports whether err came from the head inference adapter.
func IsAdapter(err error) bool {
	var e adapterError
	return errors.As(err, &e)
}

// connectionError wraps a dial, send, or non-protocol receive failure.
type connectionError struct{ cause error }

func (e connectionError) Error() string { return "peer connection: " + e.cause.Error() }
func (e connectionError) Unwrap() error { return e.cause }

// ErrConnection constructs a connectionError.
func ErrConnection(cause error) error { return connectionError{cause: cause} }

// IsConnection reports whether err is a transport-level failure.
func IsConnection(err error) bool {
	var e connectionError
	return errors.As(err, &e)
}
