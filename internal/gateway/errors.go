package gateway

import "errors"

// ErrUnavailable is returned when no connection resource could be
// established after the bounded attempt sequence.
var ErrUnavailable = errors.New("no database connection available")

// TransientError wraps a classified-transient failure that survived
// the single rebuild-and-retry.
type TransientError struct {
	cause error
}

func (e *TransientError) Error() string {
	return "transient database failure: " + e.cause.Error()
}

func (e *TransientError) Unwrap() error {
	return e.cause
}

// QueryError wraps a non-transient database error. The original cause
// is preserved for callers that inspect driver error codes.
type QueryError struct {
	cause error
}

func (e *QueryError) Error() string {
	return e.cause.Error()
}

func (e *QueryError) Unwrap() error {
	return e.cause
}
