// Package errs defines the failure kinds shared by the enrichment pipeline
// and the policy that decides which of them abort a run.
package errs

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrParse        = errors.New("parse error")
	ErrNotFound     = errors.New("not found")
	ErrTransport    = errors.New("transport error")
	ErrDecode       = errors.New("decode error")
	ErrCredential   = errors.New("credential error")
	ErrIO           = errors.New("io error")
	ErrInvalidInput = errors.New("invalid input")
	ErrProviderDown = errors.New("provider unavailable")
	ErrLocked       = errors.New("output directory locked by another run")
)

// Error ties an underlying cause to one of the kinds above.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// New wraps cause with kind. A nil cause is allowed.
func New(kind error, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Newf is New with a formatted cause.
func Newf(kind error, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Kind returns the sentinel kind of err, or nil if err carries none.
func Kind(err error) error {
	for _, k := range []error{
		ErrCredential, ErrIO, ErrProviderDown, ErrLocked,
		ErrNotFound, ErrTransport, ErrDecode, ErrParse, ErrInvalidInput,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Fatal reports whether err must abort the whole run instead of only the
// record it occurred for.
func Fatal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return true
	case errors.Is(err, ErrCredential), errors.Is(err, ErrIO),
		errors.Is(err, ErrProviderDown), errors.Is(err, ErrLocked):
		return true
	}
	return false
}
