package host

import (
	"errors"
	"fmt"
)

// Error types reported by host platform integrations.
var (
	// ErrUnimplemented means the current platform has no implementation for
	// the requested capability. It is never a transient failure.
	ErrUnimplemented = errors.New("not implemented on this platform")

	// ErrServiceUnavailable means the host integration has not been started.
	ErrServiceUnavailable = errors.New("host service not available")
)

// PublishError wraps a failure of a call into the host platform.
type PublishError struct {
	Op  string
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// Wrap returns err as a *PublishError for op. Nil stays nil and errors that
// already carry a PublishError are returned unchanged.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PublishError
	if errors.As(err, &pe) {
		return err
	}
	return &PublishError{Op: op, Err: err}
}

// IsUnimplemented reports whether err means "platform does not support this"
// rather than a transient failure.
func IsUnimplemented(err error) bool {
	return errors.Is(err, ErrUnimplemented)
}
