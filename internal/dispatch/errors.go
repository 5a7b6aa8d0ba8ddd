package dispatch

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidSelection covers unknown ordinals, malformed input and
	// empty listings. It is reported and the menu loop carries on.
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrNotFound is returned when an ordinal does not index the listing.
	ErrNotFound = fmt.Errorf("%w: no entry at that position", ErrInvalidSelection)

	// ErrDeclined is returned when the confirmation gate is not passed.
	ErrDeclined = errors.New("operation cancelled")
)

// ToolError is a failure reported by a backing system.
type ToolError struct {
	Op  string
	Err error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// ExternalFailure wraps err as a ToolError unless it already carries one of
// the recoverable sentinels.
func ExternalFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidSelection) || errors.Is(err, ErrDeclined) {
		return err
	}
	var te *ToolError
	if errors.As(err, &te) {
		return err
	}
	return &ToolError{Op: op, Err: err}
}

// Invalid returns an ErrInvalidSelection carrying a message for the operator.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSelection, fmt.Sprintf(format, args...))
}
