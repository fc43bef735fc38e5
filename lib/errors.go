package lib

import (
	"context"
	"errors"

	"github.com/gravitational/trace"
)

// IsCanceled reports whether err was caused by a canceled context.
func IsCanceled(err error) bool {
	return trace.Unwrap(err) == context.Canceled || errors.Is(err, context.Canceled)
}

// IsDeadline reports whether err was caused by an expired context deadline.
func IsDeadline(err error) bool {
	return trace.Unwrap(err) == context.DeadlineExceeded || errors.Is(err, context.DeadlineExceeded)
}
