package cmd

import (
	"context"
	"errors"
)

// isInterrupt reports whether err is (or wraps) a context cancellation
// raised by signalhandler.WithCancelOnInterrupt, so Execute can map it
// to exit code 130 per SPEC_FULL.md §6 instead of the generic 1.
func isInterrupt(err error) bool {
	return errors.Is(err, context.Canceled)
}
