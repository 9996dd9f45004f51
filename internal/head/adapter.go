// Package head defines the on-device partial-pass ("head model") contract.
// The orchestrator consumes it as a black box: token ids in, one embedding
// tensor out, synchronously. A failed run aborts the session; there is no
// fallback tensor and no retry.
package head

import (
	"context"
	"errors"

	"edged/pkg/types"
)

// Adapter abstracts the head-model runtime.
type Adapter interface {
	// Run computes embeddings for the given token ids. The returned tensor is
	// batch(1) x len(ids) x embedding dim and is owned by the caller.
	Run(ctx context.Context, ids []int) (types.Tensor, error)
	// Ready reports whether this build can actually run the head model.
	Ready() bool
}

// unavailableError signals that the head runtime is not compiled in or not
// initialized, so the HTTP layer can answer 503 instead of 500.
type unavailableError struct{ msg string }

func (e unavailableError) Error() string { return e.msg }

// ErrUnavailable constructs an unavailableError.
func ErrUnavailable(msg string) error { return unavailableError{msg: msg} }

// IsUnavailable reports whether err indicates a missing head runtime. The
// session wraps adapter failures, so this must see through Unwrap chains.
func IsUnavailable(err error) bool {
	var e unavailableError
	return errors.As(err, &e)
}
