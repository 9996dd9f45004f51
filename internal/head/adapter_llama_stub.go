//go:build !llama

package head

// This file provides a no-CGO stub for the llama head adapter. It is compiled
// when the 'llama' build tag is NOT set, keeping default builds and CI
// CGO-free. The real adapter lives in adapter_llama.go (tagged 'llama').

import (
	"context"

	"edged/pkg/types"
)

// llamaBuilt indicates this binary was compiled without real llama support.
var llamaBuilt = false

type llamaAdapter struct{}

// NewLlamaAdapter returns a stub that satisfies Adapter but refuses to run.
// No mocked tensors in production binaries: callers get a clear
// dependency-unavailable error instead.
func NewLlamaAdapter(modelPath string, ctxSize, threads, embedDim int) (Adapter, error) {
	return &llamaAdapter{}, nil
}

func (a *llamaAdapter) Ready() bool { return false }

func (a *llamaAdapter) Run(ctx context.Context, ids []int) (types.Tensor, error) {
	return nil, ErrUnavailable("head inference requires a binary built with -tags=llama")
}
