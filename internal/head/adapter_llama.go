//go:build llama

package head

import (
	"context"
	"errors"
	"fmt"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"

	"edged/pkg/types"
)

// llamaBuilt indicates this binary was compiled with real llama support.
var llamaBuilt = true

// llamaAdapter runs the head pass through llama.cpp token embeddings.
type llamaAdapter struct {
	model    *llama.LLama
	threads  int
	embedDim int
}

// NewLlamaAdapter loads the head model from modelPath. embedDim must match
// the model's embedding width; a mismatch is reported on the first Run.
func NewLlamaAdapter(modelPath string, ctxSize, threads, embedDim int) (Adapter, error) {
	if strings.TrimSpace(modelPath) == "" {
		return nil, errors.New("head model path is empty")
	}
	m, err := llama.New(modelPath,
		llama.SetContext(ctxSize),
		llama.EnableEmbeddings,
	)
	if err != nil {
		return nil, fmt.Errorf("load head model: %w", err)
	}
	return &llamaAdapter{model: m, threads: threads, embedDim: embedDim}, nil
}

func (a *llamaAdapter) Ready() bool { return a.model != nil }

func (a *llamaAdapter) Run(ctx context.Context, ids []int) (types.Tensor, error) {
	if a.model == nil {
		return nil, ErrUnavailable("head model not initialized")
	}
	out := types.NewTensor(len(ids), a.embedDim)
	// One prefix pass per position: the embedding at position i is the model
	// state after consuming ids[:i+1].
	for i := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := a.model.TokenEmbeddings(ids[:i+1], llama.SetThreads(a.threads))
		if err != nil {
			return nil, fmt.Errorf("head pass at position %d: %w", i, err)
		}
		if len(vec) != a.embedDim {
			return nil, fmt.Errorf("head model produced dim %d, configured dim is %d", len(vec), a.embedDim)
		}
		copy(out[0][i], vec)
	}
	return out, nil
}
