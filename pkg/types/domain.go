package types

import "fmt"

// Tensor holds head-model output as batch x sequence x channel.
// Batch is always 1 in this protocol; the field layout is kept nested so the
// wire payload matches the peer's expected shape without reshaping.
type Tensor [][][]float32

// NewTensor allocates a zeroed 1 x seqLen x dim tensor.
func NewTensor(seqLen, dim int) Tensor {
	rows := make([][]float32, seqLen)
	for i := range rows {
		rows[i] = make([]float32, dim)
	}
	return Tensor{rows}
}

// SeqLen returns the sequence-position dimension, 0 for an empty tensor.
func (t Tensor) SeqLen() int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0])
}

// Dim returns the embedding-channel dimension, 0 for an empty tensor.
func (t Tensor) Dim() int {
	if t.SeqLen() == 0 {
		return 0
	}
	return len(t[0][0])
}

// Validate checks the batch=1 invariant and that every row has the same width.
func (t Tensor) Validate() error {
	if len(t) != 1 {
		return fmt.Errorf("tensor batch dimension must be 1, got %d", len(t))
	}
	dim := t.Dim()
	for i, row := range t[0] {
		if len(row) != dim {
			return fmt.Errorf("tensor row %d has width %d, want %d", i, len(row), dim)
		}
	}
	return nil
}

// OnesMask returns an all-ones attention mask of length n. Padding is never
// produced on this side, but the field is preserved for peers that pad.
func OnesMask(n int) []int {
	m := make([]int, n)
	for i := range m {
		m[i] = 1
	}
	return m
}
