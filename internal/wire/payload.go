package wire

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"edged/pkg/types"
)

// payload is the request frame body: the full head-model tensor plus the
// attention mask, uncompressed. JSON keeps the body a superset of ASCII so
// the frame length in bytes is unambiguous.
type payload struct {
	InputEmbeddings types.Tensor `json:"input_embeddings"`
	AttentionMask   []int        `json:"attention_mask"`
}

// EncodePayload serializes the tensor and mask into a request frame body.
// The mask length must match the tensor's sequence dimension.
func EncodePayload(t types.Tensor, mask []int) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if len(mask) != t.SeqLen() {
		return nil, fmt.Errorf("attention mask length %d does not match sequence length %d", len(mask), t.SeqLen())
	}
	b, err := json.Marshal(payload{InputEmbeddings: t, AttentionMask: mask})
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return b, nil
}

// DecodePayload parses a request frame body back into tensor and mask. This
// is the peer-side inverse of EncodePayload.
func DecodePayload(b []byte) (types.Tensor, []int, error) {
	var p payload
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, nil, ErrDecode(err.Error())
	}
	if err := p.InputEmbeddings.Validate(); err != nil {
		return nil, nil, ErrDecode(err.Error())
	}
	if len(p.AttentionMask) != p.InputEmbeddings.SeqLen() {
		return nil, nil, ErrDecode(fmt.Sprintf("mask length %d does not match sequence length %d",
			len(p.AttentionMask), p.InputEmbeddings.SeqLen()))
	}
	return p.InputEmbeddings, p.AttentionMask, nil
}

// DecodeText interprets a response frame body as generated text. The body
// must be valid UTF-8; anything else fails with a decode error and the bytes
// are discarded.
func DecodeText(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", ErrDecode("response body is not valid UTF-8")
	}
	return string(b), nil
}
