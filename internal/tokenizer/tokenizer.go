// Package tokenizer implements the whole-word / character-fallback
// segmentation the remote peer's vocabulary was laid out for.
//
// This is deliberately not byte-pair encoding: the peer expects exactly this
// greedy word-then-character policy, and substituting a real sub-word
// tokenizer would silently break protocol compatibility even though it would
// be "better". Multi-character vocabulary entries only match at whole-word
// granularity.
package tokenizer

import (
	"strings"

	"edged/internal/vocab"
)

// Encode turns a prompt into a bounded token id sequence. It is total: any
// input unit without a vocabulary entry resolves to the table's EOS fallback
// id, character by character, so Encode never fails. The result is truncated
// to maxTokens (trailing tokens dropped, no marker appended).
func Encode(t *vocab.Table, prompt string, maxTokens int) []int {
	ids := make([]int, 0, maxTokens)
	for _, word := range strings.Split(prompt, " ") {
		if word == "" {
			continue
		}
		if id, ok := t.ID(word); ok {
			ids = append(ids, id)
			continue
		}
		// No whole-word match: fall back to per-character lookup. Punctuation
		// embedded in the word goes through the same path.
		for _, r := range word {
			if id, ok := t.ID(string(r)); ok {
				ids = append(ids, id)
			} else {
				ids = append(ids, t.EOSID())
			}
		}
	}
	if maxTokens > 0 && len(ids) > maxTokens {
		ids = ids[:maxTokens]
	}
	return ids
}
