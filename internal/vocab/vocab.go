package vocab

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultEOS is the distinguished end-of-sequence token. Its ID doubles as
// the fallback for input units absent from the vocabulary.
const DefaultEOS = "<|endoftext|>"

// Table is an immutable token<->id mapping. Construct via New or LoadFile;
// never mutate after construction.
type Table struct {
	tokenToID map[string]int
	idToToken map[int]string
	eosToken  string
	eosID     int
}

// New builds a Table from a token->id mapping. Entries are validated up
// front so tokenization never has to deal with malformed data lazily.
// The eosToken must be present in the mapping.
func New(entries map[string]int, eosToken string) (*Table, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("vocabulary is empty")
	}
	if eosToken == "" {
		eosToken = DefaultEOS
	}
	t := &Table{
		tokenToID: make(map[string]int, len(entries)),
		idToToken: make(map[int]string, len(entries)),
		eosToken:  eosToken,
	}
	for tok, id := range entries {
		if id < 0 {
			return nil, fmt.Errorf("vocabulary entry %q has negative id %d", tok, id)
		}
		t.tokenToID[tok] = id
		// Inverse mapping is best-effort: duplicate ids keep the first token
		// seen. It is used only for introspection, never on the send path.
		if _, ok := t.idToToken[id]; !ok {
			t.idToToken[id] = tok
		}
	}
	eosID, ok := t.tokenToID[eosToken]
	if !ok {
		return nil, fmt.Errorf("vocabulary is missing end-of-sequence token %q", eosToken)
	}
	t.eosID = eosID
	return t, nil
}

// LoadFile reads a JSON object of {token: id} and builds a validated Table.
// A leading '~' in the path expands to the user's home directory.
func LoadFile(path, eosToken string) (*Table, error) {
	p, err := expandHome(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	b, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read vocab: %w", err)
	}
	var entries map[string]int
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("parse vocab %s: %w", abs, err)
	}
	return New(entries, eosToken)
}

// ID returns the id for tok and whether it is present.
func (t *Table) ID(tok string) (int, bool) {
	id, ok := t.tokenToID[tok]
	return id, ok
}

// Token returns the token for id and whether it is present. Introspection
// only; the send path never needs the inverse mapping.
func (t *Table) Token(id int) (string, bool) {
	tok, ok := t.idToToken[id]
	return tok, ok
}

// EOSID returns the end-of-sequence id, the fallback for unknown units.
func (t *Table) EOSID() int { return t.eosID }

// EOSToken returns the end-of-sequence token string.
func (t *Table) EOSToken() string { return t.eosToken }

// Size returns the number of vocabulary entries.
func (t *Table) Size() int { return len(t.tokenToID) }

// expandHome expands a leading '~' to the user's home directory.
func expandHome(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}
