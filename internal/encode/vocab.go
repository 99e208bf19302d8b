package encode

import (
	"bufio"
	"fmt"
	"os"
)

// Special tokens. The vocabulary must contain UnknownToken; words the
// tokenizer cannot decompose map to it rather than being dropped.
const UnknownToken = "[UNK]"

// Vocab is a fixed sub-word vocabulary in BERT vocab.txt form: one token per
// line, the line number (0-based) is the token id. Continuation pieces carry
// the "##" prefix.
type Vocab struct {
	ids map[string]int
}

// NewVocab builds a vocabulary from an ordered token list.
func NewVocab(tokens []string) *Vocab {
	ids := make(map[string]int, len(tokens))
	for i, tok := range tokens {
		ids[tok] = i
	}
	return &Vocab{ids: ids}
}

// LoadVocab reads a vocab.txt file.
func LoadVocab(path string) (*Vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	ids := make(map[string]int)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		if _, dup := ids[line]; dup {
			continue
		}
		ids[line] = len(ids)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read vocab: %w", err)
	}
	v := &Vocab{ids: ids}
	if _, ok := v.ID(UnknownToken); !ok {
		return nil, fmt.Errorf("vocab %s is missing %s", path, UnknownToken)
	}
	return v, nil
}

// ID returns the token id for a sub-word token.
func (v *Vocab) ID(token string) (int, bool) {
	id, ok := v.ids[token]
	return id, ok
}

// Size returns the vocabulary size.
func (v *Vocab) Size() int {
	return len(v.ids)
}
