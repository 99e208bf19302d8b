package encode

import "strings"

// maxWordChars guards the greedy matcher against pathological OCR output;
// longer words tokenize to [UNK] as a whole.
const maxWordChars = 100

// Tokenizer splits a word into sub-word tokens by greedy longest-match
// against a fixed vocabulary (wordpiece). It holds no mutable state and is
// safe for concurrent use.
type Tokenizer struct {
	vocab *Vocab
}

func NewTokenizer(vocab *Vocab) *Tokenizer {
	return &Tokenizer{vocab: vocab}
}

// Tokenize decomposes one word into vocabulary tokens. Matching is done on
// the lowercased word; a word with any unmatchable remainder becomes a
// single [UNK], never a partial decomposition. Deterministic for identical
// input.
func (t *Tokenizer) Tokenize(word string) []string {
	runes := []rune(strings.ToLower(word))
	if len(runes) == 0 || len(runes) > maxWordChars {
		return []string{UnknownToken}
	}

	var pieces []string
	start := 0
	for start < len(runes) {
		end := len(runes)
		match := ""
		for end > start {
			piece := string(runes[start:end])
			if start > 0 {
				piece = "##" + piece
			}
			if _, ok := t.vocab.ID(piece); ok {
				match = piece
				break
			}
			end--
		}
		if match == "" {
			return []string{UnknownToken}
		}
		pieces = append(pieces, match)
		start = end
	}
	return pieces
}
