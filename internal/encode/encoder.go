package encode

import (
	"fmt"
	"strings"

	"github.com/formlens/formlens/internal/common"
	"github.com/formlens/formlens/internal/entity"
	"github.com/formlens/formlens/internal/geometry"
)

// Token is one encoded sub-word token. Every token of a word carries the
// word's normalized box unchanged; the model's layout embedding requires
// the repetition, it must not be approximated per sub-token.
type Token struct {
	Text      string
	ID        int
	WordIndex int          // back-reference into Input.Words
	Box       geometry.Box // layout-space box shared by the whole word
}

// Input is the model-ready representation of one page.
type Input struct {
	Tokens []Token
	Words  []entity.Word // words in OCR reading order, untouched
	Width  int           // pixel dimensions the boxes were normalized against
	Height int

	// Truncated is set when the token stream was cut at the maximum
	// sequence length. The earliest tokens are kept; trailing words get no
	// predictions and the caller must report partial coverage.
	Truncated bool
}

// Encoder maps OCR words and page dimensions into the model's input
// representation. Pure: no hidden state, deterministic for identical input.
type Encoder struct {
	tok       *Tokenizer
	maxSeqLen int
}

func NewEncoder(vocab *Vocab, maxSeqLen int) *Encoder {
	if maxSeqLen <= 0 {
		maxSeqLen = 512
	}
	return &Encoder{tok: NewTokenizer(vocab), maxSeqLen: maxSeqLen}
}

// Encode tokenizes words and normalizes their boxes into layout space.
// Words with empty text are skipped; a collapsed (sub-pixel) box is carried
// through as-is. Token count never exceeds the maximum sequence length.
func (e *Encoder) Encode(words []entity.Word, width, height int) (*Input, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: page dimensions %dx%d", common.ErrInvalidImage, width, height)
	}

	in := &Input{Words: words, Width: width, Height: height}

	for wi, word := range words {
		if strings.TrimSpace(word.Text) == "" {
			continue
		}
		box := geometry.Normalize(word.Box, width, height)
		for _, piece := range e.tok.Tokenize(word.Text) {
			if len(in.Tokens) >= e.maxSeqLen {
				in.Truncated = true
				return in, nil
			}
			id, ok := e.tok.vocab.ID(piece)
			if !ok {
				// Tokenize only emits vocabulary pieces; [UNK] is
				// guaranteed present at vocabulary load.
				id, _ = e.tok.vocab.ID(UnknownToken)
			}
			in.Tokens = append(in.Tokens, Token{
				Text:      piece,
				ID:        id,
				WordIndex: wi,
				Box:       box,
			})
		}
	}
	return in, nil
}
