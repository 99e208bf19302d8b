package aggregate

import (
	"fmt"
	"strings"

	"github.com/formlens/formlens/constants"
	"github.com/formlens/formlens/internal/common"
	"github.com/formlens/formlens/internal/encode"
	"github.com/formlens/formlens/internal/entity"
	"github.com/formlens/formlens/internal/geometry"
	"github.com/formlens/formlens/internal/inference"
)

// Options configures entity assembly. Threshold is inclusive: an entity with
// confidence exactly equal to it is retained.
type Options struct {
	Threshold float64

	// MaxGapX / MaxGapY start a new entity when consecutive same-labeled
	// words are further apart than this many pixels. 0 disables the gap
	// check; grouping is then pure label contiguity.
	MaxGapX int
	MaxGapY int

	// KeepOther includes OTHER-labeled entities in the output. Off by
	// default: form extraction consumers want the labeled fields.
	KeepOther bool

	// IncludeWords attaches per-word detail to each entity.
	IncludeWords bool
}

// wordPrediction is a word-level label after first-token reduction.
// Aggregation stays in the word-index domain; pixel boxes are only read
// off the words when the final entity box is assembled, so rounding error
// never compounds.
type wordPrediction struct {
	index int
	label constants.Label
	conf  float64
}

// Aggregate reconstructs entities from token-level predictions.
//
// Policy: a word's label is the label of its first sub-word token and its
// confidence is that token's softmax probability for the label (first-token
// policy). Consecutive words with the same label merge into one entity:
// text joined by a single space, box the union of the word boxes,
// confidence the arithmetic mean of the word confidences.
func Aggregate(in *encode.Input, preds []inference.Prediction, opts Options) ([]entity.Entity, error) {
	if len(preds) != len(in.Tokens) {
		return nil, fmt.Errorf("%w: %d tokens, %d predictions",
			common.ErrAlignment, len(in.Tokens), len(preds))
	}

	words, err := reduceToWords(in, preds)
	if err != nil {
		return nil, err
	}

	entities := group(in, words, opts)

	kept := entities[:0]
	for _, ent := range entities {
		if !opts.KeepOther && ent.Label == constants.LabelOther {
			continue
		}
		if ent.Confidence < opts.Threshold {
			continue
		}
		kept = append(kept, ent)
	}
	return kept, nil
}

// reduceToWords collapses sub-word predictions to word-level labels using
// the first token of each word. Words past a truncation point have no
// tokens and are simply absent.
func reduceToWords(in *encode.Input, preds []inference.Prediction) ([]wordPrediction, error) {
	seen := make(map[int]bool, len(in.Words))
	out := make([]wordPrediction, 0, len(in.Words))

	for i, tok := range in.Tokens {
		if seen[tok.WordIndex] {
			continue
		}
		seen[tok.WordIndex] = true

		p := preds[i]
		label, ok := constants.CollapseLabel(p.LabelID)
		if !ok {
			return nil, fmt.Errorf("%w: id %d", common.ErrUnknownLabel, p.LabelID)
		}
		if p.LabelID >= len(p.Scores) {
			return nil, fmt.Errorf("%w: scores vector of %d has no entry for label %d",
				common.ErrInference, len(p.Scores), p.LabelID)
		}
		out = append(out, wordPrediction{
			index: tok.WordIndex,
			label: label,
			conf:  p.Scores[p.LabelID],
		})
	}
	return out, nil
}

// group merges consecutive same-labeled words into entities, preserving
// first-appearance order.
func group(in *encode.Input, words []wordPrediction, opts Options) []entity.Entity {
	var entities []entity.Entity
	var run []wordPrediction

	flush := func() {
		if len(run) == 0 {
			return
		}
		entities = append(entities, assemble(in, run, opts))
		run = nil
	}

	for _, wp := range words {
		if len(run) > 0 {
			prev := run[len(run)-1]
			if wp.label != prev.label || gapExceeded(in.Words[prev.index].Box, in.Words[wp.index].Box, opts) {
				flush()
			}
		}
		run = append(run, wp)
	}
	flush()
	return entities
}

func gapExceeded(prev, next geometry.Box, opts Options) bool {
	if opts.MaxGapX > 0 && prev.HGap(next) > opts.MaxGapX {
		return true
	}
	if opts.MaxGapY > 0 && prev.VGap(next) > opts.MaxGapY {
		return true
	}
	return false
}

// assemble builds one entity from a run of same-labeled words.
func assemble(in *encode.Input, run []wordPrediction, opts Options) entity.Entity {
	var sb strings.Builder
	box := in.Words[run[0].index].Box
	var confSum float64

	var detail []entity.EntityWord
	if opts.IncludeWords {
		detail = make([]entity.EntityWord, 0, len(run))
	}

	for i, wp := range run {
		word := in.Words[wp.index]
		if i > 0 {
			sb.WriteByte(' ')
			box = box.Union(word.Box)
		}
		sb.WriteString(word.Text)
		confSum += wp.conf

		if opts.IncludeWords {
			detail = append(detail, entity.EntityWord{
				Text:            word.Text,
				Box:             entity.NewBBox(word.Box),
				OCRConfidence:   word.Confidence,
				ModelConfidence: wp.conf,
			})
		}
	}

	return entity.Entity{
		Text:       sb.String(),
		Label:      run[0].label,
		Confidence: confSum / float64(len(run)),
		Box:        entity.NewBBox(box),
		Words:      detail,
	}
}
