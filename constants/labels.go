package constants

// Label is one of the four entity classes emitted by the pipeline.
type Label string

const (
	LabelHeader   Label = "HEADER"
	LabelQuestion Label = "QUESTION"
	LabelAnswer   Label = "ANSWER"
	LabelOther    Label = "OTHER"
)

// labelNames holds the token-classification label set produced by the model
// (FUNSD BIO scheme). Stable: ids are part of the model contract.
var labelNames = map[int]string{
	0: "O",
	1: "B-HEADER",
	2: "I-HEADER",
	3: "B-QUESTION",
	4: "I-QUESTION",
	5: "B-ANSWER",
	6: "I-ANSWER",
}

// NumLabels is the size of the model's label vocabulary.
const NumLabels = 7

// LabelName returns the raw model label name for an id.
func LabelName(id int) (string, bool) {
	name, ok := labelNames[id]
	return name, ok
}

// CollapseLabel maps a raw model label id to its entity class, stripping the
// BIO prefix. The second return is false for ids outside the model's label
// set; callers must treat that as a model/config mismatch, not coerce it.
func CollapseLabel(id int) (Label, bool) {
	switch id {
	case 0:
		return LabelOther, true
	case 1, 2:
		return LabelHeader, true
	case 3, 4:
		return LabelQuestion, true
	case 5, 6:
		return LabelAnswer, true
	default:
		return "", false
	}
}
