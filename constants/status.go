package constants

// Status is the overall outcome of one document run.
type Status string

// Stable values (these exact strings appear in the output contract).
const (
	StatusSuccess Status = "success"         // every page processed
	StatusPartial Status = "partial_success" // some pages failed, some succeeded
	StatusError   Status = "error"           // no usable results
)

// Stage identifies a pipeline stage, used for state tracking and for
// annotating which stage a page or document failed in.
type Stage string

const (
	StageLoad      Stage = "load"
	StageOCR       Stage = "ocr"
	StageEncode    Stage = "encode"
	StageInference Stage = "inference"
	StageAggregate Stage = "aggregate"
	StageDone      Stage = "done"
)
