package inference

import (
	"context"
	"sync"

	"github.com/formlens/formlens/internal/encode"
)

// Prediction is the per-token output of the classifier: the argmax label id
// plus the full softmax distribution over label ids. Index-aligned 1:1 with
// the encoded token stream; consumed immediately by aggregation.
type Prediction struct {
	LabelID int
	Scores  []float64
}

// Engine wraps the layout-aware token-classification model. Hardware
// placement and batching are the engine's concern. Classify must not be
// called before the owning ModelHandle reports a successful load.
type Engine interface {
	Classify(ctx context.Context, in *encode.Input) ([]Prediction, error)

	// ModelVersion identifies the model in result metadata.
	ModelVersion() string
}

// Loader is implemented by engines whose weights must be brought up before
// the first classification.
type Loader interface {
	Load(ctx context.Context) error
}

// Serialized wraps an engine whose backend does not support concurrent
// batched execution: classify calls from concurrent documents are funneled
// through a single consumer to avoid device memory contention.
func Serialized(e Engine) Engine {
	return &serialEngine{inner: e}
}

type serialEngine struct {
	mu    sync.Mutex
	inner Engine
}

func (s *serialEngine) Classify(ctx context.Context, in *encode.Input) ([]Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Classify(ctx, in)
}

func (s *serialEngine) ModelVersion() string {
	return s.inner.ModelVersion()
}
