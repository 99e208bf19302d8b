package ocr

import (
	"context"

	"github.com/formlens/formlens/internal/entity"
)

// Engine extracts words with pixel bounding boxes from a page raster, in
// reading order. A page with no detectable text yields an empty slice, not
// an error. Concrete engines are injected at construction; the pipeline
// never inspects the underlying implementation.
type Engine interface {
	Extract(ctx context.Context, page entity.RasterPage) ([]entity.Word, error)

	// Name identifies the engine in result metadata.
	Name() string
}
