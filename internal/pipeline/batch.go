package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/formlens/formlens/internal/entity"
)

// BatchResult pairs one input path with its outcome.
type BatchResult struct {
	Path   string
	Result *entity.DocumentResult
}

// ProcessBatch processes independent documents concurrently, bounded by
// workers. One failing document does not fail the batch; its result carries
// the error status. Fatal configuration errors (model not loaded, label-set
// mismatch) abort the whole batch, cancelling documents not yet started.
func (p *Processor) ProcessBatch(ctx context.Context, paths []string, workers int) ([]BatchResult, error) {
	if workers <= 0 {
		workers = 1
	}

	results := make([]BatchResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		g.Go(func() error {
			res, err := p.ProcessFile(gctx, path)
			results[i] = BatchResult{Path: path, Result: res}
			return err
		})
	}

	err := g.Wait()
	return results, err
}
