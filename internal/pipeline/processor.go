package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/formlens/formlens/constants"
	"github.com/formlens/formlens/internal/aggregate"
	"github.com/formlens/formlens/internal/common"
	"github.com/formlens/formlens/internal/encode"
	"github.com/formlens/formlens/internal/entity"
	"github.com/formlens/formlens/internal/imaging"
	"github.com/formlens/formlens/internal/inference"
	"github.com/formlens/formlens/internal/ocr"
)

// Config tunes the orchestrator.
type Config struct {
	Aggregate        aggregate.Options
	InferenceTimeout time.Duration // per classify call; default 30s
}

// Processor sequences load -> OCR -> encode -> infer -> aggregate per page
// and assembles document results. It owns the accumulating DocumentResult;
// every stage hands its output forward by value.
type Processor struct {
	loader  *imaging.Loader
	ocr     ocr.Engine
	encoder *encode.Encoder
	handle  *inference.ModelHandle
	engine  inference.Engine
	cfg     Config
	logger  *slog.Logger
}

func NewProcessor(
	loader *imaging.Loader,
	ocrEngine ocr.Engine,
	encoder *encode.Encoder,
	handle *inference.ModelHandle,
	engine inference.Engine,
	cfg Config,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.InferenceTimeout <= 0 {
		cfg.InferenceTimeout = 30 * time.Second
	}
	return &Processor{
		loader:  loader,
		ocr:     ocrEngine,
		encoder: encoder,
		handle:  handle,
		engine:  engine,
		cfg:     cfg,
		logger:  logger,
	}
}

// ProcessFile runs the full pipeline over a single image or PDF. Per-page
// failures are recorded in the result rather than returned; the error is
// non-nil only for configuration-class failures (which must abort an
// enclosing batch) and cancellation.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*entity.DocumentResult, error) {
	start := time.Now()
	docID := uuid.New().String()

	log := p.logger.With("doc_id", docID, "path", path)
	log.Info("pipeline.document.start")

	if err := p.handle.EnsureLoaded(ctx); err != nil {
		log.Error("pipeline.document.aborted", "stage", constants.StageLoad, "error", err)
		return p.errorResult(docID, start, err), err
	}

	pages, err := p.loadPages(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return p.errorResult(docID, start, err), ctx.Err()
		}
		log.Error("pipeline.document.failed", "stage", constants.StageLoad, "error", err)
		return p.errorResult(docID, start, err), nil
	}

	res, err := p.processPages(ctx, docID, pages, start)
	if err != nil {
		log.Error("pipeline.document.aborted", "error", err)
		return res, err
	}
	log.Info("pipeline.document.done",
		"status", res.Status,
		"pages", len(pages),
		"elapsed_ms", res.ProcessingTimeMS,
	)
	return res, nil
}

// loadPages decodes the input into one raster per page.
func (p *Processor) loadPages(ctx context.Context, path string) ([]entity.RasterPage, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		return p.loader.LoadPDF(ctx, path)
	case constants.IMAGE:
		page, err := p.loader.LoadImage(path)
		if err != nil {
			return nil, err
		}
		return []entity.RasterPage{page}, nil
	default:
		return nil, fmt.Errorf("%w: extension %q", common.ErrUnsupportedFormat, ext)
	}
}

// processPages runs the per-page pipeline over already-decoded rasters and
// assembles the document result. Split out so multi-page assembly is
// testable without rasterizing a real PDF.
func (p *Processor) processPages(ctx context.Context, docID string, pages []entity.RasterPage, start time.Time) (*entity.DocumentResult, error) {
	results := make([]entity.PageResult, 0, len(pages))
	failed := 0

	for _, page := range pages {
		pr, err := p.processPage(ctx, docID, page)
		if err != nil {
			// Fatal configuration error or cancellation: discard and abort.
			return p.errorResult(docID, start, err), err
		}
		if pr.Failed() {
			failed++
		}
		results = append(results, pr)
	}

	res := &entity.DocumentResult{
		Status:           constants.StatusSuccess,
		ProcessingTimeMS: elapsedMS(start),
		Results:          results,
		Metadata: entity.Metadata{
			DocumentID:   docID,
			ModelVersion: p.engine.ModelVersion(),
			OCREngine:    p.ocr.Name(),
			ImageSize:    []int{pages[0].Width, pages[0].Height},
			TotalPages:   len(pages),
		},
	}

	switch {
	case failed == len(results):
		// Total failure carries no partial results.
		res.Status = constants.StatusError
		res.Error = fmt.Sprintf("all %d pages failed", len(results))
		res.Results = nil
	case failed > 0:
		res.Status = constants.StatusPartial
	}
	return res, nil
}

// processPage walks one page through the stage sequence. The returned error
// is non-nil only for fatal configuration errors and cancellation; every
// other failure is annotated on the PageResult with the stage it hit.
func (p *Processor) processPage(ctx context.Context, docID string, page entity.RasterPage) (entity.PageResult, error) {
	pr := entity.PageResult{Page: page.Page, Entities: []entity.Entity{}}
	log := p.logger.With("doc_id", docID, "page", page.Page)

	fail := func(stage constants.Stage, err error) entity.PageResult {
		log.Error("pipeline.page.failed", "stage", stage, "error", err)
		pr.Error = &entity.PageError{Stage: stage, Message: err.Error()}
		return pr
	}

	// Cancellation takes effect at stage boundaries only; a stage that has
	// started runs to completion and its output is discarded.
	if err := ctx.Err(); err != nil {
		return pr, err
	}

	words, err := p.ocr.Extract(ctx, page)
	if err != nil {
		return fail(constants.StageOCR, err), nil
	}
	if len(words) == 0 {
		log.Debug("pipeline.page.empty")
		return pr, nil
	}

	if err := ctx.Err(); err != nil {
		return pr, err
	}

	in, err := p.encoder.Encode(words, page.Width, page.Height)
	if err != nil {
		return fail(constants.StageEncode, err), nil
	}
	if in.Truncated {
		pr.Warnings = append(pr.Warnings,
			fmt.Sprintf("token stream truncated to %d tokens; trailing words were not classified", len(in.Tokens)))
	}

	if err := ctx.Err(); err != nil {
		return pr, err
	}

	preds, err := p.classify(ctx, in)
	if err != nil {
		if common.Fatal(err) {
			return pr, err
		}
		return fail(constants.StageInference, err), nil
	}

	if err := ctx.Err(); err != nil {
		return pr, err
	}

	entities, err := aggregate.Aggregate(in, preds, p.cfg.Aggregate)
	if err != nil {
		if common.Fatal(err) {
			return pr, err
		}
		return fail(constants.StageAggregate, err), nil
	}

	pr.Entities = entities
	log.Debug("pipeline.page.done", "words", len(words), "entities", len(entities))
	return pr, nil
}

// classify runs inference under the configured per-call timeout.
func (p *Processor) classify(ctx context.Context, in *encode.Input) ([]inference.Prediction, error) {
	ictx, cancel := context.WithTimeout(ctx, p.cfg.InferenceTimeout)
	defer cancel()

	preds, err := p.engine.Classify(ictx, in)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: after %s", common.ErrTimeout, p.cfg.InferenceTimeout)
		}
		return nil, err
	}
	return preds, nil
}

func (p *Processor) errorResult(docID string, start time.Time, err error) *entity.DocumentResult {
	return &entity.DocumentResult{
		Status:           constants.StatusError,
		ProcessingTimeMS: elapsedMS(start),
		Metadata: entity.Metadata{
			DocumentID:   docID,
			ModelVersion: p.engine.ModelVersion(),
			OCREngine:    p.ocr.Name(),
		},
		Error: err.Error(),
	}
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
