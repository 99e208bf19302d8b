package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/formlens/formlens/constants"
	"github.com/formlens/formlens/internal/aggregate"
	"github.com/formlens/formlens/internal/common"
	"github.com/formlens/formlens/internal/encode"
	"github.com/formlens/formlens/internal/export"
	"github.com/formlens/formlens/internal/imaging"
	"github.com/formlens/formlens/internal/inference"
	"github.com/formlens/formlens/internal/ocr"
	"github.com/formlens/formlens/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails.
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir     = flag.String("dir", "", "directory of images and PDFs to process (required)")
		outDir  = flag.String("out-dir", "", "directory for per-document results (required)")
		format  = flag.String("format", export.FormatJSON, "output format: json|csv|xml|xlsx")
		workers = flag.Int("workers", 0, "concurrent documents; 0 uses PIPELINE_WORKERS")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *dir == "" || *outDir == "" {
		printError("Error: -dir and -out-dir are required\n")
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if *workers <= 0 {
		*workers = cfg.Pipeline.Workers
	}

	paths, err := collectInputs(*dir)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		printError("Error: no supported documents under %s\n", *dir)
		os.Exit(1)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	proc, err := buildProcessor(cfg, logger)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("batch.start", "documents", len(paths), "workers", *workers)
	results, batchErr := proc.ProcessBatch(ctx, paths, *workers)

	succeeded, failed := 0, 0
	for _, br := range results {
		if br.Result == nil {
			failed++
			continue
		}
		if br.Result.Status == constants.StatusError {
			failed++
		} else {
			succeeded++
		}
		if err := writeResult(br, *outDir, *format); err != nil {
			printError("Error: %s: %v\n", br.Path, err)
		}
	}

	logger.Info("batch.done", "succeeded", succeeded, "failed", failed)
	if batchErr != nil {
		printError("Error: batch aborted: %v\n", batchErr)
		os.Exit(1)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// collectInputs lists supported documents directly under dir, sorted for
// deterministic output ordering.
func collectInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := constants.NormalizeExt(filepath.Ext(e.Name()))
		if constants.MapExtToFormat(ext) == "" {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// writeResult renders one document's result next to its base name.
func writeResult(br pipeline.BatchResult, outDir, format string) error {
	if br.Result == nil {
		return nil
	}
	rendered, err := export.ByFormat(br.Result, format)
	if err != nil {
		return err
	}
	base := strings.TrimSuffix(filepath.Base(br.Path), filepath.Ext(br.Path))
	return os.WriteFile(filepath.Join(outDir, base+"."+format), rendered, 0o644)
}

// buildProcessor wires the concrete backends behind the pipeline's
// capability interfaces.
func buildProcessor(cfg *common.Config, logger *slog.Logger) (*pipeline.Processor, error) {
	vocab, err := encode.LoadVocab(cfg.Model.VocabPath)
	if err != nil {
		return nil, err
	}

	loader := imaging.NewLoader(imaging.Config{
		Pdftoppm:     cfg.Imaging.Pdftoppm,
		Pdfinfo:      cfg.Imaging.Pdfinfo,
		DPI:          cfg.Imaging.DPI,
		MaxDimension: cfg.Imaging.MaxDimension,
	}, logger)

	ocrEngine := ocr.NewTesseract(ocr.TesseractConfig{
		Language:    cfg.OCR.Language,
		TessdataDir: cfg.OCR.TessdataDir,
	}, logger)

	httpEngine := inference.NewHTTPEngine(inference.HTTPConfig{
		BaseURL: cfg.Model.ServerURL,
		Model:   cfg.Model.Name,
	}, logger)
	var engine inference.Engine = httpEngine
	if cfg.Model.Serialize {
		engine = inference.Serialized(httpEngine)
	}

	return pipeline.NewProcessor(
		loader,
		ocrEngine,
		encode.NewEncoder(vocab, cfg.Model.MaxSeqLength),
		inference.NewModelHandle(httpEngine, logger),
		engine,
		pipeline.Config{
			Aggregate: aggregate.Options{
				Threshold: cfg.Model.Threshold,
				MaxGapX:   cfg.Pipeline.MaxGapX,
				MaxGapY:   cfg.Pipeline.MaxGapY,
				KeepOther: cfg.Pipeline.KeepOther,
			},
			InferenceTimeout: cfg.Model.Timeout,
		},
		logger,
	), nil
}
