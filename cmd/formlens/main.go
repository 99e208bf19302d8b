package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

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
		in        = flag.String("in", "", "input image or PDF path (required)")
		out       = flag.String("out", "-", "output path, or - for stdout")
		format    = flag.String("format", export.FormatJSON, "output format: json|csv|xml|xlsx")
		threshold = flag.Float64("threshold", -1, "confidence threshold override in [0,1]")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *in == "" {
		printError("Error: -in is required\n")
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if *threshold >= 0 {
		cfg.Model.Threshold = *threshold
	}
	if err := cfg.Validate(); err != nil {
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

	res, err := proc.ProcessFile(ctx, *in)
	if err != nil {
		printError("Error: processing aborted: %v\n", err)
		os.Exit(1)
	}

	rendered, err := export.ByFormat(res, *format)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	if *out == "-" {
		if _, err := os.Stdout.Write(rendered); err != nil {
			printError("Error: write output: %v\n", err)
			os.Exit(1)
		}
	} else if err := os.WriteFile(*out, rendered, 0o644); err != nil {
		printError("Error: write %s: %v\n", *out, err)
		os.Exit(1)
	}
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
