package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/formlens/formlens/internal/entity"
	"github.com/formlens/formlens/internal/geometry"
)

// TesseractConfig holds Tesseract configuration.
type TesseractConfig struct {
	Language    string // default "eng"
	TessdataDir string
}

// Tesseract is an in-process OCR engine backed by gosseract. It emits
// word-level boxes in Tesseract's reading order.
type Tesseract struct {
	cfg    TesseractConfig
	logger *slog.Logger
}

func NewTesseract(cfg TesseractConfig, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	return &Tesseract{cfg: cfg, logger: logger}
}

func (t *Tesseract) Name() string {
	return "tesseract"
}

// Extract runs word-level OCR over the page raster.
func (t *Tesseract) Extract(ctx context.Context, page entity.RasterPage) ([]entity.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	var buf bytes.Buffer
	if err := png.Encode(&buf, page.Image); err != nil {
		return nil, fmt.Errorf("encode raster: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.cfg.Language); err != nil {
		return nil, fmt.Errorf("set language: %w", err)
	}
	if t.cfg.TessdataDir != "" {
		if err := client.SetTessdataPrefix(t.cfg.TessdataDir); err != nil {
			return nil, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("tesseract ocr: %w", err)
	}

	words := convertBoxes(boxes, page.Width, page.Height)
	t.logger.Debug("ocr.extracted",
		"page", page.Page,
		"words", len(words),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return words, nil
}

// convertBoxes maps gosseract word boxes into pipeline words, dropping
// whitespace-only detections and clipping boxes to the page bounds.
// Tesseract confidences are 0..100; the pipeline uses [0,1].
func convertBoxes(boxes []gosseract.BoundingBox, width, height int) []entity.Word {
	words := make([]entity.Word, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		box := geometry.NewBox(
			clamp(b.Box.Min.X, 0, width),
			clamp(b.Box.Min.Y, 0, height),
			clamp(b.Box.Max.X, 0, width),
			clamp(b.Box.Max.Y, 0, height),
		)
		conf := b.Confidence / 100.0
		if conf < 0 {
			conf = 0
		}
		if conf > 1 {
			conf = 1
		}
		words = append(words, entity.Word{Text: text, Box: box, Confidence: conf})
	}
	return words
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
