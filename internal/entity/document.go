package entity

import (
	"image"

	"github.com/formlens/formlens/constants"
	"github.com/formlens/formlens/internal/geometry"
)

// RasterPage is a canonical decoded page raster plus metadata. It is owned
// by the pipeline for the duration of one page's processing and discarded
// after aggregation.
type RasterPage struct {
	Image  image.Image
	Width  int
	Height int
	Page   int // 1-based page index within the source document
	DPI    int // rendering DPI for PDF pages, 0 when unknown
}

// Word is one OCR output unit in reading order. The box is in pixel
// coordinates of the page raster; confidence is the OCR engine's, in [0,1].
type Word struct {
	Text       string
	Box        geometry.Box
	Confidence float64
}

// BBox is the wire shape of a pixel bounding box. The key names are part of
// the stable output contract.
type BBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// NewBBox converts a geometry box to its wire shape.
func NewBBox(b geometry.Box) BBox {
	return BBox{X1: b.X1, Y1: b.Y1, X2: b.X2, Y2: b.Y2}
}

// EntityWord carries per-word detail for downstream consumers that render
// word-level boxes.
type EntityWord struct {
	Text            string  `json:"text"`
	Box             BBox    `json:"bbox"`
	OCRConfidence   float64 `json:"ocr_confidence"`
	ModelConfidence float64 `json:"model_confidence"`
}

// Entity is the final output unit: a contiguous run of same-labeled words
// merged into one labeled span with a unioned bounding box.
type Entity struct {
	Text       string          `json:"text"`
	Label      constants.Label `json:"label"`
	Confidence float64         `json:"confidence"`
	Box        BBox            `json:"bbox"`
	Words      []EntityWord    `json:"words,omitempty"`
}

// PageError annotates a failed page with the stage that failed.
type PageError struct {
	Stage   constants.Stage `json:"stage"`
	Message string          `json:"message"`
}

// PageResult holds the ordered entities of one page. Entities appear in the
// same relative order as the first OCR word that contributed to them.
type PageResult struct {
	Page     int        `json:"page"`
	Entities []Entity   `json:"entities"`
	Error    *PageError `json:"error,omitempty"`
	Warnings []string   `json:"warnings,omitempty"`
}

// Failed reports whether the page carries a failure annotation.
func (p PageResult) Failed() bool {
	return p.Error != nil
}

// Metadata describes how a document was processed.
type Metadata struct {
	DocumentID   string `json:"document_id,omitempty"`
	ModelVersion string `json:"model_version"`
	OCREngine    string `json:"ocr_engine"`
	ImageSize    []int  `json:"image_size"` // [width, height] of the first page
	TotalPages   int    `json:"total_pages,omitempty"`
}

// DocumentResult is the final structured result for one document. Its JSON
// shape, including the bbox key names, is the stable output contract.
type DocumentResult struct {
	Status           constants.Status `json:"status"`
	ProcessingTimeMS float64          `json:"processing_time_ms"`
	Results          []PageResult     `json:"results"`
	Metadata         Metadata         `json:"metadata"`
	Error            string           `json:"error,omitempty"`
}
