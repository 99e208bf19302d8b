package imaging

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	// Raster formats accepted by the pipeline. PDF is handled separately.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"

	"golang.org/x/image/draw"

	"github.com/formlens/formlens/constants"
	"github.com/formlens/formlens/internal/common"
	"github.com/formlens/formlens/internal/entity"
)

// Config holds decoding and rasterization settings.
type Config struct {
	Pdftoppm     string // binary name or absolute path; if empty -> "pdftoppm"
	Pdfinfo      string // binary name or absolute path; if empty -> "pdfinfo"
	DPI          int    // rasterization DPI for PDF pages, default 200
	MaxDimension int    // downscale rasters whose longest side exceeds this; 0 disables
}

// Loader decodes input files into canonical page rasters and enforces the
// format and size bounds before any pipeline stage runs.
type Loader struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewLoader(cfg Config, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Pdfinfo == "" {
		cfg.Pdfinfo = "pdfinfo"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	return &Loader{cfg: cfg, runner: execRunner{}, logger: logger}
}

// LoadImage decodes a single raster file into a validated RasterPage.
func (l *Loader) LoadImage(path string) (entity.RasterPage, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	if constants.MapExtToFormat(ext) != constants.IMAGE {
		return entity.RasterPage{}, fmt.Errorf("%w: extension %q", common.ErrUnsupportedFormat, ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		return entity.RasterPage{}, fmt.Errorf("%w: %v", common.ErrInvalidImage, err)
	}
	if info.Size() > constants.MaxImageBytes {
		return entity.RasterPage{}, fmt.Errorf("%w: %d bytes exceeds %d",
			common.ErrImageTooLarge, info.Size(), constants.MaxImageBytes)
	}

	f, err := os.Open(path)
	if err != nil {
		return entity.RasterPage{}, fmt.Errorf("%w: %v", common.ErrInvalidImage, err)
	}
	defer f.Close()

	return l.decode(f, 1, 0)
}

// decode reads one raster, validates its dimensions and downscales it when
// it exceeds the configured maximum.
func (l *Loader) decode(r io.Reader, page, dpi int) (entity.RasterPage, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return entity.RasterPage{}, fmt.Errorf("%w: decode: %v", common.ErrInvalidImage, err)
	}

	switch format {
	case "png", "jpeg", "tiff":
	default:
		return entity.RasterPage{}, fmt.Errorf("%w: decoded as %q", common.ErrUnsupportedFormat, format)
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width < constants.MinDimensionPx || height < constants.MinDimensionPx {
		return entity.RasterPage{}, fmt.Errorf("%w: %dx%d below minimum %dpx",
			common.ErrImageTooSmall, width, height, constants.MinDimensionPx)
	}
	if width > constants.MaxDimensionPx || height > constants.MaxDimensionPx {
		return entity.RasterPage{}, fmt.Errorf("%w: %dx%d exceeds maximum %dpx",
			common.ErrImageTooLarge, width, height, constants.MaxDimensionPx)
	}

	if l.cfg.MaxDimension > 0 && (width > l.cfg.MaxDimension || height > l.cfg.MaxDimension) {
		img = downscale(img, l.cfg.MaxDimension)
		nb := img.Bounds()
		l.logger.Debug("raster downscaled",
			"page", page,
			"from", fmt.Sprintf("%dx%d", width, height),
			"to", fmt.Sprintf("%dx%d", nb.Dx(), nb.Dy()),
		)
		width, height = nb.Dx(), nb.Dy()
	}

	return entity.RasterPage{
		Image:  img,
		Width:  width,
		Height: height,
		Page:   page,
		DPI:    dpi,
	}, nil
}

// downscale resizes img so its longest side equals maxDim, preserving the
// aspect ratio.
func downscale(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var nw, nh int
	if w >= h {
		nw = maxDim
		nh = h * maxDim / w
	} else {
		nh = maxDim
		nw = w * maxDim / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
