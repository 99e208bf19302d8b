package imaging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/formlens/formlens/constants"
	"github.com/formlens/formlens/internal/common"
	"github.com/formlens/formlens/internal/entity"
)

// LoadPDF splits a PDF into per-page rasters at the configured DPI. Every
// page is size-validated like a standalone image. Documents over the page
// or byte limits are rejected before rendering.
func (l *Loader) LoadPDF(ctx context.Context, path string) ([]entity.RasterPage, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidImage, err)
	}
	if info.Size() > constants.MaxPDFBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d",
			common.ErrImageTooLarge, info.Size(), constants.MaxPDFBytes)
	}

	pages, err := l.pageCount(ctx, path)
	if err != nil {
		return nil, err
	}
	if pages > constants.MaxPDFPages {
		return nil, fmt.Errorf("%w: %d pages exceeds %d",
			common.ErrImageTooLarge, pages, constants.MaxPDFPages)
	}

	tmpDir, err := os.MkdirTemp("", "formlens-pp-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			l.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page>
	_, errb, err := l.runner.Run(ctx, l.cfg.Pdftoppm, "-r", strconv.Itoa(l.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: pdftoppm: %v: %s", common.ErrInvalidImage, err, errb)
	}

	// Collect generated pngs (prefix-1.png, prefix-2.png, ...). pdftoppm
	// zero-pads the page number so lexical order is page order.
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: pdftoppm produced no pages", common.ErrInvalidImage)
	}

	rasters := make([]entity.RasterPage, 0, len(matches))
	for i, img := range matches {
		f, err := os.Open(img)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidImage, err)
		}
		page, err := l.decode(f, i+1, l.cfg.DPI)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		rasters = append(rasters, page)
	}

	l.logger.Debug("pdf rasterized", "path", path, "pages", len(rasters), "dpi", l.cfg.DPI)
	return rasters, nil
}

// pageCount reads the page count via pdfinfo.
func (l *Loader) pageCount(ctx context.Context, path string) (int, error) {
	out, errb, err := l.runner.Run(ctx, l.cfg.Pdfinfo, path)
	if err != nil {
		return 0, fmt.Errorf("%w: pdfinfo: %v: %s", common.ErrInvalidImage, err, errb)
	}
	for _, line := range strings.Split(string(out), "\n") {
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
		if err != nil {
			return 0, fmt.Errorf("%w: pdfinfo page count: %v", common.ErrInvalidImage, err)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: pdfinfo reported no page count", common.ErrInvalidImage)
}
