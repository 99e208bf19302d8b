package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/formlens/formlens/internal/common"
)

// writePNG writes a width x height white raster to dir.
func writePNG(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "scan.png", 400, 300)

	l := NewLoader(Config{}, nil)
	page, err := l.LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if page.Width != 400 || page.Height != 300 {
		t.Errorf("dimensions = %dx%d, want 400x300", page.Width, page.Height)
	}
	if page.Page != 1 {
		t.Errorf("page = %d, want 1", page.Page)
	}
	if page.Image == nil {
		t.Error("raster image missing")
	}
}

func TestLoadImageUnsupportedExtension(t *testing.T) {
	l := NewLoader(Config{}, nil)

	for _, name := range []string{"doc.bmp", "doc.gif", "doc.docx", "doc"} {
		_, err := l.LoadImage(filepath.Join(t.TempDir(), name))
		if !errors.Is(err, common.ErrUnsupportedFormat) {
			t.Errorf("LoadImage(%q) err = %v, want ErrUnsupportedFormat", name, err)
		}
	}
}

func TestLoadImageMissingFile(t *testing.T) {
	l := NewLoader(Config{}, nil)

	_, err := l.LoadImage(filepath.Join(t.TempDir(), "nope.png"))
	if !errors.Is(err, common.ErrInvalidImage) {
		t.Errorf("err = %v, want ErrInvalidImage", err)
	}
}

func TestLoadImageCorruptData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(path, []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader(Config{}, nil)
	_, err := l.LoadImage(path)
	if !errors.Is(err, common.ErrInvalidImage) {
		t.Errorf("err = %v, want ErrInvalidImage", err)
	}
}

func TestLoadImageTooSmall(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "tiny.png", 50, 300)

	l := NewLoader(Config{}, nil)
	_, err := l.LoadImage(path)
	if !errors.Is(err, common.ErrImageTooSmall) {
		t.Errorf("err = %v, want ErrImageTooSmall", err)
	}
}

func TestLoadImageDownscales(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "big.png", 3000, 1500)

	l := NewLoader(Config{MaxDimension: 2000}, nil)
	page, err := l.LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if page.Width != 2000 || page.Height != 1000 {
		t.Errorf("dimensions = %dx%d, want 2000x1000 (aspect preserved)", page.Width, page.Height)
	}
}

func TestLoadImageNoDownscaleWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "big.png", 3000, 1500)

	l := NewLoader(Config{MaxDimension: 0}, nil)
	page, err := l.LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if page.Width != 3000 || page.Height != 1500 {
		t.Errorf("dimensions = %dx%d, want untouched 3000x1500", page.Width, page.Height)
	}
}
