package imgops

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

// TestToGrayConvertsColor checks luminance conversion and zero-origin output.
func TestToGrayConvertsColor(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 14, 12))
	for y := 10; y < 12; y++ {
		for x := 10; x < 14; x++ {
			src.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}

	gray := ToGray(src)
	if gray.Bounds() != image.Rect(0, 0, 4, 2) {
		t.Fatalf("bounds = %v, want (0,0)-(4,2)", gray.Bounds())
	}
	if got := gray.GrayAt(3, 1).Y; got != 255 {
		t.Fatalf("white pixel = %d, want 255", got)
	}
}

// TestToGrayKeepsGrayInput checks the no-op path.
func TestToGrayKeepsGrayInput(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 2))
	if ToGray(src) != src {
		t.Fatal("expected same image for gray input")
	}
}

// TestResizeDimensions checks output size for up and same scaling.
func TestResizeDimensions(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 5, 3))
	src.SetGray(1, 1, color.Gray{Y: 200})

	up := Resize(src, 20, 12)
	if up.Bounds().Dx() != 20 || up.Bounds().Dy() != 12 {
		t.Fatalf("resized bounds = %v", up.Bounds())
	}

	same := Resize(src, 5, 3)
	if got := same.GrayAt(1, 1).Y; got != 200 {
		t.Fatalf("copied pixel = %d, want 200", got)
	}
}

// TestUnsharpMaskFlatImageUnchanged checks flat input stays flat and progress completes.
func TestUnsharpMaskFlatImageUnchanged(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 40, 40))
	for i := range src.Pix {
		src.Pix[i] = 128
	}

	var reports []float64
	out := UnsharpMask(src, 10, 1.0, func(f float64) { reports = append(reports, f) })

	for _, v := range out.Pix {
		if v != 128 {
			t.Fatalf("pixel = %d, want 128", v)
		}
	}
	if len(reports) == 0 || reports[len(reports)-1] != 1 {
		t.Fatalf("progress reports = %v, want ending at 1", reports)
	}
	for i := 1; i < len(reports); i++ {
		if reports[i] < reports[i-1] {
			t.Fatalf("progress decreased: %v", reports)
		}
	}
}

// TestUpscaleFactor checks factor selection against the pixel cap.
func TestUpscaleFactor(t *testing.T) {
	const maxPixels = 16_000_000
	if got := UpscaleFactor(400, 300, maxPixels); got != 4 {
		t.Fatalf("small capture factor = %d, want 4", got)
	}
	if got := UpscaleFactor(4000, 3000, maxPixels); got != 1 {
		t.Fatalf("large capture factor = %d, want 1", got)
	}
	if got := UpscaleFactor(1500, 1000, maxPixels); got != 2 {
		t.Fatalf("mid capture factor = %d, want 2", got)
	}
}

// TestDebugDumperWritesPNG checks the file naming.
func TestDebugDumperWritesPNG(t *testing.T) {
	dir := t.TempDir()
	d := DebugDumper{Dir: dir}
	if err := d.Dump(2, "grayscale", image.NewGray(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("Dump() error = %v", err)
	}

	path := filepath.Join(dir, "screen_ocr_debug_2_grayscale.png")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat dump: %v", err)
	}
	if _, err := Open(path); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
}
