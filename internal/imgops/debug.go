package imgops

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// DebugDumper writes intermediate preprocessing images for inspection.
type DebugDumper struct {
	Dir    string
	Prefix string
}

// Dump saves img as <Dir>/<Prefix>_<step>_<name>.png.
func (d DebugDumper) Dump(step int, name string, img image.Image) error {
	prefix := d.Prefix
	if prefix == "" {
		prefix = "screen_ocr_debug"
	}
	path := filepath.Join(d.Dir, fmt.Sprintf("%s_%d_%s.png", prefix, step, name))
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("save debug image %s: %w", path, err)
	}
	return nil
}

// Open decodes an image file, applying EXIF orientation.
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	return img, nil
}
