// Package imgops holds the image transforms applied before recognition.
package imgops

import (
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

// ProgressFunc receives a completion fraction in [0, 1].
type ProgressFunc func(fraction float64)

// ToGray converts img to 8-bit grayscale. *image.Gray input is returned as is.
func ToGray(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok {
		return gray
	}

	nrgba := imaging.Grayscale(img)
	bounds := nrgba.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+bounds.Dx()*4]
		dst := out.Pix[y*out.Stride : y*out.Stride+bounds.Dx()]
		for x := range dst {
			dst[x] = src[x*4]
		}
	}
	return out
}

// Resize scales src to width x height with Catmull-Rom filtering.
func Resize(src *image.Gray, width, height int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, width, height))
	if width == src.Bounds().Dx() && height == src.Bounds().Dy() {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
		return dst
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// UnsharpMask sharpens src by adding amount times the difference between src
// and its Gaussian blur with the given radius.
func UnsharpMask(src *image.Gray, radius, amount float64, progress ProgressFunc) *image.Gray {
	report := func(f float64) {
		if progress != nil {
			progress(f)
		}
	}
	report(0)

	bounds := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	if bounds.Empty() {
		report(1)
		return out
	}

	blurred := imaging.Blur(src, radius/2)
	report(0.5)

	rows := bounds.Dy()
	step := max(1, rows/20)
	for y := 0; y < rows; y++ {
		srcRow := src.Pix[src.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
		blurRow := blurred.Pix[y*blurred.Stride:]
		dstRow := out.Pix[y*out.Stride:]
		for x := 0; x < bounds.Dx(); x++ {
			orig := float64(srcRow[x])
			diff := orig - float64(blurRow[x*4])
			dstRow[x] = clamp(orig + amount*diff)
		}
		if (y+1)%step == 0 {
			report(0.5 + 0.5*float64(y+1)/float64(rows))
		}
	}

	report(1)
	return out
}

// UpscaleFactor picks how much to enlarge a width x height source so small
// captures get enough pixels per glyph without exceeding maxPixels.
func UpscaleFactor(width, height int, maxPixels int64) int {
	area := int64(width) * int64(height)
	for _, factor := range []int{4, 2} {
		if area*int64(factor*factor) <= maxPixels {
			return factor
		}
	}
	return 1
}

// clamp rounds v into the 0..255 byte range.
func clamp(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}
