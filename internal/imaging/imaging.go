// Package imaging produces uniform-sized thumbnails from uploaded images.
// Instead of cropping or stretching, the source is scaled to fit the target
// box and centred on a canvas filled with the image's own mean colour, so
// every stored image has exactly the configured dimensions.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Defaults for the target bounding box and JPEG output.
const (
	DefaultWidth   = 800
	DefaultHeight  = 600
	DefaultQuality = 85
)

// allowedExtensions is the upload allow-list.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// AllowedExtension reports whether a filename carries an accepted image
// extension.
func AllowedExtension(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Options configures the letterbox target box and output quality.
type Options struct {
	Width   int
	Height  int
	Quality int
}

// DefaultOptions returns the default target box and quality.
func DefaultOptions() Options {
	return Options{Width: DefaultWidth, Height: DefaultHeight, Quality: DefaultQuality}
}

// Letterbox decodes an uploaded image, scales it by
// min(targetW/origW, targetH/origH) with Catmull-Rom resampling, and centres
// it on a canvas of exactly the target dimensions filled with the resized
// image's mean colour. The result is JPEG-encoded at the configured quality.
func Letterbox(r io.Reader, opts Options) ([]byte, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid target dimensions %dx%d", opts.Width, opts.Height)
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultQuality
	}

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	scaled := scaleToFit(img, opts.Width, opts.Height)
	bg := meanColor(scaled)

	canvas := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	offset := image.Pt(
		(opts.Width-scaled.Bounds().Dx())/2,
		(opts.Height-scaled.Bounds().Dy())/2,
	)
	draw.Draw(canvas, scaled.Bounds().Add(offset), scaled, scaled.Bounds().Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// scaleToFit resizes img so it fits inside targetW x targetH while
// preserving aspect ratio. Uses high-quality Catmull-Rom interpolation.
func scaleToFit(img image.Image, targetW, targetH int) *image.RGBA {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	ratio := min(float64(targetW)/float64(w), float64(targetH)/float64(h))
	newW := int(float64(w) * ratio)
	newH := int(float64(h) * ratio)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}

// meanColor computes the average colour of an image, used as the letterbox
// background so padding blends with the content.
func meanColor(img *image.RGBA) color.RGBA {
	bounds := img.Bounds()
	var rSum, gSum, bSum, count uint64

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			i := img.PixOffset(x, y)
			rSum += uint64(img.Pix[i])
			gSum += uint64(img.Pix[i+1])
			bSum += uint64(img.Pix[i+2])
			count++
		}
	}
	if count == 0 {
		return color.RGBA{A: 255}
	}

	return color.RGBA{
		R: uint8(rSum / count),
		G: uint8(gSum / count),
		B: uint8(bSum / count),
		A: 255,
	}
}

func init() {
	// Register decoders (jpeg is registered by default, but be explicit).
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
