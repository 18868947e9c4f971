package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"
)

// Options control how a sheet side is rasterized.
type Options struct {
	DPI     int
	Quality int
	Gray    bool
}

// DefaultOptions renders a screen-sized thumbnail.
var DefaultOptions = Options{DPI: 72, Quality: 80}

// RenderSide renders side (1-based output page) of an imposed PDF as JPEG.
// Returns JPEG bytes, width, height, error
func RenderSide(pdfPath string, side int, opts Options) ([]byte, int, int, error) {
	if opts.DPI <= 0 {
		opts.DPI = DefaultOptions.DPI
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultOptions.Quality
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if side < 1 || side > doc.NumPage() {
		return nil, 0, 0, fmt.Errorf("side %d out of range 1..%d", side, doc.NumPage())
	}

	// go-fitz uses 0-based indexing
	img, err := doc.ImageDPI(side-1, float64(opts.DPI))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to render side %d: %w", side, err)
	}

	bounds := img.Bounds()
	var out image.Image = img
	if opts.Gray {
		gray := image.NewGray(bounds)
		draw.Draw(gray, bounds, img, image.Point{}, draw.Src)
		out = gray
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode JPEG: %w", err)
	}

	log.Debug().
		Int("side", side).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Int("jpeg_size", buf.Len()).
		Bool("gray", opts.Gray).
		Msg("rendered sheet side")

	return buf.Bytes(), bounds.Dx(), bounds.Dy(), nil
}
