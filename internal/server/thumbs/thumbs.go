// Package thumbs generates image thumbnails for the media catalog. The
// engine only decides when to thumbnail and where the result is stored;
// resizing itself is behind the Generator interface.
package thumbs

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/artfolio/mediakeeper/internal/common"
)

// Generator produces a thumbnail from original image bytes, keeping the
// source encoding.
type Generator interface {
	Generate(data []byte) ([]byte, error)
}

// BoxGenerator scales images to fit inside a square bounding box, preserving
// aspect ratio. Images already inside the box pass through re-encoded but
// unscaled.
type BoxGenerator struct {
	maxSize int
}

func NewBoxGenerator(maxSize int) *BoxGenerator {
	return &BoxGenerator{maxSize: maxSize}
}

func (g *BoxGenerator) Generate(data []byte) ([]byte, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %w", common.ErrorValidation, err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: empty image", common.ErrorValidation)
	}

	scale := 1.0
	if w > g.maxSize || h > g.maxSize {
		sw := float64(g.maxSize) / float64(w)
		sh := float64(g.maxSize) / float64(h)
		scale = min(sw, sh)
	}

	dw := max(1, int(float64(w)*scale))
	dh := max(1, int(float64(h)*scale))

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, dst)
	case "gif":
		err = gif.Encode(&buf, dst, nil)
	default:
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	return buf.Bytes(), nil
}
