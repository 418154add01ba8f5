package ocr

import (
	"bytes"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// CellThreshold is the fixed gray level used to binarize timetable cells.
const CellThreshold = 150

// binarize performs a global threshold on img. With inverse set, pixels
// brighter than threshold become black and the rest white; otherwise the
// reverse.
func binarize(img image.Image, threshold uint8, inverse bool) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bb, _ := img.At(x, y).RGBA()
			gray := uint8((r + g + bb) / 3 >> 8)
			bright := gray > threshold
			var v uint8
			if bright != inverse {
				v = 255
			}
			out.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{Y: v})
		}
	}
	return out
}

// PrepareCell grayscales a cell and applies an inverse fixed threshold.
func PrepareCell(img image.Image, threshold uint8) *image.Gray {
	return binarize(imaging.Grayscale(img), threshold, true)
}

// EncodePNG encodes img for the recognizer.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
