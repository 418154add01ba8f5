package timetable

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
)

func init() { SetLogger(nil) }

// scriptRecognizer returns texts in call order and remembers the images.
type scriptRecognizer struct {
	mu     sync.Mutex
	texts  []string
	failAt int
	calls  int
	images []image.Image
}

func (s *scriptRecognizer) Recognize(b []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failAt > 0 && s.calls == s.failAt {
		return "", errors.New("tesseract exploded")
	}
	img, err := imaging.Decode(bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	s.images = append(s.images, img)
	if len(s.texts) == 0 {
		return "", nil
	}
	t := s.texts[0]
	s.texts = s.texts[1:]
	return t, nil
}

func whiteImage(w, h int) *image.NRGBA {
	return imaging.New(w, h, color.NRGBA{255, 255, 255, 255})
}

func fillBlack(img draw.Image, r image.Rectangle) {
	draw.Draw(img, r, &image.Uniform{color.Black}, image.Point{}, draw.Src)
}

func saveImage(t *testing.T, img image.Image, path string) {
	t.Helper()
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
}
