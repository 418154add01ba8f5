// Package ocr wraps Tesseract for timetable cells.
package ocr

import (
	"fmt"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Engine recognizes single-block cell images with one Tesseract client.
// Calls are serialized; the client is not safe for concurrent use.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewEngine creates an engine for lang (default "eng").
func NewEngine(lang string) (*Engine, error) {
	if lang == "" {
		lang = "eng"
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(lang); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}
	// PSM 6 = a single uniform block of text
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set PSM: %w", err)
	}
	return &Engine{client: client}, nil
}

// Recognize returns the raw text of an encoded image.
func (e *Engine) Recognize(img []byte) (string, error) {
	if len(img) == 0 {
		return "", ErrEmptyImage
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return "", ErrClosed
	}
	if err := e.client.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr error: %w", err)
	}
	return text, nil
}

// Close releases the Tesseract client.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}
