package ocr

import "errors"

// ErrEmptyImage is returned when a cell has no pixels to recognize.
var ErrEmptyImage = errors.New("empty image")

// ErrClosed is returned by an Engine used after Close.
var ErrClosed = errors.New("ocr engine closed")
