package timetable

import "fmt"

// ImageLoadError is returned when the source image is missing or cannot be decoded.
// It aborts the whole run for that image.
type ImageLoadError struct {
	Path string
	Err  error
}

func (e *ImageLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load image: %v", e.Err)
	}
	return fmt.Sprintf("load image %s: %v", e.Path, e.Err)
}

func (e *ImageLoadError) Unwrap() error { return e.Err }

// ConfigError reports an invalid layout or vocabulary.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// SegmentationError is recorded per day band; the other days continue.
type SegmentationError struct {
	Day string
	Err error
}

func (e *SegmentationError) Error() string {
	return fmt.Sprintf("segment %s: %v", e.Day, e.Err)
}

func (e *SegmentationError) Unwrap() error { return e.Err }

// OCRError is recorded per day when a cell cannot be read or recognized.
type OCRError struct {
	Day  string
	Cell int
	Err  error
}

func (e *OCRError) Error() string {
	if e.Cell < 0 {
		return fmt.Sprintf("ocr %s: %v", e.Day, e.Err)
	}
	return fmt.Sprintf("ocr %s cell %d: %v", e.Day, e.Cell, e.Err)
}

func (e *OCRError) Unwrap() error { return e.Err }
