package timetable

import (
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"timetable/pkg/ocr"
)

// Recognizer returns the text of an encoded (PNG) image. *ocr.Engine
// satisfies it.
type Recognizer interface {
	Recognize(img []byte) (string, error)
}

// ReadDay binarizes and recognizes every cell in order and writes the
// concatenated text, one block per cell followed by a newline, to
// ws.TextPath(day). Zero cells produce an empty text file.
func ReadDay(day string, cells []Cell, rec Recognizer, ws Workspace) (string, error) {
	var b strings.Builder
	for _, c := range cells {
		img, err := imaging.Open(c.Path)
		if err != nil {
			return "", &OCRError{Day: day, Cell: c.Index, Err: errors.Wrap(err, "open cell")}
		}
		png, err := ocr.EncodePNG(ocr.PrepareCell(img, ocr.CellThreshold))
		if err != nil {
			return "", &OCRError{Day: day, Cell: c.Index, Err: errors.Wrap(err, "encode cell")}
		}
		text, err := rec.Recognize(png)
		if err != nil {
			return "", &OCRError{Day: day, Cell: c.Index, Err: err}
		}
		logger.Printf("ocr %s: %q", cellName(day, c), ocr.Snippet(ocr.OneLine(text), 80))
		b.WriteString(text)
		b.WriteString("\n")
	}

	if err := os.MkdirAll(ws.TextDir(), 0o755); err != nil {
		return "", &OCRError{Day: day, Cell: -1, Err: errors.Wrap(err, "mkdir text")}
	}
	text := b.String()
	if err := os.WriteFile(ws.TextPath(day), []byte(text), 0o644); err != nil {
		return "", &OCRError{Day: day, Cell: -1, Err: errors.Wrap(err, "write day text")}
	}
	logger.Printf("text extracted and saved to %s", ws.TextPath(day))
	return text, nil
}
