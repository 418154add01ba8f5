package ocr

import (
	"strings"
	"unicode/utf8"
)

// Snippet returns a shortened version of text for logging.
func Snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max < 0 {
		max = 0
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

// OneLine collapses whitespace and newlines so raw OCR text fits in a log line.
func OneLine(t string) string {
	t = strings.ReplaceAll(t, "\n", " ")
	t = strings.ReplaceAll(t, "\t", " ")
	return strings.Join(strings.Fields(t), " ")
}
