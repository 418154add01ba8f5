package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/disintegration/imaging"

	"timetable/pkg/ocr"
)

// Writes the binarized cell the recognizer would see, for eyeballing
// threshold choices.
func main() {
	in := flag.String("file", "", "cell image")
	out := flag.String("out", "/tmp/cell.bin.png", "where to write the binarized cell")
	threshold := flag.Int("threshold", ocr.CellThreshold, "binarization threshold (0-255)")
	flag.Parse()
	if *in == "" {
		log.Fatalf("-file required")
	}
	img, err := imaging.Open(*in)
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	bin := ocr.PrepareCell(img, uint8(*threshold))
	if err := imaging.Save(bin, *out); err != nil {
		log.Fatalf("save: %v", err)
	}
	fmt.Printf("wrote %s (%dx%d)\n", *out, bin.Bounds().Dx(), bin.Bounds().Dy())
}
