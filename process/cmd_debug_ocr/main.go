package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/disintegration/imaging"

	"timetable/pkg/ocr"
	"timetable/pkg/timetable"
)

func main() {
	f := flag.String("file", "", "cell image to OCR")
	threshold := flag.Int("threshold", ocr.CellThreshold, "binarization threshold (0-255)")
	parse := flag.Bool("parse", false, "also run the timetable parser on the text")
	flag.Parse()
	if *f == "" {
		log.Fatalf("-file required")
	}
	img, err := imaging.Open(*f)
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	png, err := ocr.EncodePNG(ocr.PrepareCell(img, uint8(*threshold)))
	if err != nil {
		log.Fatalf("encode: %v", err)
	}
	engine, err := ocr.NewEngine(os.Getenv("OCR_LANG"))
	if err != nil {
		log.Fatalf("tesseract: %v", err)
	}
	defer engine.Close()
	text, err := engine.Recognize(png)
	if err != nil {
		log.Fatalf("ocr error: %v", err)
	}
	fmt.Printf("text=%q\n", text)
	if *parse {
		for _, e := range timetable.NewParser(timetable.DefaultVocabulary()).ParseString(text, nil) {
			fmt.Printf("subject=%q time=%q\n", e.Subject, e.Time)
		}
	}
}
