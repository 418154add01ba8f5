// Command cmd_retry_failed re-runs extractions that failed or only partly
// succeeded, using the image kept at their store path.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"timetable/models"
	"timetable/pkg/envconf"
	"timetable/pkg/ocr"
	"timetable/pkg/runner"
	"timetable/pkg/timetable"
)

func main() {
	limit := flag.Int("limit", 20, "maximum number of runs to retry")
	partial := flag.Bool("partial", true, "also retry partially successful runs")
	dry := flag.Bool("dry-run", false, "list the runs without retrying them")
	flag.Parse()
	envconf.LoadDotEnv("")

	if os.Getenv("DB_DSN") == "" {
		log.Fatal("DB_DSN not set")
	}
	st := envconf.MustStore()
	ctx := context.Background()

	statuses := []string{timetable.StatusFailure.String()}
	if *partial {
		statuses = append(statuses, timetable.StatusPartial.String())
	}
	runs, err := st.ListExtractions(ctx, *limit, statuses...)
	if err != nil {
		log.Fatalf("query: %v", err)
	}
	if len(runs) == 0 || *dry {
		for _, ex := range runs {
			fmt.Printf("%s %s %s %s\n", ex.RunID, ex.Status, ex.StorePath, ex.FailedReason)
		}
		return
	}

	layout, vocab, err := envconf.Tables()
	if err != nil {
		log.Fatal(err)
	}
	engine, err := ocr.NewEngine(envconf.String("OCR_LANG", "eng"))
	if err != nil {
		log.Fatalf("failed to start tesseract: %v", err)
	}
	defer engine.Close()
	locker, closeLocker, err := envconf.Locker(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer closeLocker()
	r := &runner.Runner{
		Pipeline: timetable.New(layout, vocab, engine, envconf.Workspace()),
		Store:    st,
		Locker:   locker,
	}

	for _, ex := range runs {
		if ex.StorePath == "" {
			log.Printf("SKIP %s: no stored image", ex.RunID)
			continue
		}
		if _, err := os.Stat(ex.StorePath); err != nil {
			log.Printf("SKIP %s: %v", ex.RunID, err)
			continue
		}
		res, err := r.RunFile(ctx, ex.StorePath, models.SourceRetry)
		if err != nil {
			log.Printf("retry %s failed: %v", ex.RunID, err)
			continue
		}
		fmt.Printf("retried %s as %s status=%s new=%d\n", ex.RunID, res.RunID, res.Report.Status(), res.Stored)
	}
}
