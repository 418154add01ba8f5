// Command cmd_watch runs every timetable photo dropped into an inbox
// directory through the pipeline and stores the new entries.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"timetable/models"
	"timetable/pkg/envconf"
	"timetable/pkg/ocr"
	"timetable/pkg/runner"
	"timetable/pkg/store"
	"timetable/pkg/timetable"
	"timetable/process/inbox"
)

func main() {
	dirFlag := flag.String("dir", "inbox", "directory to scan for timetable photos")
	watch := flag.Bool("watch", false, "Watch directory for new files")
	noDB := flag.Bool("no-db", false, "Only write record files; skip the database")
	verbose := flag.Bool("verbose", false, "Verbose per-file logging")
	flag.Parse()
	envconf.LoadDotEnv("")

	layout, vocab, err := envconf.Tables()
	if err != nil {
		log.Fatal(err)
	}
	engine, err := ocr.NewEngine(envconf.String("OCR_LANG", "eng"))
	if err != nil {
		log.Fatalf("failed to start tesseract: %v", err)
	}
	defer engine.Close()

	ws := envconf.Workspace()
	if err := ws.Prepare(); err != nil {
		log.Fatal(err)
	}
	r := &runner.Runner{Pipeline: timetable.New(layout, vocab, engine, ws), }
	if !*noDB {
		st := envconf.MustStore()
		if err := store.Migrate(st.DB()); err != nil {
			log.Printf("migration warning: %v", err)
		}
		r.Store = st
	}
	locker, closeLocker, err := envconf.Locker(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	defer closeLocker()
	r.Locker = locker

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := &inbox.Processor{
		Dir:     *dirFlag,
		Watch:   *watch,
		Verbose: *verbose,
		Handle: func(ctx context.Context, path string) error {
			res, err := r.RunFile(ctx, path, models.SourceWatch)
			if err != nil {
				return err
			}
			log.Printf("NEW %s run=%s status=%s entries=%d stored=%d", path, res.RunID, res.Report.Status(), len(res.Entries), res.Stored)
			return nil
		},
	}
	if err := p.Run(ctx); err != nil {
		log.Fatalf("watch failed: %v", err)
	}
}
