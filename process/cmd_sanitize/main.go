package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"timetable/pkg/envconf"
	"timetable/pkg/store"
	"timetable/process/sanitize"
)

func main() {
	var (
		dryRun  = flag.Bool("dry-run", true, "Don't perform destructive actions; show what would be done")
		yes     = flag.Bool("yes", false, "Confirm destructive action (required to actually delete)")
		keep    = flag.Bool("keep-records", false, "Leave the per-day record files in place")
		scratch = flag.Bool("scratch", false, "Also remove rows/, cells/ and text/ under OUTPUT_ROOT")
		noDB    = flag.Bool("files-only", false, "Do not touch the database")
	)
	flag.Parse()
	envconf.LoadDotEnv("")

	var st *store.Store
	if !*noDB {
		st = envconf.MustStore()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	opts := sanitize.Options{DryRun: *dryRun, Yes: *yes, KeepRecords: *keep, Scratch: *scratch}
	if err := sanitize.Run(ctx, st, envconf.Workspace(), opts, os.Stdout); err != nil {
		log.Fatal(err)
	}
}
