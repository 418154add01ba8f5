// Package runner ties a pipeline run to locking and persistence. The HTTP
// service, the inbox watcher and the CLI all go through it.
package runner

import (
	"context"
	"fmt"
	"image"
	"log"
	"path/filepath"

	"github.com/google/uuid"

	"timetable/pkg/runlock"
	"timetable/pkg/store"
	"timetable/pkg/timetable"
)

// Runner runs the pipeline under a lock named after the workspace root.
// Store and Locker are optional.
type Runner struct {
	Pipeline *timetable.Pipeline
	Store    *store.Store
	Locker   runlock.Locker
}

// Result is what one run produced.
type Result struct {
	RunID  string
	Report *timetable.Report
	// Entries are the entries new to the record files, in day order.
	Entries []timetable.Entry
	// Stored is how many rows were new to the database. It can exceed
	// len(Entries) when an earlier save failed.
	Stored int
}

// LockName is the absolute workspace root, so processes started from
// different directories agree on it.
func LockName(ws timetable.Workspace) string {
	if abs, err := filepath.Abs(ws.Root); err == nil {
		return abs
	}
	return filepath.Clean(ws.Root)
}

// Run processes img. runID may be empty. A persistence failure is logged and
// returned; the record files are already written at that point.
func (r *Runner) Run(ctx context.Context, runID string, img image.Image, source, storePath string) (*Result, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	res := &Result{RunID: runID}

	if r.Locker != nil {
		release, err := r.Locker.Acquire(ctx, LockName(r.Pipeline.Workspace))
		if err != nil {
			return res, fmt.Errorf("acquire run lock: %w", err)
		}
		defer func() {
			if err := release(); err != nil {
				log.Printf("WARN run %s: release lock: %v", runID, err)
			}
		}()
	}

	rep, runErr := r.Pipeline.RunWithID(ctx, runID, img)
	res.Report = rep
	if rep != nil {
		res.Entries = rep.All()
	}

	if r.Store == nil {
		return res, runErr
	}
	if runErr == nil {
		// Everything on record for the parsed days is sent, not only this
		// run's additions, so entries left behind by a failed save get stored.
		recorded, err := Recorded(rep, r.Pipeline.Workspace)
		if err != nil {
			log.Printf("WARN run %s: read records: %v", runID, err)
		}
		if len(recorded) > 0 {
			n, err := r.Store.SaveEntries(context.WithoutCancel(ctx), runID, recorded)
			if err != nil {
				log.Printf("ERROR run %s: save entries: %v", runID, err)
				runErr = fmt.Errorf("save entries: %w", err)
			}
			res.Stored = n
		}
	}
	ex := store.ExtractionFor(rep, runID, source, storePath, res.Stored, runErr)
	if err := r.Store.RecordExtraction(context.WithoutCancel(ctx), ex); err != nil {
		log.Printf("ERROR run %s: record extraction: %v", runID, err)
	}
	return res, runErr
}

// RunFile opens path and runs it; a load failure is recorded like any other
// failed run.
func (r *Runner) RunFile(ctx context.Context, path, source string) (*Result, error) {
	img, err := timetable.OpenImage(path)
	if err != nil {
		runID := uuid.NewString()
		if r.Store != nil {
			ex := store.ExtractionFor(nil, runID, source, path, 0, err)
			if rerr := r.Store.RecordExtraction(ctx, ex); rerr != nil {
				log.Printf("ERROR run %s: record extraction: %v", runID, rerr)
			}
		}
		return &Result{RunID: runID}, err
	}
	return r.Run(ctx, "", img, source, path)
}

// Recorded returns the record-file entries of every day rep parsed, in day
// order.
func Recorded(rep *timetable.Report, ws timetable.Workspace) ([]timetable.Entry, error) {
	if rep == nil {
		return nil, nil
	}
	parsed := make(map[string]bool, len(rep.Parse.Done))
	for _, d := range rep.Parse.Done {
		parsed[d] = true
	}
	var out []timetable.Entry
	for _, day := range rep.Days {
		if !parsed[day] {
			continue
		}
		entries, err := timetable.ReadRecordFile(ws.RecordPath(day))
		if err != nil {
			return out, fmt.Errorf("%s: %w", day, err)
		}
		for _, e := range entries {
			e.Day = day
			out = append(out, e)
		}
	}
	return out, nil
}
