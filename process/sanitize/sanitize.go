// Package sanitize wipes stored timetable state so extraction can start over.
// The database rows and the per-day record files dedupe independently, so
// both are cleared together unless asked otherwise.
package sanitize

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"timetable/pkg/store"
	"timetable/pkg/timetable"
)

type Options struct {
	// DryRun only reports what would be removed.
	DryRun bool
	// Yes confirms the destructive run.
	Yes bool
	// KeepRecords leaves <root>/timetable/*.txt in place.
	KeepRecords bool
	// Workspace dirs other than the record files (rows, cells, text) are
	// removed too when Scratch is set.
	Scratch bool
}

// Run executes the sanitize behaviour and writes a human summary to w.
func Run(ctx context.Context, st *store.Store, ws timetable.Workspace, opts Options, w io.Writer) error {
	var targets []string
	if !opts.KeepRecords {
		files, _ := filepath.Glob(filepath.Join(ws.RecordDir(), "*.txt"))
		targets = append(targets, files...)
	}
	if opts.Scratch {
		targets = append(targets, ws.RowDir(), ws.CellsDir(), ws.TextDir())
	}

	fmt.Fprintln(w, "Considered for removal:")
	if st != nil {
		fmt.Fprintln(w, " - table timetable_entries")
		fmt.Fprintln(w, " - table extractions")
	}
	for _, t := range targets {
		fmt.Fprintf(w, " - %s\n", t)
	}

	if opts.DryRun {
		fmt.Fprintln(w, "dry-run enabled; no changes will be made. Use --dry-run=false --yes to execute.")
		return nil
	}
	if !opts.Yes {
		fmt.Fprintln(w, "Destructive operation. Pass --yes to confirm execution. Aborting.")
		return nil
	}

	if st != nil {
		ne, nx, err := st.Reset(ctx)
		if err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		fmt.Fprintf(w, "deleted entries=%d extractions=%d\n", ne, nx)
	}
	for _, t := range targets {
		if err := os.RemoveAll(t); err != nil {
			return fmt.Errorf("remove %s: %w", t, err)
		}
	}
	fmt.Fprintf(w, "removed %d paths\n", len(targets))
	return nil
}
