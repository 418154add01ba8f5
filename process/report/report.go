// Package report prints the stored timetable grouped by day.
package report

import (
	"context"
	"fmt"
	"io"

	"timetable/models"
	"timetable/pkg/store"
)

// Write prints the entries of days (in that order) followed by any day not
// listed, then a total. An empty only filter prints every day.
func Write(ctx context.Context, st *store.Store, w io.Writer, days []string, only string, list bool) error {
	rows, err := st.ListEntries(ctx, only)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	byDay := map[string][]models.TimetableEntry{}
	var extra []string
	known := map[string]bool{}
	for _, d := range days {
		known[d] = true
	}
	for _, r := range rows {
		if !known[r.Day] && byDay[r.Day] == nil {
			extra = append(extra, r.Day)
		}
		byDay[r.Day] = append(byDay[r.Day], r)
	}

	fmt.Fprintf(w, "Timetable (%d entries):\n", len(rows))
	for _, d := range append(append([]string{}, days...), extra...) {
		es := byDay[d]
		if len(es) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s: %d\n", d, len(es))
		if !list {
			continue
		}
		for _, e := range es {
			fmt.Fprintf(w, "    %s  %s  (run %s)\n", e.Time, e.Subject, e.RunID)
		}
	}
	return nil
}
