package report

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"timetable/pkg/store"
	"timetable/pkg/timetable"
)

func TestWriteGroupsByLayoutDay(t *testing.T) {
	db, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "r.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))
	st := store.New(db)
	ctx := context.Background()
	_, err = st.SaveEntries(ctx, "r1", []timetable.Entry{
		{Day: "Tuesday", Subject: "technical", Time: "09:00 AM"},
		{Day: "Monday", Subject: "computer vision", Time: "08:00 AM"},
		{Day: "Saturday", Subject: "technical", Time: "10:00 AM"},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(ctx, st, &buf, timetable.DefaultLayout().DayNames(), "", true))
	want := "Timetable (3 entries):\n" +
		"  Monday: 1\n    08:00 AM  computer vision  (run r1)\n" +
		"  Tuesday: 1\n    09:00 AM  technical  (run r1)\n" +
		"  Saturday: 1\n    10:00 AM  technical  (run r1)\n"
	require.Equal(t, want, buf.String())

	buf.Reset()
	require.NoError(t, Write(ctx, st, &buf, timetable.DefaultLayout().DayNames(), "Monday", false))
	require.Equal(t, "Timetable (1 entries):\n  Monday: 1\n", buf.String())
}
