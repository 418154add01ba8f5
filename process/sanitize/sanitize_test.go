package sanitize

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"timetable/pkg/store"
	"timetable/pkg/timetable"
)

func setup(t *testing.T) (*store.Store, timetable.Workspace) {
	t.Helper()
	db, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))
	st := store.New(db)
	_, err = st.SaveEntries(context.Background(), "r", []timetable.Entry{{Day: "Monday", Subject: "technical", Time: "07:00 AM"}})
	require.NoError(t, err)

	ws := timetable.Workspace{Root: t.TempDir()}
	require.NoError(t, ws.Prepare())
	require.NoError(t, timetable.WriteRecordFile(ws.RecordPath("Monday"), []timetable.Entry{{Subject: "technical", Time: "07:00 AM"}}))
	return st, ws
}

func TestDryRunChangesNothing(t *testing.T) {
	st, ws := setup(t)
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), st, ws, Options{DryRun: true, Yes: true}, &out))
	require.Contains(t, out.String(), "dry-run")
	require.FileExists(t, ws.RecordPath("Monday"))
	rows, err := st.ListEntries(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestNeedsConfirmation(t *testing.T) {
	st, ws := setup(t)
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), st, ws, Options{}, &out))
	require.Contains(t, out.String(), "Aborting")
	require.FileExists(t, ws.RecordPath("Monday"))
}

func TestRunClearsDatabaseAndRecords(t *testing.T) {
	st, ws := setup(t)
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), st, ws, Options{Yes: true, Scratch: true}, &out))
	require.NoFileExists(t, ws.RecordPath("Monday"))
	require.NoDirExists(t, ws.TextDir())
	require.DirExists(t, ws.RecordDir())
	rows, err := st.ListEntries(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, rows)
	require.Contains(t, out.String(), "deleted entries=1")
}
