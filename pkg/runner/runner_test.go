package runner

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"timetable/models"
	"timetable/pkg/runlock"
	"timetable/pkg/store"
	"timetable/pkg/timetable"
)

func init() { timetable.SetLogger(nil) }

type queueRecognizer struct {
	mu    sync.Mutex
	texts []string
}

func (q *queueRecognizer) Recognize([]byte) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.texts) == 0 {
		return "", nil
	}
	t := q.texts[0]
	q.texts = q.texts[1:]
	return t, nil
}

type wholeBand struct{}

func (wholeBand) SegmentDay(day string, ws timetable.Workspace) ([]timetable.Cell, error) {
	band, err := imaging.Open(ws.RowPath(day))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(ws.CellDir(day), 0o755); err != nil {
		return nil, err
	}
	if err := imaging.Save(band, ws.CellPath(day, 0)); err != nil {
		return nil, err
	}
	return []timetable.Cell{{Path: ws.CellPath(day, 0)}}, nil
}

func newRunner(t *testing.T, texts ...string) *Runner {
	t.Helper()
	p := timetable.New(timetable.DefaultLayout(), timetable.DefaultVocabulary(),
		&queueRecognizer{texts: texts}, timetable.Workspace{Root: t.TempDir()})
	p.Segmenter = wholeBand{}

	db, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "tt.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))
	return &Runner{Pipeline: p, Store: store.New(db), Locker: runlock.NewLocal()}
}

func TestRunPersistsNewEntries(t *testing.T) {
	r := newRunner(t, "computer vision\n0900-1000", "technical\n1000-1100")
	img := imaging.New(1200, 600, color.White)

	res, err := r.Run(context.Background(), "run-a", img, models.SourceCLI, "x.png")
	require.NoError(t, err)
	require.Equal(t, "run-a", res.RunID)
	require.Len(t, res.Entries, 2)
	require.Equal(t, 2, res.Stored)

	ex, err := r.Store.GetExtraction(context.Background(), "run-a")
	require.NoError(t, err)
	require.Equal(t, "success", ex.Status)
	require.Equal(t, 2, ex.NewEntries)

	rows, err := r.Store.ListEntries(context.Background(), "Tuesday")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "09:00 AM", rows[0].Time)
}

func TestRunRecordsTotalFailure(t *testing.T) {
	r := newRunner(t)
	res, err := r.Run(context.Background(), "", imaging.New(100, 100, color.White), models.SourceUpload, "small.png")
	var ce *timetable.ConfigError
	require.True(t, errors.As(err, &ce))
	require.NotEmpty(t, res.RunID)

	ex, err := r.Store.GetExtraction(context.Background(), res.RunID)
	require.NoError(t, err)
	require.Equal(t, "failure", ex.Status)
	require.NotEmpty(t, ex.FailedReason)
}

func TestRunFileMissing(t *testing.T) {
	r := newRunner(t)
	res, err := r.RunFile(context.Background(), filepath.Join(t.TempDir(), "gone.jpg"), models.SourceWatch)
	var le *timetable.ImageLoadError
	require.True(t, errors.As(err, &le))

	ex, err := r.Store.GetExtraction(context.Background(), res.RunID)
	require.NoError(t, err)
	require.Equal(t, models.SourceWatch, ex.Source)
}

func TestRunWithoutStore(t *testing.T) {
	r := newRunner(t, "computer networks 0800-0900")
	r.Store = nil
	r.Locker = nil
	res, err := r.Run(context.Background(), "", imaging.New(1200, 600, color.White), models.SourceCLI, "")
	require.NoError(t, err)
	require.Equal(t, []timetable.Entry{{Day: "Monday", Subject: "computer networks", Time: "07:00 AM"}}, res.Entries)
	require.Zero(t, res.Stored)
}

func TestRunStoresEntriesLeftByFailedSave(t *testing.T) {
	r := newRunner(t, "computer vision\n0900-1000")
	ctx := context.Background()
	img := imaging.New(1200, 600, color.White)
	require.NoError(t, r.Store.DB().Migrator().DropTable(&models.TimetableEntry{}))

	_, err := r.Run(ctx, "run-a", img, models.SourceUpload, "a.png")
	require.Error(t, err)
	ex, err := r.Store.GetExtraction(ctx, "run-a")
	require.NoError(t, err)
	require.Equal(t, "failure", ex.Status)

	// the record file already holds the entry, so this run adds nothing new
	require.NoError(t, store.Migrate(r.Store.DB()))
	res, err := r.Run(ctx, "run-b", img, models.SourceRetry, "a.png")
	require.NoError(t, err)
	require.Empty(t, res.Entries)
	require.Equal(t, 1, res.Stored)

	rows, err := r.Store.ListEntries(ctx, "Monday")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "computer vision", rows[0].Subject)
	require.Equal(t, "08:00 AM", rows[0].Time)
}

func TestRecordedOnlyParsedDays(t *testing.T) {
	ws := timetable.Workspace{Root: t.TempDir()}
	require.NoError(t, ws.Prepare())
	require.NoError(t, timetable.WriteRecordFile(ws.RecordPath("Monday"), []timetable.Entry{{Subject: "technical", Time: "07:00 AM"}}))
	require.NoError(t, timetable.WriteRecordFile(ws.RecordPath("Tuesday"), []timetable.Entry{{Subject: "computer vision", Time: "08:00 AM"}}))

	rep := &timetable.Report{
		Days:  []string{"Monday", "Tuesday"},
		Parse: timetable.StageResult{Done: []string{"Tuesday"}},
	}
	got, err := Recorded(rep, ws)
	require.NoError(t, err)
	require.Equal(t, []timetable.Entry{{Day: "Tuesday", Subject: "computer vision", Time: "08:00 AM"}}, got)

	got, err = Recorded(nil, ws)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestLockNameIsAbsolute(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(wd, "output"), LockName(timetable.Workspace{Root: "output"}))
	require.Equal(t, LockName(timetable.Workspace{Root: "./output/"}), LockName(timetable.Workspace{Root: "output"}))
}
