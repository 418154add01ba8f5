package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"timetable/models"
	"timetable/pkg/timetable"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "tt.db"))
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return New(db)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "x")
	require.Error(t, err)
	_, err = Open(DriverSQLite, " ")
	require.Error(t, err)
}

func TestSaveEntriesIsIdempotent(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	entries := []timetable.Entry{
		{Day: "Monday", Subject: "computer vision", Time: "08:00 AM"},
		{Day: "Monday", Subject: "technical", Time: "09:00 AM"},
		{Day: "Tuesday", Subject: "computer vision", Time: "08:00 AM"},
	}
	n, err := s.SaveEntries(ctx, "run-1", entries)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	n, err = s.SaveEntries(ctx, "run-2", append(entries, timetable.Entry{Day: "Friday", Subject: "technical", Time: "10:00 AM"}))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	all, err := s.ListEntries(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	require.Equal(t, "run-1", all[0].RunID)
	require.Equal(t, "run-2", all[3].RunID)

	mon, err := s.ListEntries(ctx, "Monday")
	require.NoError(t, err)
	require.Len(t, mon, 2)
	for _, e := range mon {
		require.Equal(t, "Monday", e.Day)
	}
}

func TestExtractionRoundTrip(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	_, err := s.GetExtraction(ctx, "missing")
	require.True(t, errors.Is(err, ErrNotFound))

	ex := ExtractionFor(nil, "run-9", models.SourceCLI, "uploads/run-9.png", 0, errors.New("x_end 1200 exceeds image width 1000"))
	require.NoError(t, s.RecordExtraction(ctx, ex))

	got, err := s.GetExtraction(ctx, "run-9")
	require.NoError(t, err)
	require.Equal(t, "failure", got.Status)
	require.Equal(t, models.SourceCLI, got.Source)
	require.Contains(t, got.FailedReason, "exceeds image width")
}

func TestExtractionForReport(t *testing.T) {
	rep := &timetable.Report{RunID: "r"}
	rep.Rows.Done = []string{"Monday", "Tuesday"}
	rep.Segments.Done = []string{"Monday"}
	rep.Segments.Failed = map[string]error{"Tuesday": errors.New("boom")}
	rep.Text.Done = []string{"Monday"}
	rep.Parse.Done = []string{"Monday"}

	ex := ExtractionFor(rep, "r", models.SourceUpload, "p", 2, nil)
	require.Equal(t, "partial", ex.Status)
	require.Equal(t, "Tuesday", ex.FailedDays)
	require.Equal(t, 2, ex.NewEntries)
	require.Empty(t, ex.FailedReason)
}

func TestUsers(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, " alice ", "secret1", "")
	require.NoError(t, err)
	require.Equal(t, "alice", u.Username)
	require.Equal(t, models.RoleUser, u.Role)

	_, err = s.CreateUser(ctx, "alice", "secret2", "")
	require.ErrorIs(t, err, ErrUserExists)
	_, err = s.CreateUser(ctx, "bob", "123", "")
	require.Error(t, err)

	got, err := s.Authenticate(ctx, "alice", "secret1")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	_, err = s.Authenticate(ctx, "alice", "nope")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Authenticate(ctx, "carol", "secret1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	created, err := s.EnsureAdmin(ctx, "admin", "admin123")
	require.NoError(t, err)
	require.True(t, created)
	created, err = s.EnsureAdmin(ctx, "admin", "admin123")
	require.NoError(t, err)
	require.False(t, created)
	admin, err := s.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, admin.Role)
}

func TestListExtractionsAndReset(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	for i, status := range []string{"success", "failure", "partial"} {
		require.NoError(t, s.RecordExtraction(ctx, &models.Extraction{RunID: fmt.Sprintf("r%d", i), Source: models.SourceCLI, Status: status}))
	}
	_, err := s.SaveEntries(ctx, "r0", []timetable.Entry{{Day: "Monday", Subject: "technical", Time: "07:00 AM"}})
	require.NoError(t, err)

	failed, err := s.ListExtractions(ctx, 0, "failure", "partial")
	require.NoError(t, err)
	require.Len(t, failed, 2)
	require.Equal(t, "r2", failed[0].RunID)

	all, err := s.ListExtractions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, all, 1)

	ne, nx, err := s.Reset(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), ne)
	require.Equal(t, int64(3), nx)
	left, err := s.ListEntries(ctx, "")
	require.NoError(t, err)
	require.Empty(t, left)
}

func TestSetPassword(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	_, err := s.CreateUser(ctx, "dave", "first1", "")
	require.NoError(t, err)
	require.NoError(t, s.SetPassword(ctx, "dave", "second2"))
	_, err = s.Authenticate(ctx, "dave", "second2")
	require.NoError(t, err)
	require.ErrorIs(t, s.SetPassword(ctx, "nobody", "second2"), ErrNotFound)
}
