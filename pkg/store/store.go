// Package store persists timetable entries and extraction runs with gorm.
package store

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"timetable/models"
	"timetable/pkg/timetable"
)

// Drivers accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = gorm.ErrRecordNotFound

// Open connects to dsn. An empty driver means postgres.
func Open(driver, dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("empty DSN")
	}
	var dial gorm.Dialector
	switch strings.ToLower(driver) {
	case "", DriverPostgres:
		dial = postgres.Open(dsn)
	case DriverSQLite:
		if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, fmt.Errorf("ensure sqlite dir: %w", err)
			}
		}
		dial = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown DB driver %q", driver)
	}
	db, err := gorm.Open(dial, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return db, nil
}

// Migrate creates or updates the tables. Each model is migrated on its own
// so a permission problem on one table does not block the others.
func Migrate(db *gorm.DB) error {
	var failed []string
	for _, m := range []any{&models.User{}, &models.TimetableEntry{}, &models.Extraction{}} {
		if err := db.AutoMigrate(m); err != nil {
			log.Printf("migration warning (%T): %v", m, err)
			failed = append(failed, fmt.Sprintf("%T", m))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("migrate failed for %s", strings.Join(failed, ", "))
	}
	return nil
}

// Store wraps a gorm handle.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{db: db} }

// DB exposes the underlying handle.
func (s *Store) DB() *gorm.DB { return s.db }

// SaveEntries inserts entries that are not stored yet and returns how many
// rows were added. Existing (day, subject, time) triples are left untouched.
func (s *Store) SaveEntries(ctx context.Context, runID string, entries []timetable.Entry) (int, error) {
	inserted := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range entries {
			row := models.TimetableEntry{RunID: runID, Day: e.Day, Subject: e.Subject, Time: e.Time}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
			if res.Error != nil {
				return fmt.Errorf("insert %s/%s/%s: %w", e.Day, e.Subject, e.Time, res.Error)
			}
			inserted += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListEntries returns stored entries ordered by insertion. An empty day
// returns every day.
func (s *Store) ListEntries(ctx context.Context, day string) ([]models.TimetableEntry, error) {
	var rows []models.TimetableEntry
	q := s.db.WithContext(ctx).Model(&models.TimetableEntry{})
	if day != "" {
		q = q.Where("day = ?", day)
	}
	if err := q.Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// RecordExtraction stores the outcome of a run.
func (s *Store) RecordExtraction(ctx context.Context, ex *models.Extraction) error {
	return s.db.WithContext(ctx).Create(ex).Error
}

// GetExtraction looks a run up by its ID.
func (s *Store) GetExtraction(ctx context.Context, runID string) (*models.Extraction, error) {
	var ex models.Extraction
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).First(&ex).Error; err != nil {
		return nil, err
	}
	return &ex, nil
}

// ListExtractions returns runs with one of statuses (all runs when none are
// given), newest first.
func (s *Store) ListExtractions(ctx context.Context, limit int, statuses ...string) ([]models.Extraction, error) {
	var rows []models.Extraction
	q := s.db.WithContext(ctx).Model(&models.Extraction{})
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Order("id desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Reset deletes every stored entry and extraction and reports how many
// rows went.
func (s *Store) Reset(ctx context.Context) (entries, extractions int64, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tx = tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		res := tx.Delete(&models.TimetableEntry{})
		if res.Error != nil {
			return res.Error
		}
		entries = res.RowsAffected
		res = tx.Delete(&models.Extraction{})
		if res.Error != nil {
			return res.Error
		}
		extractions = res.RowsAffected
		return nil
	})
	return entries, extractions, err
}

// ExtractionFor builds the Extraction row for a finished (or aborted) run.
// rep may be nil when the run failed before a report existed.
func ExtractionFor(rep *timetable.Report, runID, source, storePath string, added int, runErr error) *models.Extraction {
	ex := &models.Extraction{RunID: runID, Source: source, StorePath: storePath, NewEntries: added}
	if rep != nil {
		ex.Status = rep.Status().String()
		var failed []string
		seen := map[string]bool{}
		for _, st := range rep.Stages() {
			for _, d := range st.FailedDays() {
				if !seen[d] {
					seen[d] = true
					failed = append(failed, d)
				}
			}
		}
		ex.FailedDays = strings.Join(failed, ",")
	}
	if runErr != nil {
		ex.Status = timetable.StatusFailure.String()
		ex.FailedReason = truncate(runErr.Error(), 255)
	}
	return ex
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
