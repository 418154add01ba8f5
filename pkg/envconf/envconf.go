// Package envconf reads the environment shared by the service and the
// process tools.
package envconf

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"timetable/pkg/runlock"
	"timetable/pkg/store"
	"timetable/pkg/timetable"
)

// LoadDotEnv loads key=value pairs from path (default .env) into the
// environment without overwriting variables that are already set. Lines
// starting with # are ignored.
func LoadDotEnv(path string) {
	if path == "" {
		path = ".env"
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return // no .env file
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// split on first '='
		if eq := strings.IndexByte(line, '='); eq > 0 {
			key := strings.TrimSpace(line[:eq])
			val := strings.Trim(strings.TrimSpace(line[eq+1:]), `"`)
			if _, exists := os.LookupEnv(key); !exists {
				_ = os.Setenv(key, val)
			}
		}
	}
}

// String returns the trimmed value of key or def.
func String(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// Bool treats false, 0 and no as false and any other non-empty value as true.
func Bool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "":
		return def
	case "false", "0", "no":
		return false
	}
	return true
}

// Int returns a positive integer value of key or def.
func Int(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// Tables loads the layout and vocabulary named by the LAYOUT_FILE and
// VOCABULARY_FILE variables, falling back to the built-in tables.
func Tables() (timetable.Layout, timetable.Vocabulary, error) {
	layout := timetable.DefaultLayout()
	if p := os.Getenv("LAYOUT_FILE"); p != "" {
		l, err := timetable.LoadLayout(p)
		if err != nil {
			return timetable.Layout{}, nil, err
		}
		layout = l
	}
	vocab := timetable.DefaultVocabulary()
	if p := os.Getenv("VOCABULARY_FILE"); p != "" {
		v, err := timetable.LoadVocabulary(p)
		if err != nil {
			return timetable.Layout{}, nil, err
		}
		vocab = v
	}
	for _, o := range layout.Overlaps() {
		log.Printf("WARN layout: %s and %s overlap", o[0], o[1])
	}
	return layout, vocab, nil
}

// Workspace is the pipeline workspace under OUTPUT_ROOT.
func Workspace() timetable.Workspace {
	return timetable.Workspace{Root: String("OUTPUT_ROOT", "output")}
}

// OpenStore connects with DB_DRIVER and DB_DSN.
func OpenStore() (*store.Store, error) {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		return nil, fmt.Errorf("DB_DSN is not set")
	}
	db, err := store.Open(String("DB_DRIVER", store.DriverPostgres), dsn)
	if err != nil {
		return nil, err
	}
	return store.New(db), nil
}

// MustStore is OpenStore for tools that cannot run without a database.
func MustStore() *store.Store {
	st, err := OpenStore()
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return st
}

// Locker returns the run lock shared by every process on OUTPUT_ROOT: Redis
// when REDIS_ADDR is set, an in-process lock otherwise. The returned func closes it.
func Locker(ctx context.Context) (runlock.Locker, func() error, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return runlock.NewLocal(), func() error { return nil }, nil
	}
	rl, err := runlock.ConnectRedis(ctx, addr)
	if err != nil {
		return nil, nil, err
	}
	return rl, rl.Close, nil
}
