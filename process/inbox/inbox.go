// Package inbox feeds timetable photos dropped into a directory to a handler,
// once each, and moves them to <dir>/processed afterwards.
package inbox

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ProcessedDir is the subdirectory handled files are moved to.
const ProcessedDir = "processed"

// Debounce timings: a file is handed over once no event touched it for
// settleAfter.
var (
	tickEvery   = 250 * time.Millisecond
	settleAfter = 300 * time.Millisecond
)

// IsSupported reports whether name looks like an image the pipeline can read.
func IsSupported(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff":
		return true
	}
	return false
}

// List returns the supported files directly in dir, sorted.
func List(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsSupported(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func newWatcher(dir string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	log.Printf("Watching %s (debounced) ...", dir)
	return w, nil
}

// watchLoop sends the base name of every supported file created or written
// in the watched dir once it has been quiet for a moment. It owns w and
// closes it on return.
func watchLoop(ctx context.Context, w *fsnotify.Watcher, out chan<- string) error {
	defer w.Close()
	pending := map[string]time.Time{}
	ticker := time.NewTicker(tickEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if !IsSupported(name) {
				continue
			}
			pending[name] = time.Now()
		case <-ticker.C:
			now := time.Now()
			for name, t := range pending {
				if now.Sub(t) < settleAfter {
					continue
				}
				delete(pending, name)
				select {
				case out <- name:
				case <-ctx.Done():
					return nil
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", err)
		}
	}
}

// MoveToProcessed moves dir/name into dir/processed, trying a rename first
// and falling back to copy+remove.
func MoveToProcessed(dir, name string) (string, error) {
	processed := filepath.Join(dir, ProcessedDir)
	if err := os.MkdirAll(processed, 0o755); err != nil {
		return "", err
	}
	src := filepath.Join(dir, name)
	dst := filepath.Join(processed, name)
	if err := os.Rename(src, dst); err == nil {
		return dst, nil
	}
	return dst, copyRemove(src, dst)
}

func copyRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

// Handler processes one file. A returned error leaves the file in place.
type Handler func(ctx context.Context, path string) error

// Processor runs Handle over the existing files of Dir and, with Watch set,
// over new ones until ctx is done. Files are handled one at a time.
type Processor struct {
	Dir     string
	Handle  Handler
	Watch   bool
	Verbose bool
}

func (p *Processor) logV(format string, args ...any) {
	if p.Verbose {
		log.Printf(format, args...)
	}
}

// Run blocks until the initial scan is done and, in watch mode, until ctx
// is cancelled. The watcher is registered before the scan so files dropped
// while it runs are not missed.
func (p *Processor) Run(ctx context.Context) error {
	var (
		names chan string
		errCh chan error
	)
	if p.Watch {
		w, err := newWatcher(p.Dir)
		if err != nil {
			return err
		}
		names = make(chan string, 64)
		errCh = make(chan error, 1)
		go func() { errCh <- watchLoop(ctx, w, names) }()
	}

	files := List(p.Dir)
	log.Printf("Scanning %d files in %s", len(files), p.Dir)
	for _, name := range files {
		if ctx.Err() != nil {
			break
		}
		p.one(ctx, name)
	}
	if !p.Watch {
		return nil
	}

	for {
		select {
		case name := <-names:
			p.one(ctx, name)
		case err := <-errCh:
			return err
		}
	}
}

func (p *Processor) one(ctx context.Context, name string) {
	path := filepath.Join(p.Dir, name)
	if _, err := os.Stat(path); err != nil {
		p.logV("SKIP %s: %v", name, err)
		return
	}
	if err := p.Handle(ctx, path); err != nil {
		log.Printf("ERROR %s: %v", name, err)
		return
	}
	if _, err := MoveToProcessed(p.Dir, name); err != nil {
		log.Printf("WARN failed to move processed file %s: %v", name, err)
		return
	}
	p.logV("moved processed %s to %s/", name, ProcessedDir)
}
