package timetable

import (
	"fmt"
	"os"
	"path/filepath"
)

// Workspace is the day-keyed file surface shared by the pipeline stages.
// Paths must stay stable between runs: the parser re-reads the record file
// of a previous run to avoid duplicates.
//
//	<root>/rows/<Day>.png
//	<root>/cells/<Day>/segment_<i>.jpg
//	<root>/cells/<Day>/debug_lines.png
//	<root>/text/<Day>.txt
//	<root>/timetable/<Day>.txt
type Workspace struct {
	Root string
}

func (w Workspace) RowDir() string    { return filepath.Join(w.Root, "rows") }
func (w Workspace) CellsDir() string  { return filepath.Join(w.Root, "cells") }
func (w Workspace) TextDir() string   { return filepath.Join(w.Root, "text") }
func (w Workspace) RecordDir() string { return filepath.Join(w.Root, "timetable") }

func (w Workspace) RowPath(day string) string {
	return filepath.Join(w.RowDir(), day+".png")
}

func (w Workspace) CellDir(day string) string {
	return filepath.Join(w.CellsDir(), day)
}

func (w Workspace) CellPath(day string, index int) string {
	return filepath.Join(w.CellDir(day), fmt.Sprintf("segment_%d.jpg", index))
}

func (w Workspace) DebugLinesPath(day string) string {
	return filepath.Join(w.CellDir(day), "debug_lines.png")
}

func (w Workspace) TextPath(day string) string {
	return filepath.Join(w.TextDir(), day+".txt")
}

func (w Workspace) RecordPath(day string) string {
	return filepath.Join(w.RecordDir(), day+".txt")
}

// Prepare creates the stage directories under Root.
func (w Workspace) Prepare() error {
	for _, dir := range []string{w.RowDir(), w.CellsDir(), w.TextDir(), w.RecordDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	return nil
}
