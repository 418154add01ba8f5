package timetable

import (
	"context"
	"image"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Pipeline runs rows -> cells -> text -> entries for one photo at a time.
// Runs on the same Workspace must not overlap: the parser rewrites the
// record files it read. Callers serialize runs (see pkg/runlock).
type Pipeline struct {
	Layout     Layout
	Vocabulary Vocabulary
	Recognizer Recognizer
	Segmenter  Segmenter
	Workspace  Workspace
}

// New returns a pipeline with the default contour segmenter.
func New(layout Layout, vocab Vocabulary, rec Recognizer, ws Workspace) *Pipeline {
	return &Pipeline{
		Layout:     layout,
		Vocabulary: vocab,
		Recognizer: rec,
		Segmenter:  ContourSegmenter{},
		Workspace:  ws,
	}
}

// RunFile opens path and runs the pipeline on it.
func (p *Pipeline) RunFile(ctx context.Context, path string) (*Report, error) {
	img, err := OpenImage(path)
	if err != nil {
		logger.Printf("ERROR %v", err)
		return nil, err
	}
	return p.Run(ctx, img)
}

// Run processes img under a fresh run ID. The error is non-nil only when no
// day could be processed at all (unloadable image, layout not fitting the
// image, or a cancelled context); per-day failures are reported in the Report.
func (p *Pipeline) Run(ctx context.Context, img image.Image) (*Report, error) {
	return p.RunWithID(ctx, uuid.NewString(), img)
}

// RunWithID is Run with a caller-chosen run ID.
func (p *Pipeline) RunWithID(ctx context.Context, runID string, img image.Image) (*Report, error) {
	if p.Recognizer == nil {
		return nil, errors.New("timetable: pipeline has no recognizer")
	}
	seg := p.Segmenter
	if seg == nil {
		seg = ContourSegmenter{}
	}
	rep := &Report{
		RunID:   runID,
		Days:    p.Layout.DayNames(),
		Entries: map[string][]Entry{},
	}

	rows, err := ExtractRows(img, p.Layout, p.Workspace)
	rep.Rows = rows
	if err != nil {
		logger.Printf("ERROR run %s rows: %v", rep.RunID, err)
		return rep, err
	}
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	cells, segRes := Segment(seg, rows.Done, p.Workspace)
	rep.Segments = segRes
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	rep.Text = newStage("ocr")
	for _, day := range segRes.Done {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if _, err := ReadDay(day, cells[day], p.Recognizer, p.Workspace); err != nil {
			rep.Text.fail(day, err)
			continue
		}
		rep.Text.ok(day)
	}

	parser := NewParser(p.Vocabulary)
	rep.Parse = newStage("parse")
	for _, day := range rep.Text.Done {
		added, err := parser.ParseDay(day, p.Workspace)
		if err != nil {
			rep.Parse.fail(day, err)
			continue
		}
		rep.Parse.ok(day)
		if len(added) > 0 {
			rep.Entries[day] = added
		}
	}
	logger.Printf("%s new_entries=%d", rep.Summary(), len(rep.All()))
	return rep, nil
}
