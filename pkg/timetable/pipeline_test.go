package timetable

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

// bandSegmenter treats the whole band as a single cell and can be told to
// fail on some days.
type bandSegmenter struct {
	fail map[string]bool
}

func (s bandSegmenter) SegmentDay(day string, ws Workspace) ([]Cell, error) {
	if s.fail[day] {
		return nil, errors.New("no contours")
	}
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
	return []Cell{{Index: 0, Bounds: band.Bounds(), Path: ws.CellPath(day, 0)}}, nil
}

func weekTexts() []string {
	return []string{
		"Computer Vision\n0900-1000",
		"technical writing\n1000-1100\nartificial intelligence lab\n1400-1500",
		"nothing here",
		"computer networks 0800-0900",
		"mobile application\ndevelopment\n1100-1200",
	}
}

func newTestPipeline(t *testing.T, rec Recognizer, seg Segmenter) *Pipeline {
	t.Helper()
	p := New(DefaultLayout(), DefaultVocabulary(), rec, Workspace{Root: t.TempDir()})
	p.Segmenter = seg
	return p
}

func TestPipelineRunExtractsEntries(t *testing.T) {
	p := newTestPipeline(t, &scriptRecognizer{texts: weekTexts()}, bandSegmenter{})
	rep, err := p.Run(context.Background(), whiteImage(1200, 600))
	require.NoError(t, err)
	require.NotEmpty(t, rep.RunID)
	require.Equal(t, StatusSuccess, rep.Status())
	require.Equal(t, []Entry{
		{Day: "Monday", Subject: "computer vision", Time: "08:00 AM"},
		{Day: "Tuesday", Subject: "technical writing", Time: "09:00 AM"},
		{Day: "Tuesday", Subject: "artificial intelligence lab", Time: "13:00 AM"},
		{Day: "Thursday", Subject: "computer networks", Time: "07:00 AM"},
		{Day: "Friday", Subject: "mobile application development", Time: "10:00 AM"},
	}, rep.All())
	require.NotContains(t, rep.Entries, "Wednesday")

	for _, day := range DefaultLayout().DayNames() {
		require.FileExists(t, p.Workspace.RowPath(day))
		require.FileExists(t, p.Workspace.TextPath(day))
		require.FileExists(t, p.Workspace.RecordPath(day))
	}
}

func TestPipelineSecondRunAddsNothing(t *testing.T) {
	rec := &scriptRecognizer{texts: weekTexts()}
	p := newTestPipeline(t, rec, bandSegmenter{})
	_, err := p.Run(context.Background(), whiteImage(1200, 600))
	require.NoError(t, err)
	before, err := os.ReadFile(p.Workspace.RecordPath("Tuesday"))
	require.NoError(t, err)

	rec.texts = weekTexts()
	rep, err := p.Run(context.Background(), whiteImage(1200, 600))
	require.NoError(t, err)
	require.Empty(t, rep.All())

	after, err := os.ReadFile(p.Workspace.RecordPath("Tuesday"))
	require.NoError(t, err)
	require.Equal(t, string(before), string(after))
}

func TestPipelineIsolatesFailingDays(t *testing.T) {
	rec := &scriptRecognizer{texts: []string{"computer vision\n0900-1000", "technical\n0800-0900"}, failAt: 2}
	seg := bandSegmenter{fail: map[string]bool{"Wednesday": true, "Friday": true}}
	p := newTestPipeline(t, rec, seg)

	rep, err := p.Run(context.Background(), whiteImage(1200, 600))
	require.NoError(t, err)
	require.Equal(t, StatusPartial, rep.Status())
	require.Equal(t, []string{"Friday", "Wednesday"}, rep.Segments.FailedDays())
	require.Equal(t, []string{"Tuesday"}, rep.Text.FailedDays())
	require.Equal(t, []string{"Monday", "Thursday"}, rep.Parse.Done)

	var oe *OCRError
	require.True(t, errors.As(rep.Text.Failed["Tuesday"], &oe))
	require.Contains(t, rep.Summary(), "segment_failed=Friday,Wednesday")
	require.Equal(t, []Entry{
		{Day: "Monday", Subject: "computer vision", Time: "08:00 AM"},
		{Day: "Thursday", Subject: "technical", Time: "07:00 AM"},
	}, rep.All())
}

func TestPipelineRejectsImageSmallerThanLayout(t *testing.T) {
	rec := &scriptRecognizer{}
	p := newTestPipeline(t, rec, bandSegmenter{})
	_, err := p.Run(context.Background(), whiteImage(800, 400))
	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	require.Zero(t, rec.calls)
}

func TestPipelineStopsOnCancelledContext(t *testing.T) {
	rec := &scriptRecognizer{}
	p := newTestPipeline(t, rec, bandSegmenter{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Run(ctx, whiteImage(1200, 600))
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, rec.calls)
}

func TestPipelineNeedsRecognizer(t *testing.T) {
	p := New(DefaultLayout(), DefaultVocabulary(), nil, Workspace{Root: t.TempDir()})
	_, err := p.Run(context.Background(), whiteImage(1200, 600))
	require.Error(t, err)
}

func TestRunFileMissingImage(t *testing.T) {
	p := newTestPipeline(t, &scriptRecognizer{}, bandSegmenter{})
	_, err := p.RunFile(context.Background(), "does-not-exist.png")
	var le *ImageLoadError
	require.True(t, errors.As(err, &le))
}
