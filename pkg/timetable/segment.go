package timetable

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Cell is one segmented region of a day band. Index is its left-to-right
// position within the day.
type Cell struct {
	Index  int
	Bounds image.Rectangle
	Path   string
}

// Segmenter splits a day band into ordered cells.
type Segmenter interface {
	SegmentDay(day string, ws Workspace) ([]Cell, error)
}

// Segmentation thresholds.
const (
	segBlurKernel   = 5
	segThreshold    = 127
	houghThreshold  = 100
	houghMinLineLen = 100
	houghMaxLineGap = 10
)

var debugLineColor = color.RGBA{0, 255, 0, 0}

// ContourSegmenter finds cells as external contours of the inverse
// binarized band.
type ContourSegmenter struct{}

// SegmentDay requires a single row of cells per band: cells are ordered by
// the x of their bounding box only, so a band holding several rows would
// interleave them.
func (ContourSegmenter) SegmentDay(day string, ws Workspace) ([]Cell, error) {
	path := ws.RowPath(day)
	src := gocv.IMRead(path, gocv.IMReadColor)
	defer src.Close()
	if src.Empty() {
		return nil, &SegmentationError{Day: day, Err: errors.Errorf("unable to load %s", path)}
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(segBlurKernel, segBlurKernel), 0, 0, gocv.BorderDefault)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(blurred, &binary, segThreshold, 255, gocv.ThresholdBinaryInv)

	dir := ws.CellDir(day)
	if err := os.RemoveAll(dir); err != nil {
		return nil, &SegmentationError{Day: day, Err: errors.Wrap(err, "clear cell dir")}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &SegmentationError{Day: day, Err: errors.Wrap(err, "create cell dir")}
	}

	writeDebugLines(day, src, binary, ws.DebugLinesPath(day))

	contours := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()
	rects := make([]image.Rectangle, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		rects = append(rects, gocv.BoundingRect(contours.At(i)))
	}
	SortCells(rects)

	cells := make([]Cell, 0, len(rects))
	for i, r := range rects {
		out := ws.CellPath(day, i)
		region := src.Region(r)
		ok := gocv.IMWrite(out, region)
		region.Close()
		if !ok {
			return cells, &SegmentationError{Day: day, Err: errors.Errorf("write %s", out)}
		}
		cells = append(cells, Cell{Index: i, Bounds: r, Path: out})
	}
	if len(cells) == 0 {
		logger.Printf("segment %s: no contours found", day)
	}
	return cells, nil
}

// writeDebugLines draws probabilistic Hough segments onto a copy of the band.
// It is diagnostic only; failures are logged.
func writeDebugLines(day string, src, binary gocv.Mat, path string) {
	lines := gocv.NewMat()
	defer lines.Close()
	gocv.HoughLinesPWithParams(binary, &lines, 1, math.Pi/180, houghThreshold, houghMinLineLen, houghMaxLineGap)

	canvas := src.Clone()
	defer canvas.Close()
	if lines.Empty() || lines.Rows() == 0 {
		logger.Printf("segment %s: no lines detected using HoughLinesP", day)
	}
	for i := 0; i < lines.Rows(); i++ {
		v := lines.GetVeciAt(i, 0)
		gocv.Line(&canvas, image.Pt(int(v[0]), int(v[1])), image.Pt(int(v[2]), int(v[3])), debugLineColor, 2)
	}
	if !gocv.IMWrite(path, canvas) {
		logger.Printf("WARN segment %s: failed to write %s", day, path)
	}
}

// SortCells orders rectangles left to right. Equal x keeps input order.
func SortCells(rects []image.Rectangle) {
	sort.SliceStable(rects, func(i, j int) bool { return rects[i].Min.X < rects[j].Min.X })
}

// ListCells returns the cell files of a day already on disk, ordered by
// their numeric index.
func ListCells(day string, ws Workspace) ([]Cell, error) {
	entries, err := os.ReadDir(ws.CellDir(day))
	if err != nil {
		return nil, err
	}
	var cells []Cell
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "segment_") || filepath.Ext(name) != ".jpg" {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "segment_"), ".jpg"))
		if err != nil {
			continue
		}
		cells = append(cells, Cell{Index: idx, Path: filepath.Join(ws.CellDir(day), name)})
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].Index < cells[j].Index })
	return cells, nil
}

// Segment runs seg over days independently.
func Segment(seg Segmenter, days []string, ws Workspace) (map[string][]Cell, StageResult) {
	res := newStage("segment")
	out := make(map[string][]Cell, len(days))
	for _, day := range days {
		cells, err := seg.SegmentDay(day, ws)
		if err != nil {
			var se *SegmentationError
			if !errors.As(err, &se) {
				err = &SegmentationError{Day: day, Err: err}
			}
			res.fail(day, err)
			continue
		}
		logger.Printf("segment %s: %d cells", day, len(cells))
		out[day] = cells
		res.ok(day)
	}
	return out, res
}

func cellName(day string, c Cell) string {
	return fmt.Sprintf("%s/segment_%d", day, c.Index)
}
