package timetable

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// OpenImage decodes the source photo.
func OpenImage(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, &ImageLoadError{Path: path, Err: err}
	}
	return img, nil
}

// ExtractRows crops one band per layout day and saves it to ws.RowPath.
// A nil image or a layout that does not fit the image aborts the stage;
// a failed save only skips that day.
func ExtractRows(img image.Image, layout Layout, ws Workspace) (StageResult, error) {
	res := newStage("rows")
	if img == nil {
		return res, &ImageLoadError{Err: errors.New("no image")}
	}
	if err := layout.Validate(); err != nil {
		return res, err
	}
	bounds := img.Bounds()
	if err := layout.Check(bounds); err != nil {
		return res, err
	}
	for _, pair := range layout.Overlaps() {
		logger.Printf("WARN layout bands %s and %s overlap", pair[0], pair[1])
	}
	if err := ws.Prepare(); err != nil {
		return res, err
	}

	for _, seg := range layout.Days {
		band := imaging.Crop(img, seg.Rect(bounds.Min))
		if err := imaging.Save(band, ws.RowPath(seg.Day)); err != nil {
			res.fail(seg.Day, errors.Wrap(err, "save band"))
			continue
		}
		res.ok(seg.Day)
	}
	return res, nil
}
