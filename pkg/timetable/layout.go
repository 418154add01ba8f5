package timetable

import (
	"image"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DaySegment is the pixel box of one weekday band in the source photo.
// Ranges are half-open: [YStart, YEnd) x [XStart, XEnd).
type DaySegment struct {
	Day    string `yaml:"day"`
	YStart int    `yaml:"y_start"`
	YEnd   int    `yaml:"y_end"`
	XStart int    `yaml:"x_start"`
	XEnd   int    `yaml:"x_end"`
}

// Rect returns the segment as an image rectangle relative to origin.
func (s DaySegment) Rect(origin image.Point) image.Rectangle {
	return image.Rect(s.XStart, s.YStart, s.XEnd, s.YEnd).Add(origin)
}

// Layout is the ordered day -> crop box table. Order decides processing
// order and the order of Report.All.
type Layout struct {
	Days []DaySegment `yaml:"days"`
}

// DefaultLayout is the table measured on the reference timetable photo.
func DefaultLayout() Layout {
	return Layout{Days: []DaySegment{
		{Day: "Monday", YStart: 122, YEnd: 217, XStart: 0, XEnd: 1000},
		{Day: "Tuesday", YStart: 215, YEnd: 310, XStart: 0, XEnd: 1000},
		{Day: "Wednesday", YStart: 310, YEnd: 402, XStart: 0, XEnd: 1000},
		{Day: "Thursday", YStart: 400, YEnd: 495, XStart: 0, XEnd: 1200},
		{Day: "Friday", YStart: 495, YEnd: 587, XStart: 0, XEnd: 1000},
	}}
}

// LoadLayout reads and validates a YAML layout file.
func LoadLayout(path string) (Layout, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, &ConfigError{Field: "layout", Err: errors.Wrapf(err, "read %s", path)}
	}
	var l Layout
	if err := yaml.Unmarshal(raw, &l); err != nil {
		return Layout{}, &ConfigError{Field: "layout", Err: errors.Wrapf(err, "decode %s", path)}
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// DayNames returns the configured days in order.
func (l Layout) DayNames() []string {
	out := make([]string, 0, len(l.Days))
	for _, d := range l.Days {
		out = append(out, d.Day)
	}
	return out
}

// Validate checks the table itself, independent of any image.
func (l Layout) Validate() error {
	if len(l.Days) == 0 {
		return &ConfigError{Field: "layout", Err: errors.New("no days configured")}
	}
	seen := make(map[string]struct{}, len(l.Days))
	for i, d := range l.Days {
		name := strings.TrimSpace(d.Day)
		if name == "" {
			return &ConfigError{Field: "layout", Err: errors.Errorf("entry %d has no day name", i)}
		}
		if strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
			return &ConfigError{Field: "layout." + name, Err: errors.New("day name must be a plain file name")}
		}
		if _, dup := seen[name]; dup {
			return &ConfigError{Field: "layout." + name, Err: errors.New("duplicate day")}
		}
		seen[name] = struct{}{}
		if d.YStart < 0 || d.XStart < 0 {
			return &ConfigError{Field: "layout." + name, Err: errors.Errorf("negative start (x=%d y=%d)", d.XStart, d.YStart)}
		}
		if d.YStart >= d.YEnd {
			return &ConfigError{Field: "layout." + name, Err: errors.Errorf("y_start %d >= y_end %d", d.YStart, d.YEnd)}
		}
		if d.XStart >= d.XEnd {
			return &ConfigError{Field: "layout." + name, Err: errors.Errorf("x_start %d >= x_end %d", d.XStart, d.XEnd)}
		}
	}
	return nil
}

// Overlaps lists pairs of days whose y ranges intersect. The default table
// shares a few border rows between neighbours, so this is advisory.
func (l Layout) Overlaps() [][2]string {
	var out [][2]string
	for i := 0; i < len(l.Days); i++ {
		for j := i + 1; j < len(l.Days); j++ {
			a, b := l.Days[i], l.Days[j]
			if a.YStart < b.YEnd && b.YStart < a.YEnd {
				out = append(out, [2]string{a.Day, b.Day})
			}
		}
	}
	return out
}

// Check verifies every segment fits inside bounds.
func (l Layout) Check(bounds image.Rectangle) error {
	w, h := bounds.Dx(), bounds.Dy()
	for _, d := range l.Days {
		if d.XEnd > w {
			return &ConfigError{Field: "layout." + d.Day, Err: errors.Errorf("x_end %d exceeds image width %d", d.XEnd, w)}
		}
		if d.YEnd > h {
			return &ConfigError{Field: "layout." + d.Day, Err: errors.Errorf("y_end %d exceeds image height %d", d.YEnd, h)}
		}
	}
	return nil
}
