package timetable

import (
	"log"
	"sort"
	"strings"
)

// Logger is the sink for stage diagnostics. *log.Logger satisfies it.
type Logger interface {
	Printf(format string, args ...any)
}

var logger Logger = log.Default()

// SetLogger replaces the package logger; nil silences it.
func SetLogger(l Logger) {
	if l == nil {
		l = discard{}
	}
	logger = l
}

type discard struct{}

func (discard) Printf(string, ...any) {}

// Status summarizes one stage of a run.
type Status int

const (
	StatusSuccess Status = iota
	StatusPartial
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusPartial:
		return "partial"
	case StatusFailure:
		return "failure"
	}
	return "unknown"
}

// StageResult records which days a stage finished and which it skipped.
type StageResult struct {
	Stage  string
	Done   []string
	Failed map[string]error
}

func newStage(name string) StageResult {
	return StageResult{Stage: name, Failed: map[string]error{}}
}

func (r *StageResult) ok(day string) { r.Done = append(r.Done, day) }

func (r *StageResult) fail(day string, err error) {
	if r.Failed == nil {
		r.Failed = map[string]error{}
	}
	r.Failed[day] = err
	logger.Printf("ERROR %s %s: %v", r.Stage, day, err)
}

// Status is success when nothing failed, failure when nothing finished.
func (r StageResult) Status() Status {
	switch {
	case len(r.Failed) == 0:
		return StatusSuccess
	case len(r.Done) == 0:
		return StatusFailure
	default:
		return StatusPartial
	}
}

// FailedDays returns the failed day names sorted.
func (r StageResult) FailedDays() []string {
	out := make([]string, 0, len(r.Failed))
	for d := range r.Failed {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Report is the outcome of one pipeline run.
type Report struct {
	RunID    string
	Days     []string
	Rows     StageResult
	Segments StageResult
	Text     StageResult
	Parse    StageResult
	// Entries holds only the entries added by this run, keyed by day.
	Entries map[string][]Entry
}

// Stages returns the stage results in pipeline order.
func (r *Report) Stages() []StageResult {
	return []StageResult{r.Rows, r.Segments, r.Text, r.Parse}
}

// Status is the worst stage status.
func (r *Report) Status() Status {
	worst := StatusSuccess
	for _, s := range r.Stages() {
		if st := s.Status(); st > worst {
			worst = st
		}
	}
	return worst
}

// All flattens Entries in layout day order.
func (r *Report) All() []Entry {
	var out []Entry
	for _, d := range r.Days {
		out = append(out, r.Entries[d]...)
	}
	return out
}

// Summary is a one-line description for logs.
func (r *Report) Summary() string {
	var b strings.Builder
	b.WriteString("run=")
	b.WriteString(r.RunID)
	b.WriteString(" status=")
	b.WriteString(r.Status().String())
	for _, s := range r.Stages() {
		if len(s.Failed) > 0 {
			b.WriteString(" ")
			b.WriteString(s.Stage)
			b.WriteString("_failed=")
			b.WriteString(strings.Join(s.FailedDays(), ","))
		}
	}
	return b.String()
}
