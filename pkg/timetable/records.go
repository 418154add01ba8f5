package timetable

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Entry is one resolved class slot. Day is empty inside a single day's parse
// and filled in by the pipeline.
type Entry struct {
	Day     string `json:"day"`
	Subject string `json:"subject"`
	Time    string `json:"time"`
}

type entryKey struct{ subject, time string }

// EntrySet is the per-day dedup set keyed by (subject, time).
type EntrySet struct {
	keys map[entryKey]struct{}
}

func NewEntrySet(entries ...Entry) *EntrySet {
	s := &EntrySet{keys: make(map[entryKey]struct{}, len(entries))}
	for _, e := range entries {
		s.Add(e)
	}
	return s
}

// Add reports whether e was new.
func (s *EntrySet) Add(e Entry) bool {
	k := entryKey{e.Subject, e.Time}
	if _, ok := s.keys[k]; ok {
		return false
	}
	s.keys[k] = struct{}{}
	return true
}

func (s *EntrySet) Has(e Entry) bool {
	_, ok := s.keys[entryKey{e.Subject, e.Time}]
	return ok
}

func (s *EntrySet) Len() int { return len(s.keys) }

const (
	subjectPrefix = "subject:"
	timePrefix    = "time:"
)

// WriteRecords writes entries as two-line records:
//
//	subject: <label>
//	time: <value>
func WriteRecords(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if _, err := fmt.Fprintf(bw, "%s %s\n%s %s\n", subjectPrefix, e.Subject, timePrefix, e.Time); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadRecords parses the output of WriteRecords. Lines are consumed in
// pairs; a trailing unpaired line is ignored.
func ReadRecords(r io.Reader) ([]Entry, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	var out []Entry
	for i := 0; i+1 < len(lines); i += 2 {
		out = append(out, Entry{
			Subject: strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[i]), subjectPrefix)),
			Time:    strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[i+1]), timePrefix)),
		})
	}
	return out, nil
}

// ReadRecordFile reads a record file; a missing file yields no entries.
func ReadRecordFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "open records")
	}
	defer f.Close()
	return ReadRecords(f)
}

// WriteRecordFile replaces path with entries.
func WriteRecordFile(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create records")
	}
	if err := WriteRecords(f, entries); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "write records")
	}
	return f.Close()
}
