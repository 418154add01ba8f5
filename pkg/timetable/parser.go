package timetable

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// windowSize is how many OCR lines a subject name may span.
const windowSize = 3

// timeRangeRE matches a 24-hour range without separators, e.g. 0900-1000.
var timeRangeRE = regexp.MustCompile(`\b\d{4}-\d{4}\b`)

// TimeRange is a parsed DDDD-DDDD token after adjustment. Only Start is
// used for entries; End is parsed for completeness.
type TimeRange struct {
	Start string
	End   string
}

// ParseRange adjusts both halves of a DDDD-DDDD token.
func ParseRange(token string) (TimeRange, error) {
	if len(token) != 9 || token[4] != '-' {
		return TimeRange{}, errors.Errorf("malformed range %q", token)
	}
	start, err := AdjustTime(token[:4])
	if err != nil {
		return TimeRange{}, err
	}
	end, err := AdjustTime(token[5:9])
	if err != nil {
		return TimeRange{}, err
	}
	return TimeRange{Start: start, End: end}, nil
}

// AdjustTime turns the reservation time HHMM into the class display time:
// one hour earlier, hour 0 wrapping to 23 with no day change. The suffix is
// always "AM" and the hour is not converted to 12-hour form, matching the
// records already stored by earlier runs.
func AdjustTime(hhmm string) (string, error) {
	if len(hhmm) != 4 {
		return "", errors.Errorf("malformed time %q", hhmm)
	}
	hour, err := strconv.Atoi(hhmm[:2])
	if err != nil {
		return "", errors.Wrapf(err, "hour in %q", hhmm)
	}
	minute, err := strconv.Atoi(hhmm[2:])
	if err != nil {
		return "", errors.Wrapf(err, "minute in %q", hhmm)
	}
	hour--
	if hour < 0 {
		hour = 23
	}
	return fmt.Sprintf("%02d:%02d AM", hour, minute), nil
}

// Parser turns one day's raw OCR text into entries.
type Parser struct {
	Vocabulary Vocabulary
}

func NewParser(v Vocabulary) *Parser {
	return &Parser{Vocabulary: v}
}

type parseState struct {
	window  []string
	subject string
	found   bool
}

// step feeds one normalized line and returns an entry when a time range
// closes a pending subject.
func (st *parseState) step(line string, vocab Vocabulary) (Entry, bool) {
	st.window = append(st.window, line)
	if len(st.window) > windowSize {
		st.window = st.window[1:]
	}
	joined := strings.TrimSpace(strings.Join(st.window, " "))
	if label, ok := vocab.Match(joined); ok {
		st.subject = label
		st.window = st.window[:0]
		st.found = true
	}

	if !st.found {
		return Entry{}, false
	}
	token := timeRangeRE.FindString(line)
	if token == "" {
		return Entry{}, false
	}
	subject := st.subject
	st.subject = ""
	st.found = false

	tr, err := ParseRange(token)
	if err != nil {
		// unreachable for regexp matches; keep the reset and drop the slot
		logger.Printf("WARN time token %q: %v", token, err)
		return Entry{}, false
	}
	return Entry{Subject: subject, Time: tr.Start}, true
}

// Parse scans text line by line. Entries already in seen are dropped; new
// ones are added to seen and returned in text order.
func (p *Parser) Parse(r io.Reader, seen *EntrySet) ([]Entry, error) {
	if seen == nil {
		seen = NewEntrySet()
	}
	var (
		st  parseState
		out []Entry
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.ToLower(strings.TrimSpace(sc.Text()))
		e, ok := st.step(line, p.Vocabulary)
		if !ok {
			continue
		}
		if seen.Add(e) {
			out = append(out, e)
		}
	}
	if err := sc.Err(); err != nil {
		return out, errors.Wrap(err, "scan text")
	}
	return out, nil
}

// ParseString is Parse over an in-memory text.
func (p *Parser) ParseString(text string, seen *EntrySet) []Entry {
	out, _ := p.Parse(strings.NewReader(text), seen)
	return out
}

// ParseDay merges the day's text into its record file. Prior records are
// kept first, new entries appended, and the file rewritten. The returned
// slice holds only new entries, with Day set.
func (p *Parser) ParseDay(day string, ws Workspace) ([]Entry, error) {
	existing, err := ReadRecordFile(ws.RecordPath(day))
	if err != nil {
		return nil, err
	}
	seen := NewEntrySet(existing...)

	f, err := os.Open(ws.TextPath(day))
	if err != nil {
		return nil, errors.Wrap(err, "open day text")
	}
	added, err := p.Parse(f, seen)
	f.Close()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(ws.RecordDir(), 0o755); err != nil {
		return nil, errors.Wrap(err, "mkdir records")
	}
	if err := WriteRecordFile(ws.RecordPath(day), append(existing, added...)); err != nil {
		return nil, err
	}
	for i := range added {
		added[i].Day = day
	}
	return added, nil
}
