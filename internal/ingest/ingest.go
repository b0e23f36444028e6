package ingest

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gyaneshwarpardhi/activity/internal/event"
)

var (
	ErrUnknownFormat = errors.New("unknown export format")
	ErrTooManyFiles  = errors.New("too many input files")
)

// Raw is a decoded entry before validation: every field is still text.
type Raw struct {
	Timestamp string
	Source    string
	Code      string
}

// Options restrict which records survive normalization.
type Options struct {
	// WindowStart and WindowEnd bound the time of day, inclusive. A zero
	// WindowEnd means no upper bound.
	WindowStart time.Duration
	WindowEnd   time.Duration
	MaxFiles    int
}

// Stats counts what happened to decoded entries.
type Stats struct {
	Read          int `json:"read"`
	Malformed     int `json:"malformed"`
	OutsideWindow int `json:"outside_window"`
	Kept          int `json:"kept"`
}

// Merge adds o's counters to s.
func (s *Stats) Merge(o Stats) {
	s.Read += o.Read
	s.Malformed += o.Malformed
	s.OutsideWindow += o.OutsideWindow
	s.Kept += o.Kept
}

// Normalize validates raw entries, drops malformed ones and those outside
// the time-of-day window, and returns the rest sorted by timestamp. Entries
// sharing a timestamp keep their input order.
func Normalize(raws []Raw, opts Options) ([]event.Record, Stats) {
	st := Stats{Read: len(raws)}
	out := make([]event.Record, 0, len(raws))
	for _, raw := range raws {
		rec, err := Parse(raw)
		if err != nil {
			st.Malformed++
			continue
		}
		if !opts.inWindow(rec.Timestamp) {
			st.OutsideWindow++
			continue
		}
		out = append(out, rec)
	}
	SortRecords(out)
	st.Kept = len(out)
	return out, st
}

// SortRecords orders records by timestamp, stable for equal timestamps.
func SortRecords(recs []event.Record) {
	slices.SortStableFunc(recs, func(a, b event.Record) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
}

// Parse converts one raw entry. A missing or unparseable timestamp or code
// is an error.
func Parse(raw Raw) (event.Record, error) {
	ts, err := ParseTimestamp(raw.Timestamp)
	if err != nil {
		return event.Record{}, err
	}
	codeText := strings.TrimSpace(raw.Code)
	if codeText == "" {
		return event.Record{}, fmt.Errorf("missing event code")
	}
	code, err := strconv.Atoi(codeText)
	if err != nil {
		return event.Record{}, fmt.Errorf("parse event code %q: %w", raw.Code, err)
	}
	return event.Record{
		Timestamp: ts,
		Source:    strings.TrimSpace(raw.Source),
		Code:      code,
	}, nil
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -0700",
}

var localLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04:05",
	"2006/01/02 15:04:05",
}

// ParseTimestamp accepts the timestamp shapes Windows exports produce and
// returns a zone-free wall clock truncated to microseconds. Zoned inputs
// are converted to UTC first.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}
	if ms, ok := msDate(s); ok {
		return time.UnixMilli(ms).UTC(), nil
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return naive(t.UTC()), nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return naive(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// msDate decodes the "/Date(1714982400000)/" form PowerShell's JSON uses.
func msDate(s string) (int64, bool) {
	s = strings.Trim(s, `\/`)
	if !strings.HasPrefix(s, "Date(") || !strings.HasSuffix(s, ")") {
		return 0, false
	}
	ms, err := strconv.ParseInt(s[len("Date("):len(s)-1], 10, 64)
	if err != nil {
		return 0, false
	}
	return ms, true
}

func naive(t time.Time) time.Time {
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return time.Date(y, mo, d, h, mi, s, t.Nanosecond(), time.UTC).Truncate(time.Microsecond)
}

func (o Options) inWindow(t time.Time) bool {
	if o.WindowStart == 0 && (o.WindowEnd == 0 || o.WindowEnd >= 24*time.Hour) {
		return true
	}
	h, m, s := t.Clock()
	off := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
	if off < o.WindowStart {
		return false
	}
	return o.WindowEnd == 0 || off <= o.WindowEnd
}
