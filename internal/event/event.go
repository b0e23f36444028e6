package event

import (
	"fmt"
	"time"
)

// Record is the canonical input model: one decoded log entry.
type Record struct {
	Timestamp time.Time `json:"timestamp"` // wall clock, no zone, microsecond precision
	Source    string    `json:"source"`    // provider name, may be empty
	Code      int       `json:"code"`      // Windows event ID
}

// Category is the semantic label a record is classified into.
type Category string

const (
	Logon             Category = "Logon"
	Logoff            Category = "Logoff"
	Lock              Category = "Lock"
	Unlock            Category = "Unlock"
	SessionConnect    Category = "SessionConnect"
	SessionDisconnect Category = "SessionDisconnect"
	Other             Category = "Other"
)

// appSuffix is appended to a tracked source name to form its category.
const appSuffix = "Event"

// AppCategory returns the toggle category for a tracked application source.
func AppCategory(source string) Category {
	return Category(source + appSuffix)
}

// SystemCategories lists the six categories driven by numeric event codes.
func SystemCategories() []Category {
	return []Category{Logon, Logoff, Lock, Unlock, SessionConnect, SessionDisconnect}
}

// IsSystem reports whether c is one of the six code-driven categories.
func (c Category) IsSystem() bool {
	switch c {
	case Logon, Logoff, Lock, Unlock, SessionConnect, SessionDisconnect:
		return true
	}
	return false
}

// DefaultSystemCodes maps the Security log event IDs to their category.
func DefaultSystemCodes() map[int]Category {
	return map[int]Category{
		4624: Logon,
		4634: Logoff,
		4800: Lock,
		4801: Unlock,
		4778: SessionConnect,
		4779: SessionDisconnect,
	}
}

// Tagged is a record's timestamp paired with its classified category.
type Tagged struct {
	Timestamp time.Time
	Category  Category
}

// Date is a calendar day with no time or zone component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day t's wall clock falls on.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Before reports whether d is an earlier day than o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// MarshalText lets Date be used as a JSON object key.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	v, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
