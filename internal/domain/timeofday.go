package domain

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// TimeOfDay is a clock time within a day, stored as minutes since midnight.
// It serializes as a zero-padded "HH:MM" string.
type TimeOfDay int

// ParseTimeOfDay parses a strict "HH:MM" clock time. The hour may be one or
// two digits, the minute must be exactly two; nothing may trail the minute.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	sep := strings.IndexByte(s, ':')
	if sep < 1 || sep > 2 || len(s)-sep != 3 {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	for i, c := range s {
		if i != sep && (c < '0' || c > '9') {
			return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
		}
	}
	h, _ := strconv.Atoi(s[:sep])
	m, _ := strconv.Atoi(s[sep+1:])
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}
	return TimeOfDay(h*60 + m), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t < other
}

func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseTimeOfDay(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case []byte:
		return t.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", src)
	}
}

func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

// Interval is a half-open [Start, End) range within a day.
type Interval struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Overlaps reports whether two half-open intervals intersect. Intervals that
// merely touch at a boundary do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && i.End > other.Start
}
