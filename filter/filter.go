package filter

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format accepted on the command line
const DateLayout = "2006-01-02"

// Position describes where a timestamp falls relative to a DateRange
type Position int

const (
	Within Position = iota
	BeforeStart
	AfterEnd
)

func (p Position) String() string {
	switch p {
	case Within:
		return "within"
	case BeforeStart:
		return "before_start"
	case AfterEnd:
		return "after_end"
	}
	return fmt.Sprintf("position(%d)", int(p))
}

// DateRange is an inclusive [Start, End] window in UTC
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a range and rejects start after end
func NewDateRange(start, end time.Time) (DateRange, error) {
	start, end = start.UTC(), end.UTC()
	if start.After(end) {
		return DateRange{}, fmt.Errorf("start date %s is after end date %s",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return DateRange{Start: start, End: end}, nil
}

// ParseDateRange parses two YYYY-MM-DD dates. End covers the whole end day, so a
// review published at any time on the end date is retained.
func ParseDateRange(startText, endText string) (DateRange, error) {
	start, err := time.ParseInLocation(DateLayout, startText, time.UTC)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid start date %q (use YYYY-MM-DD): %w", startText, err)
	}
	end, err := time.ParseInLocation(DateLayout, endText, time.UTC)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid end date %q (use YYYY-MM-DD): %w", endText, err)
	}
	return NewDateRange(start, end.AddDate(0, 0, 1).Add(-time.Nanosecond))
}

// Locate reports where t falls relative to the range
func (r DateRange) Locate(t time.Time) Position {
	switch {
	case t.Before(r.Start):
		return BeforeStart
	case t.After(r.End):
		return AfterEnd
	}
	return Within
}

// Contains reports whether t lies inside the range, both ends inclusive
func (r DateRange) Contains(t time.Time) bool {
	return r.Locate(t) == Within
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.Start.Format(DateLayout), r.End.Format(DateLayout))
}
