package parser

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Date layouts used by the supported review sites
var (
	// G2Layouts matches "March 10, 2024"
	G2Layouts = []string{"January 2, 2006"}

	// CapterraLayouts matches the datetime attribute of <time> elements
	CapterraLayouts = []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
)

// ErrDateParse is matched by every DateParseError
var ErrDateParse = errors.New("unparsable date")

// DateParseError reports a record date that could not be normalized
type DateParseError struct {
	Raw     string
	Layouts []string
	Err     error
}

func (e *DateParseError) Error() string {
	if strings.TrimSpace(e.Raw) == "" {
		return "unparsable date: empty date text"
	}
	msg := fmt.Sprintf("unparsable date %q (layouts %s)", e.Raw, strings.Join(e.Layouts, " | "))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DateParseError) Is(target error) bool {
	return target == ErrDateParse
}

func (e *DateParseError) Unwrap() error {
	return e.Err
}

// NormalizeDate parses raw with the first matching layout and returns it in UTC.
// Layouts without a zone are read as UTC.
func NormalizeDate(raw string, layouts ...string) (time.Time, error) {
	text := normalizeWhitespace(raw)
	if text == "" {
		return time.Time{}, &DateParseError{Raw: raw, Layouts: layouts}
	}

	var lastErr error
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, text, time.UTC)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}

	return time.Time{}, &DateParseError{Raw: raw, Layouts: layouts, Err: lastErr}
}
