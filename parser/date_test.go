package parser

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		layouts  []string
		expected time.Time
		wantErr  bool
	}{
		{"g2 long month", "March 10, 2024", G2Layouts, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), false},
		{"g2 single digit day", "March 1, 2024", G2Layouts, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), false},
		{"g2 surrounding whitespace", "\n  February 20, 2024 \t", G2Layouts, time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC), false},
		{"capterra rfc3339 with offset", "2024-03-10T10:00:00+02:00", CapterraLayouts, time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC), false},
		{"capterra zulu", "2024-03-10T10:00:00Z", CapterraLayouts, time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC), false},
		{"capterra nano", "2024-03-10T10:00:00.123Z", CapterraLayouts, time.Date(2024, 3, 10, 10, 0, 0, 123000000, time.UTC), false},
		{"capterra date only", "2024-03-10", CapterraLayouts, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), false},

		{"empty", "", G2Layouts, time.Time{}, true},
		{"whitespace only", "   ", G2Layouts, time.Time{}, true},
		{"wrong format for source", "2024-03-10", G2Layouts, time.Time{}, true},
		{"abbreviated month", "Mar 10, 2024", G2Layouts, time.Time{}, true},
		{"garbage", "yesterday", CapterraLayouts, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDate(tt.input, tt.layouts...)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrDateParse))
				var dpe *DateParseError
				require.True(t, errors.As(err, &dpe))
				assert.Equal(t, tt.input, dpe.Raw)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "got %s, want %s", got, tt.expected)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestDateParseError_Message(t *testing.T) {
	_, err := NormalizeDate("", G2Layouts...)
	assert.Contains(t, err.Error(), "empty")

	_, err = NormalizeDate("soon", G2Layouts...)
	assert.Contains(t, err.Error(), `"soon"`)
}
