package parser

import (
	"testing"

	"review-scraper/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const g2Page = `
<html><body>
  <div class="paper paper--no-padding p-lg">
    <div class="review-item-heading">"Great for teams"</div>
    <span itemprop="ratingValue">4.5</span>
    <time itemprop="datePublished">March 10, 2024</time>
    <div class="show-more__content">
      We use it   every day.
    </div>
  </div>
  <div class="paper paper--no-padding p-lg">
    <meta itemprop="datePublished" content="March 8, 2024">
    <meta itemprop="ratingValue" content="3">
    <div class="show-more__content">Decent.</div>
  </div>
  <div class="paper p-lg">not a review card</div>
</body></html>`

const capterraPage = `
<html><body>
  <div class="review">
    <h3>Solid product</h3>
    <span data-testid="rating">5.0</span>
    <time datetime="2024-03-10T12:00:00Z">Mar 10, 2024</time>
    <p>Easy to set up.</p>
  </div>
  <div class="review">
    <p>No date on this one.</p>
  </div>
</body></html>`

func TestG2Parser_Extract(t *testing.T) {
	records, err := NewG2Parser().Extract(g2Page)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, models.Record{
		DateText: "March 10, 2024",
		Rating:   "4.5",
		Title:    `"Great for teams"`,
		Body:     "We use it every day.",
	}, records[0])

	assert.Equal(t, "March 8, 2024", records[1].DateText, "falls back to content attribute")
	assert.Equal(t, "3", records[1].Rating)
	assert.Empty(t, records[1].Title)
	assert.Equal(t, "Decent.", records[1].Body)
}

func TestG2Parser_ExtractEmptyPage(t *testing.T) {
	records, err := NewG2Parser().Extract(`<html><body><h1>Access denied</h1></body></html>`)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCapterraParser_Extract(t *testing.T) {
	records, err := NewCapterraParser().Extract(capterraPage)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "2024-03-10T12:00:00Z", records[0].DateText)
	assert.Equal(t, "Solid product", records[0].Title)
	assert.Equal(t, "5.0", records[0].Rating)
	assert.Equal(t, "Solid product 5.0 Mar 10, 2024 Easy to set up.", records[0].Body)

	assert.Empty(t, records[1].DateText)
	assert.Equal(t, "No date on this one.", records[1].Body)
}

func TestForSource(t *testing.T) {
	ex, layouts, err := ForSource(models.SourceG2)
	require.NoError(t, err)
	assert.IsType(t, &G2Parser{}, ex)
	assert.Equal(t, G2Layouts, layouts)

	ex, layouts, err = ForSource(models.SourceCapterra)
	require.NoError(t, err)
	assert.IsType(t, &CapterraParser{}, ex)
	assert.Equal(t, CapterraLayouts, layouts)

	_, _, err = ForSource(models.Source("Trustpilot"))
	assert.Error(t, err)
}

func TestNormalizeWhitespace(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"collapses runs", "a   b\n\tc", "a b c"},
		{"non-breaking space", "a\u00a0b", "a b"},
		{"trims", "  a  ", "a"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeWhitespace(tt.input))
		})
	}
}
