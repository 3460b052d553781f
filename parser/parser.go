package parser

import (
	"fmt"
	"strings"
	"unicode"

	"review-scraper/models"

	"github.com/PuerkitoBio/goquery"
)

// Extractor turns one page of HTML into raw review records, in page order
type Extractor interface {
	Extract(htmlContent string) ([]models.Record, error)
}

// ForSource returns the extractor and date layouts for a review site
func ForSource(source models.Source) (Extractor, []string, error) {
	switch source {
	case models.SourceG2:
		return NewG2Parser(), G2Layouts, nil
	case models.SourceCapterra:
		return NewCapterraParser(), CapterraLayouts, nil
	}
	return nil, nil, fmt.Errorf("no parser for source %q", source)
}

func loadDocument(htmlContent string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// fieldText returns the normalized text of the first element matching selector.
// When the element has no text, the given attributes are tried in order.
func fieldText(s *goquery.Selection, selector string, attrs ...string) string {
	elem := s.Find(selector).First()
	if elem.Length() == 0 {
		return ""
	}
	if text := normalizeWhitespace(elem.Text()); text != "" {
		return text
	}
	for _, attr := range attrs {
		if v := normalizeWhitespace(elem.AttrOr(attr, "")); v != "" {
			return v
		}
	}
	return ""
}

// firstField tries several selectors and returns the first non-empty value
func firstField(s *goquery.Selection, selectors []string, attrs ...string) string {
	for _, selector := range selectors {
		if v := fieldText(s, selector, attrs...); v != "" {
			return v
		}
	}
	return ""
}

// normalizeWhitespace replaces unicode whitespace with spaces and collapses runs
func normalizeWhitespace(text string) string {
	normalized := strings.Builder{}
	for _, r := range text {
		if unicode.IsSpace(r) {
			normalized.WriteRune(' ')
		} else {
			normalized.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(normalized.String()), " ")
}
