package parser

import (
	"review-scraper/models"

	"github.com/PuerkitoBio/goquery"
)

const (
	capterraReviewSelector = ".review"
	capterraDateSelector   = "time[datetime]"
)

var (
	capterraTitleSelectors  = []string{"h3", "h2"}
	capterraRatingSelectors = []string{"[data-testid='rating']", "[itemprop='ratingValue']"}
)

// CapterraParser extracts reviews from a static Capterra product page
type CapterraParser struct{}

// NewCapterraParser creates a new CapterraParser instance
func NewCapterraParser() *CapterraParser {
	return &CapterraParser{}
}

// Extract implements Extractor. The body is the whole review card text.
func (p *CapterraParser) Extract(htmlContent string) ([]models.Record, error) {
	doc, err := loadDocument(htmlContent)
	if err != nil {
		return nil, err
	}

	var records []models.Record
	doc.Find(capterraReviewSelector).Each(func(i int, s *goquery.Selection) {
		records = append(records, models.Record{
			DateText: normalizeWhitespace(s.Find(capterraDateSelector).First().AttrOr("datetime", "")),
			Rating:   firstField(s, capterraRatingSelectors, "content", "aria-label"),
			Title:    firstField(s, capterraTitleSelectors),
			Body:     normalizeWhitespace(s.Text()),
		})
	})

	return records, nil
}
