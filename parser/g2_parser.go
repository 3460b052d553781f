package parser

import (
	"review-scraper/models"

	"github.com/PuerkitoBio/goquery"
)

const (
	g2ReviewSelector = ".paper.paper--no-padding.p-lg"
	g2DateSelector   = "[itemprop='datePublished']"
	g2RatingSelector = "[itemprop='ratingValue']"
	g2TitleSelector  = ".review-item-heading"
	g2BodySelector   = ".show-more__content"
)

// G2Parser extracts review cards from a rendered G2 reviews page
type G2Parser struct{}

// NewG2Parser creates a new G2Parser instance
func NewG2Parser() *G2Parser {
	return &G2Parser{}
}

// Extract implements Extractor
func (p *G2Parser) Extract(htmlContent string) ([]models.Record, error) {
	doc, err := loadDocument(htmlContent)
	if err != nil {
		return nil, err
	}

	var records []models.Record
	doc.Find(g2ReviewSelector).Each(func(i int, s *goquery.Selection) {
		records = append(records, models.Record{
			// G2 renders the date as text and mirrors it in a content attribute on <meta>
			DateText: fieldText(s, g2DateSelector, "content"),
			Rating:   fieldText(s, g2RatingSelector, "content"),
			Title:    fieldText(s, g2TitleSelector),
			Body:     fieldText(s, g2BodySelector),
		})
	})

	return records, nil
}
