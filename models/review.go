package models

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies the review site a review was collected from
type Source string

const (
	SourceG2       Source = "G2"
	SourceCapterra Source = "Capterra"
)

// ParseSource maps a CLI website value (g2, capterra) to a Source
func ParseSource(website string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(website)) {
	case "g2":
		return SourceG2, nil
	case "capterra":
		return SourceCapterra, nil
	}
	return "", fmt.Errorf("unknown website %q: choose either \"g2\" or \"capterra\"", website)
}

// Paginated reports whether the source is traversed page by page
func (s Source) Paginated() bool {
	return s == SourceG2
}

// Record is one raw review tuple as extracted from a page, before normalization
type Record struct {
	DateText string
	Rating   string
	Title    string
	Body     string
}

// Review is a normalized, in-range review
type Review struct {
	Company     string    `json:"company"`
	Source      Source    `json:"source"`
	PublishedAt time.Time `json:"publishedAt"`
	Rating      string    `json:"rating,omitempty"`
	Title       string    `json:"title,omitempty"`
	Body        string    `json:"body"`
}
