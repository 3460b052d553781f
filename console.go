package main

import (
	"io"
	"strings"

	"review-scraper/filter"
	"review-scraper/models"

	"github.com/jedib0t/go-pretty/v6/table"
)

const maxTitleWidth = 60

// printReviews renders the retained reviews as a table
func printReviews(w io.Writer, reviews []models.Review) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Published", "Rating", "Title"})

	for i, r := range reviews {
		t.AppendRow(table.Row{i + 1, r.PublishedAt.Format(filter.DateLayout), dash(r.Rating), dash(truncate(r.Title, maxTitleWidth))})
	}

	t.AppendFooter(table.Row{"", "Total", len(reviews), ""})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
