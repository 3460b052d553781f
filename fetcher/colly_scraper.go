package fetcher

import (
	"context"
	"fmt"

	"review-scraper/config"

	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"
)

const acceptHTML = "text/html,application/xhtml+xml"

// CollyFetcher implements the Fetcher interface for a single static page using colly
type CollyFetcher struct {
	url       string
	collector *colly.Collector
	logger    zerolog.Logger
}

// NewCollyFetcher creates a new CollyFetcher for url
func NewCollyFetcher(url string, cfg *config.Config, logger zerolog.Logger) (*CollyFetcher, error) {
	c := colly.NewCollector(
		colly.UserAgent(cfg.Scraper.UserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(cfg.Scraper.RequestTimeout)

	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
	}); err != nil {
		return nil, fmt.Errorf("failed to set limit rule: %w", err)
	}

	return &CollyFetcher{
		url:       url,
		collector: c,
		logger:    logger.With().Str("fetcher", "colly").Logger(),
	}, nil
}

// Fetch implements the Fetcher interface. The source has a single page.
func (cf *CollyFetcher) Fetch(ctx context.Context, page int) (string, error) {
	if page > 1 {
		return "", nil
	}

	// callbacks are per call, so work on a clone that shares config and limits
	c := cf.collector.Clone()
	c.Context = ctx

	var (
		body   string
		status int
	)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", acceptHTML)
	})
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = string(r.Body)
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		cf.logger.Debug().Err(err).Int("status", status).Str("url", cf.url).Msg("fetch error")
	})

	cf.logger.Info().Str("url", cf.url).Msg("fetching page")
	if err := c.Visit(cf.url); err != nil {
		return "", &FetchError{URL: cf.url, Page: page, StatusCode: status, Err: err}
	}

	cf.logger.Debug().Int("status", status).Int("bytes", len(body)).Msg("page fetched")
	return body, nil
}
