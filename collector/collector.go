// Package collector drives page-by-page review collection: fetch a page,
// extract its records, keep those inside the date range and stop once the
// source can no longer yield in-range reviews.
package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"review-scraper/fetcher"
	"review-scraper/filter"
	"review-scraper/models"
	"review-scraper/parser"

	"github.com/rs/zerolog"
)

// StopReason tells why a run reached Done
type StopReason string

const (
	// StopBoundary: a record older than the range start was seen on a date-descending source
	StopBoundary StopReason = "boundary_crossed"
	// StopEmptyPage: the extractor found no records (exhausted source or a blocked page)
	StopEmptyPage StopReason = "empty_page"
	// StopPageLimit: MaxPages pages were processed
	StopPageLimit StopReason = "page_limit"
)

// Pacer delays the next page fetch
type Pacer interface {
	Wait(ctx context.Context) error
}

// pageEnder is implemented by pacers that time their delay from the end of
// the previous page, such as PageDelay
type pageEnder interface {
	PageDone()
}

// Options configure a Collector
type Options struct {
	Company string
	Source  models.Source
	// DateLayouts are tried in order to normalize record dates
	DateLayouts []string
	// MaxPages bounds the traversal even if no boundary is ever crossed
	MaxPages int
	// Descending enables the early exit on the first record older than the range start
	Descending bool
	// Pacer, when set, is waited on before every page after the first
	Pacer  Pacer
	Logger zerolog.Logger
}

// SkippedRecord is a record dropped without affecting the run
type SkippedRecord struct {
	Page   int
	Index  int
	Record models.Record
	Err    error
}

// Result is the outcome of a completed run
type Result struct {
	Reviews []models.Review
	// Pages is the number of pages fetched
	Pages   int
	Skipped []SkippedRecord
	Stop    StopReason
}

// Empty reports whether no review matched the range
func (r *Result) Empty() bool {
	return len(r.Reviews) == 0
}

// ErrInvalidBody marks records skipped because their body text is empty
var ErrInvalidBody = errors.New("review body is empty")

// Collector pages through one source. A Collector may run many times, but
// each Run owns its cursor and result exclusively.
type Collector struct {
	fetcher   fetcher.Fetcher
	extractor parser.Extractor
	opts      Options
}

// New creates a Collector
func New(f fetcher.Fetcher, ex parser.Extractor, opts Options) (*Collector, error) {
	if f == nil || ex == nil {
		return nil, errors.New("collector needs a fetcher and an extractor")
	}
	if opts.MaxPages <= 0 {
		return nil, fmt.Errorf("max pages must be positive, got %d", opts.MaxPages)
	}
	if len(opts.DateLayouts) == 0 {
		return nil, errors.New("at least one date layout is required")
	}
	return &Collector{fetcher: f, extractor: ex, opts: opts}, nil
}

type state int

const (
	stateFetching state = iota
	stateExtracting
	stateEvaluating
	stateAdvancing
	stateDone
	stateFailed
)

// Run collects the reviews whose date lies in rng. Fetch and extraction errors
// end the run and are returned; a record that cannot be normalized is skipped.
func (c *Collector) Run(ctx context.Context, rng filter.DateRange) (*Result, error) {
	log := c.opts.Logger.With().
		Str("source", string(c.opts.Source)).
		Str("company", c.opts.Company).
		Logger()

	var (
		res     = &Result{Reviews: []models.Review{}}
		cursor  = 1
		html    string
		records []models.Record
		runErr  error
		st      = stateFetching
	)

	for st != stateDone && st != stateFailed {
		switch st {
		case stateFetching:
			if cursor > 1 && c.opts.Pacer != nil {
				if err := c.opts.Pacer.Wait(ctx); err != nil {
					runErr, st = err, stateFailed
					continue
				}
			}
			if err := ctx.Err(); err != nil {
				runErr, st = err, stateFailed
				continue
			}

			page, err := c.fetcher.Fetch(ctx, cursor)
			if err != nil {
				runErr, st = err, stateFailed
				continue
			}
			res.Pages++
			html, st = page, stateExtracting

		case stateExtracting:
			if strings.TrimSpace(html) == "" {
				records = nil
			} else {
				var err error
				records, err = c.extractor.Extract(html)
				if err != nil {
					runErr, st = fmt.Errorf("failed to extract page %d: %w", cursor, err), stateFailed
					continue
				}
			}

			if len(records) == 0 {
				log.Info().Int("page", cursor).Msg("no review elements found, possibly blocked or no more reviews")
				res.Stop, st = StopEmptyPage, stateDone
				continue
			}
			st = stateEvaluating

		case stateEvaluating:
			stop, err := c.evaluate(ctx, log, cursor, records, rng, res)
			switch {
			case err != nil:
				runErr, st = err, stateFailed
			case stop:
				res.Stop, st = StopBoundary, stateDone
			default:
				st = stateAdvancing
			}

		case stateAdvancing:
			if cursor >= c.opts.MaxPages {
				res.Stop, st = StopPageLimit, stateDone
				continue
			}
			if pe, ok := c.opts.Pacer.(pageEnder); ok {
				pe.PageDone()
			}
			cursor++
			st = stateFetching
		}
	}

	if st == stateFailed {
		log.Debug().Err(runErr).Int("page", cursor).Msg("collection failed")
		return nil, runErr
	}

	log.Debug().
		Int("pages", res.Pages).
		Int("reviews", len(res.Reviews)).
		Int("skipped", len(res.Skipped)).
		Str("stop", string(res.Stop)).
		Msg("collection finished")
	return res, nil
}

// evaluate applies the range to one page of records, in page order. It reports
// stop=true as soon as a record older than the range start is seen on a
// descending source; the remaining records of the page are not looked at.
func (c *Collector) evaluate(ctx context.Context, log zerolog.Logger, page int, records []models.Record, rng filter.DateRange, res *Result) (stop bool, err error) {
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		publishedAt, err := parser.NormalizeDate(rec.DateText, c.opts.DateLayouts...)
		if err != nil {
			res.Skipped = append(res.Skipped, SkippedRecord{Page: page, Index: i, Record: rec, Err: err})
			log.Debug().Err(err).Int("page", page).Int("index", i).Msg("skipping record")
			continue
		}

		switch rng.Locate(publishedAt) {
		case filter.Within:
			if strings.TrimSpace(rec.Body) == "" {
				res.Skipped = append(res.Skipped, SkippedRecord{Page: page, Index: i, Record: rec, Err: ErrInvalidBody})
				log.Debug().Int("page", page).Int("index", i).Msg("skipping record without body")
				continue
			}
			res.Reviews = append(res.Reviews, models.Review{
				Company:     c.opts.Company,
				Source:      c.opts.Source,
				PublishedAt: publishedAt,
				Rating:      rec.Rating,
				Title:       rec.Title,
				Body:        rec.Body,
			})
		case filter.BeforeStart:
			if c.opts.Descending {
				log.Debug().Int("page", page).Int("index", i).Time("published_at", publishedAt).Msg("crossed range start")
				return true, nil
			}
		}
	}
	return false, nil
}
