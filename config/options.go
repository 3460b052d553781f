package config

import (
	"fmt"
	"net/url"
	"strings"

	"review-scraper/filter"
	"review-scraper/models"
)

// DefaultOutput is the JSON file written when --output is not given
const DefaultOutput = "output.json"

// ValidationError reports bad command line input
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid --%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Options are the raw command line values of one run
type Options struct {
	Website   string
	Company   string
	StartDate string
	EndDate   string
	URL       string
	Output    string
}

// Run is a validated, ready-to-execute set of Options
type Run struct {
	Source  models.Source
	Company string
	Range   filter.DateRange
	URL     string
	Output  string
}

// Validate checks the options and builds a Run. Errors are *ValidationError.
func (o Options) Validate() (*Run, error) {
	source, err := models.ParseSource(o.Website)
	if err != nil {
		return nil, &ValidationError{Field: "website", Err: err}
	}

	company := strings.TrimSpace(o.Company)
	if company == "" {
		return nil, &ValidationError{Field: "company_name", Err: fmt.Errorf("company name is required")}
	}

	rng, err := filter.ParseDateRange(strings.TrimSpace(o.StartDate), strings.TrimSpace(o.EndDate))
	if err != nil {
		return nil, &ValidationError{Field: "start_date/--end_date", Err: err}
	}

	rawURL := strings.TrimSpace(o.URL)
	if !source.Paginated() {
		if rawURL == "" {
			return nil, &ValidationError{Field: "url", Err: fmt.Errorf("URL is required for %s scraping", strings.ToLower(string(source)))}
		}
		u, err := url.Parse(rawURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, &ValidationError{Field: "url", Err: fmt.Errorf("%q is not an absolute http(s) URL", rawURL)}
		}
	}

	output := strings.TrimSpace(o.Output)
	if output == "" {
		output = DefaultOutput
	}

	return &Run{
		Source:  source,
		Company: company,
		Range:   rng,
		URL:     rawURL,
		Output:  output,
	}, nil
}
