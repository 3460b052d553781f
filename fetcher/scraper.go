package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Fetcher interface defines the contract for fetching implementations
type Fetcher interface {
	// Fetch retrieves the HTML of one page of reviews. page is 1-based.
	// An empty string with a nil error means the page does not exist.
	Fetch(ctx context.Context, page int) (string, error)
}

// ErrBlocked is matched by a FetchError whose response was 403 Forbidden
var ErrBlocked = errors.New("blocked by the remote site")

// FetchError reports a failure to retrieve or render a page
type FetchError struct {
	URL        string
	Page       int
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch page %d (%s): HTTP %d: %v", e.Page, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("failed to fetch page %d (%s): %v", e.Page, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == ErrBlocked && e.StatusCode == http.StatusForbidden
}
