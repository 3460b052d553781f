package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"review-scraper/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollyFetcher_Fetch(t *testing.T) {
	var gotUA, gotAccept string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><div class="review">ok</div></body></html>`)
	}))
	defer ts.Close()

	cfg := config.GetDefaultConfig()
	f, err := NewCollyFetcher(ts.URL, cfg, zerolog.Nop())
	require.NoError(t, err)

	html, err := f.Fetch(context.Background(), 1)
	require.NoError(t, err)
	assert.Contains(t, html, `<div class="review">ok</div>`)
	assert.Equal(t, cfg.Scraper.UserAgent, gotUA)
	assert.Equal(t, acceptHTML, gotAccept)

	// fetching the same URL again is allowed
	_, err = f.Fetch(context.Background(), 1)
	require.NoError(t, err)
}

func TestCollyFetcher_SinglePageSource(t *testing.T) {
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, "<html></html>")
	}))
	defer ts.Close()

	f, err := NewCollyFetcher(ts.URL, config.GetDefaultConfig(), zerolog.Nop())
	require.NoError(t, err)

	html, err := f.Fetch(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, html)
	assert.Zero(t, hits, "page 2 must not hit the network")
}

func TestCollyFetcher_Forbidden(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	f, err := NewCollyFetcher(ts.URL, config.GetDefaultConfig(), zerolog.Nop())
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBlocked))

	var ferr *FetchError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, http.StatusForbidden, ferr.StatusCode)
	assert.Equal(t, ts.URL, ferr.URL)
}

func TestCollyFetcher_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	f, err := NewCollyFetcher(ts.URL, config.GetDefaultConfig(), zerolog.Nop())
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), 1)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrBlocked))
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestFetchError(t *testing.T) {
	cause := errors.New("connection reset")
	err := &FetchError{URL: "https://example.com", Page: 3, Err: cause}

	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrBlocked))
	assert.Equal(t, "failed to fetch page 3 (https://example.com): connection reset", err.Error())
}

func TestG2PageURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		company  string
		page     int
		expected string
	}{
		{"first page", "https://www.g2.com", "notion", 1, "https://www.g2.com/products/notion/reviews?page=1"},
		{"trailing slash", "https://www.g2.com/", "notion", 2, "https://www.g2.com/products/notion/reviews?page=2"},
		{"escaped slug", "https://www.g2.com", "foo bar", 1, "https://www.g2.com/products/foo%20bar/reviews?page=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, G2PageURL(tt.base, tt.company)(tt.page))
		})
	}
}

// fakeViewport grows its height by growth for the first growFor scrolls
type fakeViewport struct {
	height    int
	growth    int
	growFor   int
	scrolls   int
	heightErr error
}

func (v *fakeViewport) Height() (int, error) {
	return v.height, v.heightErr
}

func (v *fakeViewport) ScrollBy(dy int) error {
	v.scrolls++
	if v.scrolls <= v.growFor {
		v.height += v.growth
	}
	return nil
}

func TestScrollUntilStable(t *testing.T) {
	tests := []struct {
		name       string
		vp         *fakeViewport
		maxSteps   int
		wantStable bool
	}{
		{"short static page", &fakeViewport{height: 400}, 50, true},
		{"lazy loaded content", &fakeViewport{height: 400, growth: 300, growFor: 3}, 50, true},
		{"endless page hits the limit", &fakeViewport{height: 400, growth: 1000, growFor: 1000}, 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps, stable, err := scrollUntilStable(context.Background(), tt.vp, 200, time.Millisecond, tt.maxSteps)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStable, stable)
			assert.LessOrEqual(t, steps, tt.maxSteps)
			if tt.wantStable {
				assert.GreaterOrEqual(t, tt.vp.scrolls*200, tt.vp.height, "scrolled to the bottom")
			}
		})
	}
}

func TestScrollUntilStable_Errors(t *testing.T) {
	boom := errors.New("eval failed")
	_, _, err := scrollUntilStable(context.Background(), &fakeViewport{heightErr: boom}, 200, time.Millisecond, 10)
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, stable, err := scrollUntilStable(ctx, &fakeViewport{height: 10000}, 200, time.Hour, 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, stable)
}
