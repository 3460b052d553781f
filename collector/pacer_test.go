package collector

import (
	"context"
	"testing"
	"time"

	"review-scraper/models"
	"review-scraper/parser"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowSource takes a fixed time per fetch and records when each fetch
// started and finished
type slowSource struct {
	*pagedSource
	took     time.Duration
	started  []time.Time
	finished []time.Time
}

func (s *slowSource) Fetch(ctx context.Context, page int) (string, error) {
	s.started = append(s.started, time.Now())
	time.Sleep(s.took)
	html, err := s.pagedSource.Fetch(ctx, page)
	s.finished = append(s.finished, time.Now())
	return html, err
}

func TestRun_PageDelayCountsFromEndOfPage(t *testing.T) {
	const delay = 50 * time.Millisecond

	src := &slowSource{
		pagedSource: &pagedSource{pages: [][]models.Record{
			{g2Record("March 10, 2024")},
			{g2Record("March 9, 2024")},
			{g2Record("March 8, 2024")},
		}},
		// pages slower than the delay must still be followed by a full delay
		took: 2 * delay,
	}
	c, err := New(src, src.pagedSource, Options{
		Source:      models.SourceG2,
		DateLayouts: parser.G2Layouts,
		MaxPages:    3,
		Descending:  true,
		Pacer:       NewPageDelay(delay),
		Logger:      zerolog.Nop(),
	})
	require.NoError(t, err)

	res, err := c.Run(context.Background(), mustRange(t, "2024-03-01", "2024-03-10"))
	require.NoError(t, err)
	require.Equal(t, StopPageLimit, res.Stop)
	require.Len(t, src.started, 3)

	for i := 1; i < len(src.started); i++ {
		gap := src.started[i].Sub(src.finished[i-1])
		assert.GreaterOrEqual(t, gap, delay-5*time.Millisecond, "gap before page %d", i+1)
	}
}

func TestPageDelay(t *testing.T) {
	t.Run("no wait before the first page", func(t *testing.T) {
		p := NewPageDelay(time.Hour)
		require.NoError(t, p.Wait(context.Background()))
	})

	t.Run("zero delay never waits", func(t *testing.T) {
		p := NewPageDelay(0)
		p.PageDone()
		start := time.Now()
		require.NoError(t, p.Wait(context.Background()))
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("waits a full delay after PageDone", func(t *testing.T) {
		p := NewPageDelay(40 * time.Millisecond)
		p.PageDone()
		start := time.Now()
		require.NoError(t, p.Wait(context.Background()))
		assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
	})

	t.Run("cancelled context", func(t *testing.T) {
		p := NewPageDelay(time.Hour)
		p.PageDone()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Error(t, p.Wait(ctx))
	})
}
