package fetcher

import (
	"context"
	"time"
)

// viewport is the part of a rendered page the scroll loop needs
type viewport interface {
	Height() (int, error)
	ScrollBy(dy int) error
}

// scrollUntilStable scrolls down one step per interval until the scrolled
// distance has reached the page height and the height stopped growing since the
// previous tick. It gives up after maxSteps ticks. stable is false when the
// limit was hit first.
func scrollUntilStable(ctx context.Context, v viewport, step int, interval time.Duration, maxSteps int) (steps int, stable bool, err error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	scrolled := 0
	lastHeight := -1

	for steps = 0; steps < maxSteps; steps++ {
		height, err := v.Height()
		if err != nil {
			return steps, false, err
		}
		if scrolled >= height && height == lastHeight {
			return steps, true, nil
		}
		lastHeight = height

		if err := v.ScrollBy(step); err != nil {
			return steps, false, err
		}
		scrolled += step

		select {
		case <-ctx.Done():
			return steps, false, ctx.Err()
		case <-ticker.C:
		}
	}

	return steps, false, nil
}
