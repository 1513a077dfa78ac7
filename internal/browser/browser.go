// Package browser wraps headless Chrome behind a small paging capability so
// the extraction and discovery logic stays pure and unit-testable.
package browser

import (
	"context"
	"time"
)

// Pager is the browser capability the harvesting stages depend on. A Pager
// owns one rendered page at a time; Navigate replaces it.
type Pager interface {
	// Navigate loads url and blocks until the document body is ready.
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until selector is visible or timeout elapses. It
	// reports whether the element appeared; callers degrade and continue on
	// false rather than failing.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) bool
	// Click clicks the first element matching selector if it becomes visible
	// within timeout, reporting whether the click happened.
	Click(ctx context.Context, selector string, timeout time.Duration) bool
	// ScrollUntilStable repeatedly scrolls to the bottom of the page, waiting
	// wait between attempts, until the measured content height has not grown
	// for stableRounds consecutive attempts.
	ScrollUntilStable(ctx context.Context, wait time.Duration, stableRounds int) error
	// HTML returns the current serialized DOM.
	HTML(ctx context.Context) (string, error)
}
