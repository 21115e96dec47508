package crawler

import (
	"context"
	"fmt"

	"github.com/pttlab/pttgrab/internal/ptt"
)

// ResolveRange validates a page range and expands it into ascending page
// numbers. Both bounds are inclusive.
func ResolveRange(start, end int) ([]int, error) {
	if start <= 0 || end <= 0 {
		return nil, fmt.Errorf("%w: pages must be positive, got [%d,%d]", ErrInvalidRange, start, end)
	}
	if start > end {
		return nil, fmt.Errorf("%w: start %d > end %d", ErrInvalidRange, start, end)
	}
	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages, nil
}

// Locator resolves a board's newest page index from its head page.
type Locator struct {
	fetcher Fetcher
	parser  Parser
	retry   *Retryer
}

// NewLocator builds a Locator sharing the engine's fetcher and retry policy.
func NewLocator(fetcher Fetcher, parser Parser, retry *Retryer) *Locator {
	return &Locator{fetcher: fetcher, parser: parser, retry: retry}
}

// LatestPage fetches the board index and extracts the highest page number
// from its pagination control. Failures here are run-fatal: there is nothing
// to range over if the board's page count cannot be determined.
func (l *Locator) LatestPage(ctx context.Context, board string) (int, error) {
	url := ptt.BoardIndexURL(board)
	body, _, err := l.retry.Do(ctx, func() ([]byte, error) {
		return l.fetcher.Fetch(ctx, url)
	})
	if err != nil {
		return 0, fmt.Errorf("resolve latest page for %s: %w", board, err)
	}
	latest, err := l.parser.LatestPage(board, body)
	if err != nil {
		return 0, &ParseError{URL: url, Cause: err}
	}
	return latest, nil
}
