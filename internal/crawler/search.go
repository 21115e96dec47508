package crawler

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pttlab/pttgrab/internal/ptt"
)

// Search scans listing pages from the newest page backwards, collects the
// stubs whose titles contain keyword, and then fetches the matches through
// the worker pool. The listing scan itself is sequential: match order is
// discovery order (descending page, then listing order within a page), and
// that order is only known once pages are walked in descending sequence.
// Match titles use exact substring comparison with no case folding.
//
// A listing page that fails after retries is recorded in the result's
// failure map and the scan moves on to the next older page. The scan stops
// after maxPages listing pages or when page 1 has been scanned, whichever
// comes first.
func (e *Engine) Search(ctx context.Context, board, keyword string, maxPages int) (*Result, error) {
	if maxPages <= 0 {
		return nil, fmt.Errorf("%w: max pages %d", ErrInvalidRange, maxPages)
	}
	latest, err := e.locator.LatestPage(ctx, board)
	if err != nil {
		e.emitRunError(board, err)
		return nil, err
	}

	pacer := NewPacer(e.cfg.DelayBetweenRequests, e.cfg.DelayBetweenPages)
	retry := NewRetryer(e.cfg.MaxRetries, e.cfg.RetryBackoffBase)

	var (
		matches      []ptt.ArticleStub
		pageFailures []Failure
	)
	scanned := 0
	for page := latest; page >= 1 && scanned < maxPages; page-- {
		if ctx.Err() != nil {
			break
		}
		stubs, attempts, err := e.scanPage(ctx, pacer, retry, board, page)
		scanned++
		if err != nil {
			pageFailures = append(pageFailures, Failure{
				Task:     fmt.Sprintf("page/%d", page),
				Kind:     Classify(err),
				Attempts: attempts,
				Error:    err.Error(),
			})
			e.logger.Warn("search listing scan failed",
				zap.String("board", board),
				zap.Int("page", page),
				zap.Int("attempts", attempts),
				zap.Error(err),
			)
			continue
		}
		for _, stub := range stubs {
			if strings.Contains(stub.Title, keyword) {
				matches = append(matches, stub)
			}
		}
	}

	tasks := make([]Task, 0, len(matches))
	for i, stub := range matches {
		tasks = append(tasks, ArticleTask(board, stub.ArticleID, i))
	}
	result, err := e.run(ctx, board, tasks)
	if err != nil {
		return nil, err
	}
	for _, f := range pageFailures {
		result.Failures[f.Task] = f
	}
	return result, nil
}

// scanPage fetches and parses one listing page for the search walk.
func (e *Engine) scanPage(ctx context.Context, pacer *Pacer, retry *Retryer, board string, page int) ([]ptt.ArticleStub, int, error) {
	if err := pacer.WaitPage(ctx); err != nil {
		return nil, 0, err
	}
	if err := pacer.WaitRequest(ctx); err != nil {
		return nil, 0, err
	}
	url := ptt.PageURL(board, page)
	body, attempts, err := retry.Do(ctx, func() ([]byte, error) {
		return e.fetcher.Fetch(ctx, url)
	})
	pacer.MarkRequest()
	pacer.MarkPage()
	if err != nil {
		return nil, attempts, err
	}
	stubs, err := e.parser.ParseListing(board, body)
	if err != nil {
		return nil, attempts, &ParseError{URL: url, Cause: err}
	}
	return stubs, attempts, nil
}
