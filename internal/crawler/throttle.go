package crawler

import (
	"context"
	"time"
)

// Pacer enforces minimum spacing between one worker's HTTP calls
// (delay_between_requests) and between its listing-page fetches
// (delay_between_pages). Intervals are measured from when the previous call
// returned, so in-flight time never counts against the idle gap. A Pacer is
// owned by a single worker and is not safe for concurrent use.
type Pacer struct {
	requestGap  time.Duration
	pageGap     time.Duration
	lastRequest time.Time
	lastPage    time.Time
}

// NewPacer builds a Pacer with the two configured gaps.
func NewPacer(requestGap, pageGap time.Duration) *Pacer {
	return &Pacer{requestGap: requestGap, pageGap: pageGap}
}

// WaitRequest blocks until requestGap has elapsed since the previous call
// was marked done, or the context finishes.
func (p *Pacer) WaitRequest(ctx context.Context) error {
	return wait(ctx, p.lastRequest, p.requestGap)
}

// MarkRequest records that an HTTP call just returned.
func (p *Pacer) MarkRequest() {
	p.lastRequest = time.Now()
}

// WaitPage blocks until pageGap has elapsed since the previous listing page
// was marked done. It is a no-op before the first page.
func (p *Pacer) WaitPage(ctx context.Context) error {
	return wait(ctx, p.lastPage, p.pageGap)
}

// MarkPage records that a listing page just finished.
func (p *Pacer) MarkPage() {
	p.lastPage = time.Now()
}

func wait(ctx context.Context, last time.Time, gap time.Duration) error {
	if last.IsZero() || gap <= 0 {
		return ctx.Err()
	}
	remaining := gap - time.Since(last)
	if remaining > 0 {
		pauseCtx(ctx, remaining)
	}
	return ctx.Err()
}
