package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pttlab/pttgrab/internal/config"
	"github.com/pttlab/pttgrab/internal/ptt"
)

// CollyFetcher implements Fetcher using a Colly collector. The base
// collector owns the session state: the age-verification cookie and the
// User-Agent are installed once at construction and shared by every clone,
// so workers never re-authenticate per task. A host-level token bucket caps
// the aggregate request rate on top of per-worker pacing.
type CollyFetcher struct {
	base   *colly.Collector
	host   *rate.Limiter
	logger *zap.Logger
}

// NewCollyFetcher constructs the session fetcher.
func NewCollyFetcher(cfg config.CrawlerConfig, logger *zap.Logger) (*CollyFetcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	base := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(cfg.UserAgent),
	)
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   cfg.MaxWorkers * 2,
		MaxConnsPerHost:       cfg.MaxWorkers * 2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.Timeout)

	// Age-gated boards require the over18 cookie on every request.
	if err := base.SetCookies(ptt.BaseURL, []*http.Cookie{{
		Name:  "over18",
		Value: "1",
		Path:  "/",
	}}); err != nil {
		return nil, fmt.Errorf("set session cookies: %w", err)
	}

	limit := rate.Inf
	if cfg.HostRPS > 0 {
		limit = rate.Limit(cfg.HostRPS)
	}

	return &CollyFetcher{
		base:   base,
		host:   rate.NewLimiter(limit, 1),
		logger: logger,
	}, nil
}

// Fetch performs one GET with the shared session. It makes exactly one
// attempt: retries belong to the Retryer, not here.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := f.host.Wait(ctx); err != nil {
		return nil, fmt.Errorf("host rate wait: %w", err)
	}

	collector := f.base.Clone()
	resultCh := make(chan fetchResult, 1)
	var once sync.Once
	send := func(res fetchResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnResponse(func(r *colly.Response) {
		send(fetchResult{body: append([]byte{}, r.Body...)})
	})
	collector.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		send(fetchResult{err: classifyHTTPError(rawURL, status, err)})
	})

	if err := collector.Visit(rawURL); err != nil {
		return nil, &NetworkError{URL: rawURL, Cause: err}
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if res.err != nil {
			f.logger.Debug("fetch failed", zap.String("url", rawURL), zap.Error(res.err))
		}
		return res.body, res.err
	default:
		return nil, &NetworkError{URL: rawURL, Cause: errors.New("colly fetch produced no result")}
	}
}

func classifyHTTPError(url string, status int, cause error) error {
	if cause == nil {
		cause = errors.New("unknown colly error")
	}
	if status == http.StatusNotFound {
		return &NotFoundError{URL: url}
	}
	return &NetworkError{URL: url, Cause: fmt.Errorf("status %d: %w", status, cause)}
}

type fetchResult struct {
	body []byte
	err  error
}
