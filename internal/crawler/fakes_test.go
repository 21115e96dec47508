package crawler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pttlab/pttgrab/internal/config"
	"github.com/pttlab/pttgrab/internal/ptt"
)

// stubFetcher serves canned responses keyed by URL and records every call.
type stubFetcher struct {
	mu    sync.Mutex
	calls []string
	fn    func(url string) ([]byte, error)
}

func (f *stubFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	return f.fn(url)
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// stubParser decodes the tiny body grammar the fetcher stubs emit:
//
//	latest:<n>                 board head page number
//	listing:<id1>,<id2>,...    article stubs (empty list allowed)
//	article:<title>            one parsed article
//
// Anything else is a parse failure.
type stubParser struct{}

func (stubParser) LatestPage(_ string, body []byte) (int, error) {
	s := string(body)
	if !strings.HasPrefix(s, "latest:") {
		return 0, fmt.Errorf("no pagination in %q", s)
	}
	return strconv.Atoi(strings.TrimPrefix(s, "latest:"))
}

func (stubParser) ParseListing(board string, body []byte) ([]ptt.ArticleStub, error) {
	s := string(body)
	if !strings.HasPrefix(s, "listing:") {
		return nil, fmt.Errorf("not a listing: %q", s)
	}
	raw := strings.TrimPrefix(s, "listing:")
	if raw == "" {
		return nil, nil
	}
	var stubs []ptt.ArticleStub
	for _, id := range strings.Split(raw, ",") {
		stubs = append(stubs, ptt.ArticleStub{
			Board:     board,
			ArticleID: id,
			Title:     "[標題] " + id,
		})
	}
	return stubs, nil
}

func (stubParser) ParseArticle(board, articleID, url string, body []byte, now time.Time) (ptt.Article, error) {
	s := string(body)
	if !strings.HasPrefix(s, "article:") {
		return ptt.Article{}, fmt.Errorf("not an article: %q", s)
	}
	return ptt.Article{
		Board:     board,
		ArticleID: articleID,
		Title:     strings.TrimPrefix(s, "article:"),
		URL:       url,
		CrawlTime: now,
	}, nil
}

// stubClock returns a fixed instant.
type stubClock struct {
	now time.Time
}

func (c stubClock) Now() time.Time { return c.now }

// stubIDs hands out sequential run ids.
type stubIDs struct {
	mu sync.Mutex
	n  int
}

func (g *stubIDs) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("run-%d", g.n), nil
}

// testCfg keeps delays at zero so tests run at full speed.
func testCfg() config.CrawlerConfig {
	return config.CrawlerConfig{
		MaxWorkers:       4,
		MaxRetries:       3,
		RetryBackoffBase: time.Millisecond,
	}
}
