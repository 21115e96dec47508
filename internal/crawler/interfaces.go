package crawler

import (
	"context"
	"time"

	"github.com/pttlab/pttgrab/internal/ptt"
)

// Fetcher performs one authenticated HTTP GET. Implementations carry the
// session/cookie state, fail fast (no retries), and return typed errors:
// *NotFoundError for missing pages, *NetworkError for everything transient.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Parser converts raw page bytes into domain records. Implementations must
// be pure, deterministic, and safe for concurrent use.
type Parser interface {
	ParseListing(board string, body []byte) ([]ptt.ArticleStub, error)
	ParseArticle(board, articleID, url string, body []byte, now time.Time) (ptt.Article, error)
	LatestPage(board string, body []byte) (int, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
