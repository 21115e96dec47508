package crawler

import (
	"fmt"
	"time"

	"github.com/pttlab/pttgrab/internal/ptt"
)

// TaskKind distinguishes listing-page tasks from single-article tasks.
type TaskKind string

// Supported task kinds.
const (
	TaskPage    TaskKind = "page"
	TaskArticle TaskKind = "article"
)

// Task is one unit of dispatchable work. It is immutable once created and
// carries the origin index used to restore ordering after concurrent
// completion.
type Task struct {
	Kind      TaskKind
	Board     string
	Page      int
	ArticleID string
	Origin    int
}

// PageTask builds a listing-page task.
func PageTask(board string, page, origin int) Task {
	return Task{Kind: TaskPage, Board: board, Page: page, Origin: origin}
}

// ArticleTask builds a single-article task.
func ArticleTask(board, articleID string, origin int) Task {
	return Task{Kind: TaskArticle, Board: board, ArticleID: articleID, Origin: origin}
}

// Key returns the stable task identity used in failure maps, e.g.
// "page/38992" or "article/M.1700000000.A.ABC".
func (t Task) Key() string {
	if t.Kind == TaskPage {
		return fmt.Sprintf("page/%d", t.Page)
	}
	return fmt.Sprintf("article/%s", t.ArticleID)
}

// URL returns the fetch target for the task.
func (t Task) URL() string {
	if t.Kind == TaskPage {
		return ptt.PageURL(t.Board, t.Page)
	}
	return ptt.ArticleURL(t.Board, t.ArticleID)
}

// Failure describes one recorded task (or per-article) failure with enough
// detail to drive a retry-the-failures-only follow-up run.
type Failure struct {
	Task     string      `json:"task"`
	Kind     FailureKind `json:"kind"`
	Attempts int         `json:"attempts"`
	Error    string      `json:"error"`
}

// Outcome is the result of one task after its pipeline finished. Exactly one
// Outcome slot exists per dispatched task, keyed by origin index.
type Outcome struct {
	Task     Task
	Articles []ptt.Article
	Err      error
	Attempts int
	// SubFailures records per-article failures inside a page task that did
	// not fail as a whole.
	SubFailures []Failure
	// Dur is the wall time the task pipeline took, pacing included.
	Dur time.Duration
	// Dispatched is false when cancellation stopped the task from ever
	// reaching a worker.
	Dispatched bool
}
