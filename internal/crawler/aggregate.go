package crawler

import (
	"time"

	"github.com/pttlab/pttgrab/internal/ptt"
)

// Result is the ordered, deduplicated output of one crawl run plus the
// record of everything that failed. Once returned it is owned entirely by
// the caller; the engine keeps no reference.
type Result struct {
	RunID    string             `json:"run_id"`
	Board    string             `json:"board"`
	Articles []ptt.Article      `json:"articles"`
	Failures map[string]Failure `json:"failures"`
	Started  time.Time          `json:"started"`
	Finished time.Time          `json:"finished"`
}

// mergeOutcomes restores origin order and deduplicates articles. Outcomes
// arrive indexed by origin, so walking the slice yields ascending origin
// order; discovery order within a page is already preserved by the worker.
// When the same article id was fetched by two tasks, the first successfully
// parsed instance by origin index wins and later duplicates are dropped
// silently.
func mergeOutcomes(outcomes []Outcome) ([]ptt.Article, map[string]Failure) {
	articles := make([]ptt.Article, 0, len(outcomes))
	failures := make(map[string]Failure)
	seen := make(map[string]struct{})

	for _, out := range outcomes {
		if !out.Dispatched {
			failures[out.Task.Key()] = Failure{
				Task:     out.Task.Key(),
				Kind:     FailureCanceled,
				Attempts: 0,
				Error:    "run canceled before dispatch",
			}
			continue
		}
		if out.Err != nil {
			failures[out.Task.Key()] = Failure{
				Task:     out.Task.Key(),
				Kind:     Classify(out.Err),
				Attempts: out.Attempts,
				Error:    out.Err.Error(),
			}
			continue
		}
		for _, f := range out.SubFailures {
			failures[f.Task] = f
		}
		for _, art := range out.Articles {
			key := art.Board + "/" + art.ArticleID
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			articles = append(articles, art)
		}
	}
	return articles, failures
}
