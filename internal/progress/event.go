// Package progress carries run lifecycle events from the crawl engine to
// pluggable sinks (structured logs, Prometheus metrics).
package progress

import (
	"errors"
	"time"
)

// Stage identifies where in the run lifecycle an event was emitted.
type Stage string

// Lifecycle stages.
const (
	StageRunStart    Stage = "RUN_START"
	StageRunDone     Stage = "RUN_DONE"
	StageRunError    Stage = "RUN_ERROR"
	StagePageDone    Stage = "PAGE_DONE"
	StageArticleDone Stage = "ARTICLE_DONE"
	StageTaskFailed  Stage = "TASK_FAILED"
)

// Event is one progress notification. Fields beyond RunID, TS and Stage are
// stage-dependent and may be zero.
type Event struct {
	RunID     string        `json:"run_id"`
	TS        time.Time     `json:"ts"`
	Stage     Stage         `json:"stage"`
	Board     string        `json:"board,omitempty"`
	Page      int           `json:"page,omitempty"`
	ArticleID string        `json:"article_id,omitempty"`
	Attempts  int           `json:"attempts,omitempty"`
	Dur       time.Duration `json:"dur,omitempty"`
	Kind      string        `json:"kind,omitempty"`
	Note      string        `json:"note,omitempty"`
}

// Validate checks the fields every event must carry.
func (e Event) Validate() error {
	switch {
	case e.RunID == "":
		return errors.New("progress event missing run id")
	case e.Stage == "":
		return errors.New("progress event missing stage")
	case e.TS.IsZero():
		return errors.New("progress event missing timestamp")
	}
	return nil
}
