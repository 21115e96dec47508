package crawler

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pttlab/pttgrab/internal/config"
	"github.com/pttlab/pttgrab/internal/progress"
)

// Engine is the top-level orchestrator. It turns a crawl request into tasks,
// runs them through a worker pool, and merges outcomes into an ordered,
// deduplicated Result. A failed task never aborts the run; only a malformed
// request or a failed latest-page resolution is run-fatal.
type Engine struct {
	cfg     config.CrawlerConfig
	fetcher Fetcher
	parser  Parser
	clock   Clock
	ids     IDGenerator
	emitter progress.Emitter
	logger  *zap.Logger
	locator *Locator
}

// New wires an Engine from its collaborators. A nil emitter disables
// progress reporting; a nil logger logs nothing.
func New(cfg config.CrawlerConfig, fetcher Fetcher, parser Parser, clock Clock, ids IDGenerator, emitter progress.Emitter, logger *zap.Logger) *Engine {
	if emitter == nil {
		emitter = progress.NopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:     cfg,
		fetcher: fetcher,
		parser:  parser,
		clock:   clock,
		ids:     ids,
		emitter: emitter,
		logger:  logger,
		locator: NewLocator(fetcher, parser, NewRetryer(cfg.MaxRetries, cfg.RetryBackoffBase)),
	}
}

// CrawlRange crawls listing pages start..end inclusive and every article they
// link. An invalid range fails before any request is made.
func (e *Engine) CrawlRange(ctx context.Context, board string, start, end int) (*Result, error) {
	pages, err := ResolveRange(start, end)
	if err != nil {
		return nil, err
	}
	tasks := make([]Task, 0, len(pages))
	for i, page := range pages {
		tasks = append(tasks, PageTask(board, page, i))
	}
	return e.run(ctx, board, tasks)
}

// CrawlLatest crawls the newest n listing pages of the board. Resolving the
// board's latest page is the only network call that can fail the whole run.
func (e *Engine) CrawlLatest(ctx context.Context, board string, n int) (*Result, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: page count %d", ErrInvalidRange, n)
	}
	latest, err := e.locator.LatestPage(ctx, board)
	if err != nil {
		e.emitRunError(board, err)
		return nil, err
	}
	start := latest - n + 1
	if start < 1 {
		start = 1
	}
	return e.CrawlRange(ctx, board, start, latest)
}

// CrawlArticle crawls a single article by id. The id is accepted with or
// without the .html suffix.
func (e *Engine) CrawlArticle(ctx context.Context, board, articleID string) (*Result, error) {
	articleID = strings.TrimSuffix(articleID, ".html")
	return e.run(ctx, board, []Task{ArticleTask(board, articleID, 0)})
}

// run executes the tasks and assembles the Result under a fresh run id.
func (e *Engine) run(ctx context.Context, board string, tasks []Task) (*Result, error) {
	runID, err := e.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	started := e.clock.Now()
	e.emitter.Emit(progress.Event{
		RunID: runID,
		TS:    started,
		Stage: progress.StageRunStart,
		Board: board,
		Note:  fmt.Sprintf("%d tasks", len(tasks)),
	})
	e.logger.Info("run started",
		zap.String("run_id", runID),
		zap.String("board", board),
		zap.Int("tasks", len(tasks)),
		zap.Int("workers", e.cfg.MaxWorkers),
	)

	pool := NewPool(e.cfg, e.fetcher, e.parser, e.clock, e.logger)
	pool.OnOutcome = func(out Outcome) {
		e.emitOutcome(runID, board, out)
	}
	outcomes := pool.RunAll(ctx, tasks)

	articles, failures := mergeOutcomes(outcomes)
	finished := e.clock.Now()
	result := &Result{
		RunID:    runID,
		Board:    board,
		Articles: articles,
		Failures: failures,
		Started:  started,
		Finished: finished,
	}
	e.emitter.Emit(progress.Event{
		RunID: runID,
		TS:    finished,
		Stage: progress.StageRunDone,
		Board: board,
		Dur:   finished.Sub(started),
		Note:  fmt.Sprintf("%d articles, %d failures", len(articles), len(failures)),
	})
	e.logger.Info("run finished",
		zap.String("run_id", runID),
		zap.String("board", board),
		zap.Int("articles", len(articles)),
		zap.Int("failures", len(failures)),
		zap.Duration("dur", finished.Sub(started)),
	)
	return result, nil
}

// emitRunError reports a run that died before any task was dispatched,
// which only happens when the board's latest page cannot be resolved.
func (e *Engine) emitRunError(board string, cause error) {
	runID, err := e.ids.NewID()
	if err != nil {
		return
	}
	e.emitter.Emit(progress.Event{
		RunID: runID,
		TS:    e.clock.Now(),
		Stage: progress.StageRunError,
		Board: board,
		Note:  cause.Error(),
	})
}

// emitOutcome translates one task outcome into progress events. It runs on
// the completing worker's goroutine; Emit never blocks.
func (e *Engine) emitOutcome(runID, board string, out Outcome) {
	now := e.clock.Now()
	if out.Err != nil {
		e.emitter.Emit(progress.Event{
			RunID:     runID,
			TS:        now,
			Stage:     progress.StageTaskFailed,
			Board:     board,
			Page:      out.Task.Page,
			ArticleID: out.Task.ArticleID,
			Attempts:  out.Attempts,
			Dur:       out.Dur,
			Kind:      string(Classify(out.Err)),
			Note:      out.Err.Error(),
		})
		return
	}
	for _, f := range out.SubFailures {
		e.emitter.Emit(progress.Event{
			RunID:    runID,
			TS:       now,
			Stage:    progress.StageTaskFailed,
			Board:    board,
			Page:     out.Task.Page,
			Attempts: f.Attempts,
			Kind:     string(f.Kind),
			Note:     f.Error,
		})
	}
	for _, art := range out.Articles {
		e.emitter.Emit(progress.Event{
			RunID:     runID,
			TS:        now,
			Stage:     progress.StageArticleDone,
			Board:     board,
			ArticleID: art.ArticleID,
		})
	}
	if out.Task.Kind == TaskPage {
		e.emitter.Emit(progress.Event{
			RunID:    runID,
			TS:       now,
			Stage:    progress.StagePageDone,
			Board:    board,
			Page:     out.Task.Page,
			Attempts: out.Attempts,
			Dur:      out.Dur,
		})
	}
}
