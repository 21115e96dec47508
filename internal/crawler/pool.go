package crawler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pttlab/pttgrab/internal/config"
	"github.com/pttlab/pttgrab/internal/ptt"
)

// Pool distributes crawl tasks across at most max_workers concurrently
// executing pipelines. Each worker runs its tasks strictly sequentially
// behind its own Pacer, so no worker ever has two requests in flight.
// Completion order is unconstrained; callers restore ordering through the
// per-task outcome slots keyed by origin index.
type Pool struct {
	cfg     config.CrawlerConfig
	fetcher Fetcher
	parser  Parser
	clock   Clock
	logger  *zap.Logger

	// OnOutcome, when set, is invoked from the completing worker right
	// after its outcome slot is written. It must be safe for concurrent use.
	OnOutcome func(Outcome)
}

// NewPool constructs a Pool.
func NewPool(cfg config.CrawlerConfig, fetcher Fetcher, parser Parser, clock Clock, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		cfg:     cfg,
		fetcher: fetcher,
		parser:  parser,
		clock:   clock,
		logger:  logger,
	}
}

// RunAll executes every task and returns one outcome per task, indexed by
// origin. It is synchronous: it returns only after each dispatched task
// reached success or a recorded failure. Cancelling ctx stops dispatching
// new tasks but lets in-flight tasks finish; undispatched tasks come back
// with Dispatched=false.
func (p *Pool) RunAll(ctx context.Context, tasks []Task) []Outcome {
	outcomes := make([]Outcome, len(tasks))
	for i := range outcomes {
		outcomes[i].Task = tasks[i]
	}
	if len(tasks) == 0 {
		return outcomes
	}

	workers := p.cfg.MaxWorkers
	if workers > len(tasks) {
		workers = len(tasks)
	}

	taskCh := make(chan Task)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, taskCh, outcomes)
		}()
	}

dispatch:
	for _, task := range tasks {
		select {
		case taskCh <- task:
		case <-ctx.Done():
			p.logger.Info("run canceled, draining in-flight tasks", zap.Int("remaining", len(tasks)-task.Origin))
			break dispatch
		}
	}
	close(taskCh)
	wg.Wait()

	return outcomes
}

// worker is one sequential pipeline: pace, fetch with retry, parse, record.
func (p *Pool) worker(ctx context.Context, taskCh <-chan Task, outcomes []Outcome) {
	pacer := NewPacer(p.cfg.DelayBetweenRequests, p.cfg.DelayBetweenPages)
	retry := NewRetryer(p.cfg.MaxRetries, p.cfg.RetryBackoffBase)

	for task := range taskCh {
		// Exclusive slot per origin index; no lock needed.
		started := time.Now()
		out := p.runTask(ctx, pacer, retry, task)
		out.Dur = time.Since(started)
		out.Dispatched = true
		outcomes[task.Origin] = out
		if p.OnOutcome != nil {
			p.OnOutcome(out)
		}
	}
}

func (p *Pool) runTask(ctx context.Context, pacer *Pacer, retry *Retryer, task Task) Outcome {
	if task.Kind == TaskPage {
		return p.runPageTask(ctx, pacer, retry, task)
	}
	return p.runArticleTask(ctx, pacer, retry, task)
}

func (p *Pool) runArticleTask(ctx context.Context, pacer *Pacer, retry *Retryer, task Task) Outcome {
	art, attempts, err := p.fetchArticle(ctx, pacer, retry, task.Board, task.ArticleID)
	out := Outcome{Task: task, Attempts: attempts}
	if err != nil {
		out.Err = err
		p.logger.Warn("article task failed",
			zap.String("board", task.Board),
			zap.String("article_id", task.ArticleID),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return out
	}
	out.Articles = []ptt.Article{art}
	return out
}

func (p *Pool) runPageTask(ctx context.Context, pacer *Pacer, retry *Retryer, task Task) Outcome {
	out := Outcome{Task: task}

	if err := pacer.WaitPage(ctx); err != nil {
		out.Err = err
		return out
	}
	if err := pacer.WaitRequest(ctx); err != nil {
		out.Err = err
		return out
	}
	url := task.URL()
	body, attempts, err := retry.Do(ctx, func() ([]byte, error) {
		return p.fetcher.Fetch(ctx, url)
	})
	pacer.MarkRequest()
	pacer.MarkPage()
	out.Attempts = attempts
	if err != nil {
		out.Err = err
		p.logger.Warn("listing fetch failed",
			zap.String("board", task.Board),
			zap.Int("page", task.Page),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return out
	}

	stubs, err := p.parser.ParseListing(task.Board, body)
	if err != nil {
		out.Err = &ParseError{URL: url, Cause: err}
		return out
	}

	for _, stub := range stubs {
		if ctx.Err() != nil {
			// Run-level cancellation: stop issuing new article fetches but
			// keep what the page already produced.
			out.SubFailures = append(out.SubFailures, Failure{
				Task:     "article/" + stub.ArticleID,
				Kind:     FailureCanceled,
				Attempts: 0,
				Error:    ctx.Err().Error(),
			})
			continue
		}
		art, artAttempts, artErr := p.fetchArticle(ctx, pacer, retry, task.Board, stub.ArticleID)
		if artErr != nil {
			out.SubFailures = append(out.SubFailures, Failure{
				Task:     "article/" + stub.ArticleID,
				Kind:     Classify(artErr),
				Attempts: artAttempts,
				Error:    artErr.Error(),
			})
			p.logger.Warn("article fetch failed",
				zap.String("board", task.Board),
				zap.Int("page", task.Page),
				zap.String("article_id", stub.ArticleID),
				zap.Int("attempts", artAttempts),
				zap.Error(artErr),
			)
			continue
		}
		out.Articles = append(out.Articles, art)
	}
	return out
}

// fetchArticle runs the client+retry+parse pipeline for one article.
func (p *Pool) fetchArticle(ctx context.Context, pacer *Pacer, retry *Retryer, board, articleID string) (ptt.Article, int, error) {
	if err := pacer.WaitRequest(ctx); err != nil {
		return ptt.Article{}, 0, err
	}
	url := ptt.ArticleURL(board, articleID)
	body, attempts, err := retry.Do(ctx, func() ([]byte, error) {
		return p.fetcher.Fetch(ctx, url)
	})
	pacer.MarkRequest()
	if err != nil {
		return ptt.Article{}, attempts, err
	}
	art, err := p.parser.ParseArticle(board, articleID, url, body, p.clock.Now())
	if err != nil {
		return ptt.Article{}, attempts, &ParseError{URL: url, Cause: err}
	}
	return art, attempts, nil
}
