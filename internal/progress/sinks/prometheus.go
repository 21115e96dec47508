package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pttlab/pttgrab/internal/progress"
)

// PrometheusSink exports crawl progress as Prometheus metrics. It owns all
// collectors for run lifecycle and per-board fetch counters.
type PrometheusSink struct {
	runsStarted   prometheus.Counter
	runsCompleted *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec

	pagesFetched    *prometheus.CounterVec
	articlesFetched *prometheus.CounterVec
	taskFailures    *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pttgrab_runs_started_total",
			Help: "Total crawl runs started.",
		}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pttgrab_runs_completed_total",
			Help: "Total crawl runs completed partitioned by result.",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pttgrab_run_duration_seconds",
			Help:    "Wall time per completed run.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"result"}),
		pagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pttgrab_pages_fetched_total",
			Help: "Listing pages fetched per board.",
		}, []string{"board"}),
		articlesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pttgrab_articles_fetched_total",
			Help: "Articles fetched and parsed per board.",
		}, []string{"board"}),
		taskFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pttgrab_task_failures_total",
			Help: "Recorded task failures partitioned by board and kind.",
		}, []string{"board", "kind"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pttgrab_fetch_duration_seconds",
			Help:    "Per-task pipeline duration partitioned by board.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"board"}),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runsCompleted,
		s.runDuration,
		s.pagesFetched,
		s.articlesFetched,
		s.taskFailures,
		s.fetchDuration,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors from the batch.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	board := evt.Board
	if board == "" {
		board = "unknown"
	}
	switch evt.Stage {
	case progress.StageRunStart:
		s.runsStarted.Inc()
	case progress.StageRunDone:
		s.runsCompleted.WithLabelValues("success").Inc()
		s.observeRun(evt, "success")
	case progress.StageRunError:
		s.runsCompleted.WithLabelValues("error").Inc()
		s.observeRun(evt, "error")
	case progress.StagePageDone:
		s.pagesFetched.WithLabelValues(board).Inc()
		s.observeFetch(evt, board)
	case progress.StageArticleDone:
		s.articlesFetched.WithLabelValues(board).Inc()
		s.observeFetch(evt, board)
	case progress.StageTaskFailed:
		kind := evt.Kind
		if kind == "" {
			kind = "unknown"
		}
		s.taskFailures.WithLabelValues(board, kind).Inc()
	}
}

func (s *PrometheusSink) observeRun(evt progress.Event, label string) {
	if evt.Dur > 0 {
		s.runDuration.WithLabelValues(label).Observe(evt.Dur.Seconds())
	}
}

func (s *PrometheusSink) observeFetch(evt progress.Event, board string) {
	if evt.Dur > 0 {
		s.fetchDuration.WithLabelValues(board).Observe(evt.Dur.Seconds())
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
