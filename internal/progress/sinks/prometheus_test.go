package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/pttlab/pttgrab/internal/progress"
)

func TestPrometheusSinkRecordsMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	now := time.Now()
	batch := []progress.Event{
		{RunID: "run-1", TS: now, Stage: progress.StageRunStart, Board: "movie"},
		{RunID: "run-1", TS: now, Stage: progress.StagePageDone, Board: "movie", Page: 7, Dur: 300 * time.Millisecond},
		{RunID: "run-1", TS: now, Stage: progress.StageArticleDone, Board: "movie", ArticleID: "M.1.A.AAA", Dur: 150 * time.Millisecond},
		{RunID: "run-1", TS: now, Stage: progress.StageTaskFailed, Board: "movie", Kind: "not_found"},
		{RunID: "run-1", TS: now.Add(12 * time.Second), Stage: progress.StageRunDone, Board: "movie", Dur: 12 * time.Second},
	}
	require.NoError(t, sink.Consume(context.Background(), batch))

	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsStarted))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsCompleted.WithLabelValues("success")))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.runsCompleted.WithLabelValues("error")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.pagesFetched.WithLabelValues("movie")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.articlesFetched.WithLabelValues("movie")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.taskFailures.WithLabelValues("movie", "not_found")))
	require.Equal(t, 1, testutil.CollectAndCount(sink.runDuration, "pttgrab_run_duration_seconds"))
	require.Equal(t, 1, testutil.CollectAndCount(sink.fetchDuration, "pttgrab_fetch_duration_seconds"))
}

func TestPrometheusSinkRejectsDoubleRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewPrometheusSink(reg)
	require.NoError(t, err)
	_, err = NewPrometheusSink(reg)
	require.Error(t, err)
}

func TestPrometheusSinkRunError(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	batch := []progress.Event{
		{RunID: "run-2", TS: time.Now(), Stage: progress.StageRunError, Board: "movie", Dur: time.Second},
	}
	require.NoError(t, sink.Consume(context.Background(), batch))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsCompleted.WithLabelValues("error")))
}
