// Package sinks provides concrete progress.Sink implementations.
package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/pttlab/pttgrab/internal/progress"
)

// LogSink writes each progress event as a structured log line. It is the
// default sink for CLI runs.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("run_id", evt.RunID),
			zap.String("stage", string(evt.Stage)),
		}
		if evt.Board != "" {
			fields = append(fields, zap.String("board", evt.Board))
		}
		if evt.Page > 0 {
			fields = append(fields, zap.Int("page", evt.Page))
		}
		if evt.ArticleID != "" {
			fields = append(fields, zap.String("article_id", evt.ArticleID))
		}
		if evt.Attempts > 0 {
			fields = append(fields, zap.Int("attempts", evt.Attempts))
		}
		if evt.Dur > 0 {
			fields = append(fields, zap.Duration("dur", evt.Dur))
		}
		if evt.Kind != "" {
			fields = append(fields, zap.String("kind", evt.Kind))
		}
		if evt.Note != "" {
			fields = append(fields, zap.String("note", evt.Note))
		}
		s.logger.Info("progress event", fields...)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
