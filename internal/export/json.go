package export

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/pttlab/pttgrab/internal/crawler"
	"github.com/pttlab/pttgrab/internal/ptt"
)

// envelope is the on-disk JSON document wrapping one run's output.
type envelope struct {
	RunID         string                     `json:"run_id"`
	Board         string                     `json:"board"`
	CrawlTime     string                     `json:"crawl_time"`
	TotalArticles int                        `json:"total_articles"`
	Articles      []ptt.Article              `json:"articles"`
	Failures      map[string]crawler.Failure `json:"failures"`
}

// WriteJSON writes the full result, messages included, as pretty-printed
// JSON and returns the file path.
func (w *Writer) WriteJSON(result *crawler.Result) (string, error) {
	doc := envelope{
		RunID:         result.RunID,
		Board:         result.Board,
		CrawlTime:     result.Finished.Format("2006-01-02 15:04:05"),
		TotalArticles: len(result.Articles),
		Articles:      result.Articles,
		Failures:      result.Failures,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}

	path := w.filename(result, "articles", "json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write json export: %w", err)
	}
	w.logger.Info("wrote json export",
		zap.String("path", path),
		zap.Int("articles", len(result.Articles)),
		zap.Int("failures", len(result.Failures)),
	)
	return path, nil
}
