package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/pttlab/pttgrab/internal/crawler"
)

var csvHeader = []string{
	"board", "article_id", "title", "author", "date", "content", "ip",
	"push_count", "boo_count", "neutral_count", "total_messages", "url", "crawl_time",
}

// WriteCSV writes one row per article and returns the file path. Push
// messages are flattened to their counts; the JSON export carries the full
// message list.
func (w *Writer) WriteCSV(result *crawler.Result) (string, error) {
	path := w.filename(result, "articles", "csv")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("create csv export: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(csvHeader); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, a := range result.Articles {
		row := []string{
			a.Board,
			a.ArticleID,
			a.Title,
			a.Author,
			a.Date,
			a.Content,
			a.IP,
			strconv.Itoa(a.PushCount),
			strconv.Itoa(a.BooCount),
			strconv.Itoa(a.NeutralCount),
			strconv.Itoa(a.TotalMessages),
			a.URL,
			a.CrawlTime.Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush csv export: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close csv export: %w", err)
	}
	w.logger.Info("wrote csv export", zap.String("path", path), zap.Int("articles", len(result.Articles)))
	return path, nil
}
