package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pttlab/pttgrab/internal/crawler"
	"github.com/pttlab/pttgrab/internal/ptt"
)

func sampleResult() *crawler.Result {
	finished := time.Date(2026, 8, 29, 12, 30, 0, 0, time.UTC)
	return &crawler.Result{
		RunID: "run-1",
		Board: "movie",
		Articles: []ptt.Article{
			{
				Board:         "movie",
				ArticleID:     "M.1700000000.A.ABC",
				Title:         "[好雷] 值得一看",
				Author:        "filmfan",
				Date:          "Tue Nov 14 12:13:20 2023",
				Content:       "場面很大,\n配樂也好",
				URL:           "https://www.ptt.cc/bbs/movie/M.1700000000.A.ABC.html",
				IP:            "1.2.3.4",
				PushCount:     2,
				BooCount:      1,
				NeutralCount:  0,
				TotalMessages: 3,
				Messages: []ptt.Message{
					{Type: ptt.MessagePush, Author: "fan1", Content: "推", IP: "5.6.7.8", Timestamp: "11/14 12:20"},
				},
				CrawlTime: finished,
			},
		},
		Failures: map[string]crawler.Failure{
			"page/2": {Task: "page/2", Kind: crawler.FailureNotFound, Attempts: 1, Error: "not found"},
		},
		Started:  finished.Add(-time.Minute),
		Finished: finished,
	}
}

func TestWriterCreatesOutputDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "out")
	_, err := NewWriter(dir, nil)
	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	w, err := NewWriter(t.TempDir(), nil)
	require.NoError(t, err)

	path, err := w.WriteJSON(sampleResult())
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "movie_articles_20260829_123000.json"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	require.JSONEq(t, `"run-1"`, string(doc["run_id"]))
	require.JSONEq(t, `"movie"`, string(doc["board"]))
	require.JSONEq(t, `1`, string(doc["total_articles"]))

	var articles []ptt.Article
	require.NoError(t, json.Unmarshal(doc["articles"], &articles))
	require.Len(t, articles, 1)
	require.Equal(t, "M.1700000000.A.ABC", articles[0].ArticleID)
	require.Len(t, articles[0].Messages, 1)

	var failures map[string]crawler.Failure
	require.NoError(t, json.Unmarshal(doc["failures"], &failures))
	require.Equal(t, crawler.FailureNotFound, failures["page/2"].Kind)
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	w, err := NewWriter(t.TempDir(), nil)
	require.NoError(t, err)

	path, err := w.WriteCSV(sampleResult())
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "movie_articles_20260829_123000.csv"))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, csvHeader, rows[0])

	row := rows[1]
	require.Equal(t, "movie", row[0])
	require.Equal(t, "M.1700000000.A.ABC", row[1])
	require.Equal(t, "[好雷] 值得一看", row[2])
	require.Equal(t, "2", row[7])
	require.Equal(t, "1", row[8])
	require.Equal(t, "3", row[10])
	// Newlines inside content survive the round trip.
	require.Contains(t, row[5], "\n")
}
