// Package export persists crawl results to the local filesystem as JSON or
// CSV files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/pttlab/pttgrab/internal/crawler"
)

// Writer persists results under a single output directory.
type Writer struct {
	dir    string
	logger *zap.Logger
}

// NewWriter creates the output directory if needed.
func NewWriter(dir string, logger *zap.Logger) (*Writer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return &Writer{dir: dir, logger: logger}, nil
}

// filename builds "<board>_<kind>_<timestamp>.<ext>" inside the output dir.
func (w *Writer) filename(result *crawler.Result, kind, ext string) string {
	stamp := result.Finished.Format("20060102_150405")
	if result.Finished.IsZero() {
		stamp = time.Now().UTC().Format("20060102_150405")
	}
	name := fmt.Sprintf("%s_%s_%s.%s", result.Board, kind, stamp, ext)
	return filepath.Join(w.dir, name)
}
