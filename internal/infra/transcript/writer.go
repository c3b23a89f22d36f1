// Package transcript persists transcripts as markdown files partitioned by year and month.
package transcript

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Writer stores transcripts under root, optionally in root/YYYY/MM.
type Writer struct {
	root      string
	partition bool
	now       func() time.Time
	logger    *slog.Logger
}

func NewWriter(root string, yearMonthFolders bool, logger *slog.Logger) *Writer {
	return &Writer{
		root:      root,
		partition: yearMonthFolders,
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock replaces the wall clock used to pick the partition.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	w.now = now
	return w
}

func (w *Writer) dir() string {
	if !w.partition {
		return w.root
	}
	now := w.now()
	return filepath.Join(w.root, now.Format("2006"), now.Format("01"))
}

// Path returns where the transcript for logicalName is stored this month.
func (w *Writer) Path(logicalName string) string {
	return filepath.Join(w.dir(), logicalName+".md")
}

func (w *Writer) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Write stores text verbatim at path, replacing any previous content.
func (w *Writer) Write(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating transcript dir: %w", err)
	}

	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}

	w.logger.Info("transcript written", "path", path)
	return nil
}
