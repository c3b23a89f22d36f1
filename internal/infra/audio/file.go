package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var recordingExts = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".webm": true,
	".ogg":  true,
}

// IsRecording reports whether name has an audio extension the pipeline accepts.
func IsRecording(name string) bool {
	return recordingExts[strings.ToLower(filepath.Ext(name))]
}

// FileSource polls a directory and yields each new recording once. A file is
// only reported after its size held steady across two polls, so recordings
// still being copied in are not picked up half-written.
type FileSource struct {
	dir      string
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	seen    map[string]bool
	pending map[string]int64
}

func NewFileSource(dir string, interval time.Duration, logger *slog.Logger) *FileSource {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &FileSource{
		dir:      dir,
		interval: interval,
		logger:   logger,
		seen:     make(map[string]bool),
		pending:  make(map[string]int64),
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Start(_ context.Context) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating watch dir: %w", err)
	}
	f.logger.Info("watching for recordings", "dir", f.dir, "interval", f.interval)
	return nil
}

func (f *FileSource) Stop() error {
	return nil
}

func (f *FileSource) NextRecording(ctx context.Context) (string, error) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		path, err := f.poll()
		if err != nil {
			return "", err
		}
		if path != "" {
			return path, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func (f *FileSource) poll() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return "", fmt.Errorf("reading dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !IsRecording(entry.Name()) {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		if f.seen[path] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		last, ok := f.pending[path]
		if !ok || last != info.Size() {
			f.pending[path] = info.Size()
			continue
		}

		delete(f.pending, path)
		f.seen[path] = true
		return path, nil
	}

	return "", nil
}
