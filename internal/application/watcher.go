package application

import (
	"context"
	"fmt"
	"log/slog"

	"ephemerear/internal/domain"
)

// Processor handles a single recording.
type Processor interface {
	Process(ctx context.Context, path string) (*domain.Outcome, error)
}

// Watcher feeds recordings from a source through a processor one at a time.
type Watcher struct {
	source    RecordingSource
	processor Processor
	logger    *slog.Logger
}

func NewWatcher(source RecordingSource, processor Processor, logger *slog.Logger) *Watcher {
	return &Watcher{
		source:    source,
		processor: processor,
		logger:    logger,
	}
}

func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("starting recording source", "source", w.source.Name())
	if err := w.source.Start(ctx); err != nil {
		return fmt.Errorf("starting source: %w", err)
	}
	defer w.source.Stop()

	w.logger.Info("watching for recordings")

	for {
		path, err := w.source.NextRecording(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("getting recording: %w", err)
		}

		if path == "" {
			continue
		}

		if _, err := w.processor.Process(ctx, path); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Error("processing recording", "path", path, "error", err)
		}
	}
}
