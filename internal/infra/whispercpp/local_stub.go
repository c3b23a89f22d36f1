//go:build !whispercpp
// +build !whispercpp

package whispercpp

import (
	"context"
	"errors"
	"log/slog"
)

// ErrUnavailable is returned by builds without the whisper.cpp bindings.
var ErrUnavailable = errors.New("local whisper engine not available: rebuild with -tags whispercpp")

// Transcriber stub when whisper.cpp is not linked in
type Transcriber struct {
	logger *slog.Logger
}

func New(_, _ string, _ *SampleLoader, logger *slog.Logger) *Transcriber {
	return &Transcriber{logger: logger}
}

func (t *Transcriber) Transcribe(_ context.Context, _ string) (string, error) {
	return "", ErrUnavailable
}

func (t *Transcriber) Close() error {
	return nil
}
