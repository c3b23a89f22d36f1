//go:build whispercpp
// +build whispercpp

package whispercpp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// Transcriber runs a ggml whisper model in-process. The model is loaded on
// first use and shared by every call; inference is serialized because the
// backend state is not safe for concurrent Process calls.
type Transcriber struct {
	modelPath string
	prompt    string
	loader    *SampleLoader
	logger    *slog.Logger

	loadOnce sync.Once
	model    whisper.Model
	loadErr  error

	inferenceMu sync.Mutex
}

func New(modelPath, prompt string, loader *SampleLoader, logger *slog.Logger) *Transcriber {
	return &Transcriber{
		modelPath: modelPath,
		prompt:    prompt,
		loader:    loader,
		logger:    logger,
	}
}

func (t *Transcriber) load() (whisper.Model, error) {
	t.loadOnce.Do(func() {
		t.logger.Info("loading whisper model", "path", t.modelPath)
		t.model, t.loadErr = whisper.New(t.modelPath)
		if t.loadErr != nil {
			t.loadErr = fmt.Errorf("loading model %s: %w", t.modelPath, t.loadErr)
		}
	})
	return t.model, t.loadErr
}

func (t *Transcriber) Transcribe(ctx context.Context, path string) (string, error) {
	samples, err := t.loader.Load(ctx, path)
	if err != nil {
		return "", fmt.Errorf("preparing audio: %w", err)
	}

	model, err := t.load()
	if err != nil {
		return "", err
	}

	wctx, err := model.NewContext()
	if err != nil {
		return "", fmt.Errorf("creating whisper context: %w", err)
	}
	if err := wctx.SetLanguage("en"); err != nil {
		return "", fmt.Errorf("setting language: %w", err)
	}
	wctx.SetTranslate(false)
	if t.prompt != "" {
		wctx.SetInitialPrompt(t.prompt)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	var parts []string
	onSegment := func(segment whisper.Segment) {
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}

	t.logger.Info("transcribing locally", "path", path, "seconds", len(samples)/SampleRate)

	t.inferenceMu.Lock()
	err = wctx.Process(samples, nil, onSegment, nil)
	t.inferenceMu.Unlock()
	if err != nil {
		return "", fmt.Errorf("whisper process: %w", err)
	}

	return strings.Join(parts, " "), nil
}

func (t *Transcriber) Close() error {
	if t.model != nil {
		return t.model.Close()
	}
	return nil
}
