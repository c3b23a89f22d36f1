package application

import (
	"context"
	"time"

	"ephemerear/internal/domain"
)

// RecordingSource yields paths of recordings ready for transcription.
type RecordingSource interface {
	Start(ctx context.Context) error
	Stop() error
	NextRecording(ctx context.Context) (string, error)
	Name() string
}

// FileTranscriber turns one audio file into text.
type FileTranscriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// ChunkTranscriber transcribes an ordered list of audio files and joins the results.
type ChunkTranscriber interface {
	TranscribeChunks(ctx context.Context, chunks []string) (string, error)
}

// Segmenter splits audio into fixed-duration chunks under cacheDir.
type Segmenter interface {
	Segment(ctx context.Context, path string, target time.Duration, cacheDir string) ([]string, error)
}

// TranscriptStore resolves a transcript path once per recording; Exists and
// Write take that path.
type TranscriptStore interface {
	Path(logicalName string) string
	Exists(path string) bool
	Write(path, text string) error
}

type ChatClient interface {
	Chat(ctx context.Context, message string) (string, error)
}

// Ledger keeps a history of transcribed recordings.
type Ledger interface {
	Record(ctx context.Context, outcome *domain.Outcome) error
}

type NoopLedger struct{}

func (NoopLedger) Record(_ context.Context, _ *domain.Outcome) error {
	return nil
}

// Notifier delivers follow-up replies to the user.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type NoopNotifier struct{}

func (NoopNotifier) Notify(_ context.Context, _ string) error {
	return nil
}
