package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ephemerear/internal/domain"
)

// PipelineOptions tunes how recordings are prepared for the remote engine.
type PipelineOptions struct {
	ChunkDuration time.Duration
	SizeThreshold int64
	CacheDir      string
}

// Pipeline turns one recording into a transcript and, when the transcript
// asks for it, a chat follow-up.
type Pipeline struct {
	engine    domain.Engine
	local     FileTranscriber
	remote    ChunkTranscriber
	segmenter Segmenter
	store     TranscriptStore
	followUp  *FollowUp
	ledger    Ledger
	opts      PipelineOptions
	logger    *slog.Logger
}

func NewPipeline(
	engine domain.Engine,
	local FileTranscriber,
	remote ChunkTranscriber,
	segmenter Segmenter,
	store TranscriptStore,
	followUp *FollowUp,
	ledger Ledger,
	opts PipelineOptions,
	logger *slog.Logger,
) *Pipeline {
	if ledger == nil {
		ledger = NoopLedger{}
	}
	return &Pipeline{
		engine:    engine,
		local:     local,
		remote:    remote,
		segmenter: segmenter,
		store:     store,
		followUp:  followUp,
		ledger:    ledger,
		opts:      opts,
		logger:    logger,
	}
}

// Process runs a recording through the pipeline. Recordings that already
// have a transcript are skipped without transcribing.
func (p *Pipeline) Process(ctx context.Context, path string) (*domain.Outcome, error) {
	rec, err := domain.NewRecording(path)
	if err != nil {
		return nil, err
	}

	logger := p.logger.With("file", rec.BaseName, "logical_name", rec.LogicalName)
	outcome := &domain.Outcome{
		Recording:      rec,
		Engine:         p.engine,
		TranscriptPath: p.store.Path(rec.LogicalName),
	}

	if p.store.Exists(outcome.TranscriptPath) {
		logger.Info("skipping duplicate recording", "transcript", outcome.TranscriptPath)
		outcome.State = domain.StateSkipped
		return outcome, nil
	}

	logger.Info("handling recording", "engine", p.engine, "bytes", rec.Size)

	text, chunks, err := p.transcribe(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("transcribing %s: %w", rec.BaseName, err)
	}
	outcome.Chunks = chunks

	if err := p.store.Write(outcome.TranscriptPath, text); err != nil {
		return nil, fmt.Errorf("writing transcript for %s: %w", rec.BaseName, err)
	}
	outcome.State = domain.StateDone

	var followErr error
	if p.followUp != nil {
		outcome.Message, outcome.Reply, followErr = p.followUp.Trigger(ctx, text)
		if outcome.Message != "" && followErr == nil {
			outcome.State = domain.StateFollowUpDispatched
		}
	}

	if err := p.ledger.Record(ctx, outcome); err != nil {
		logger.Warn("recording ledger entry", "error", err)
	}

	logger.Info("processed recording", "state", outcome.State, "transcript", outcome.TranscriptPath)

	if followErr != nil {
		return outcome, followErr
	}
	return outcome, nil
}

func (p *Pipeline) transcribe(ctx context.Context, rec *domain.Recording) (string, int, error) {
	switch p.engine {
	case domain.EngineWhisper:
		text, err := p.local.Transcribe(ctx, rec.Path)
		return text, 1, err

	case domain.EngineOpenAI:
		chunks := []string{rec.Path}
		if rec.Size > p.opts.SizeThreshold {
			p.logger.Info("recording exceeds upload limit, splitting into chunks",
				"bytes", rec.Size,
				"threshold", p.opts.SizeThreshold,
			)
			var err error
			chunks, err = p.segmenter.Segment(ctx, rec.Path, p.opts.ChunkDuration, p.opts.CacheDir)
			if err != nil {
				return "", 0, fmt.Errorf("segmenting: %w", err)
			}
		}
		text, err := p.remote.TranscribeChunks(ctx, chunks)
		return text, len(chunks), err

	default:
		return "", 0, fmt.Errorf("unsupported stt engine: %s", p.engine)
	}
}
