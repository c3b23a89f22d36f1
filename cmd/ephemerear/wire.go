package main

import (
	"fmt"
	"log/slog"

	"ephemerear/config"
	"ephemerear/internal/application"
	"ephemerear/internal/domain"
	"ephemerear/internal/infra/anthropic"
	"ephemerear/internal/infra/audio"
	"ephemerear/internal/infra/gemini"
	"ephemerear/internal/infra/homeassistant"
	"ephemerear/internal/infra/ledger"
	"ephemerear/internal/infra/openai"
	"ephemerear/internal/infra/pushover"
	"ephemerear/internal/infra/transcript"
	"ephemerear/internal/infra/whispercpp"
)

// app holds the wired pipeline and whatever must be released on exit.
type app struct {
	pipeline *application.Pipeline
	closers  []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{}

	ffmpeg := audio.NewFFmpeg(cfg.Segment.FFmpeg)
	segmenter := audio.NewSegmenter(ffmpeg, cfg.SizeThreshold(), logger)
	store := transcript.NewWriter(cfg.Paths.TranscriptDir, cfg.YearMonthFolders(), logger)

	engine := cfg.Engine()

	var (
		local  application.FileTranscriber
		remote application.ChunkTranscriber
	)
	switch engine {
	case domain.EngineWhisper:
		t := whispercpp.New(cfg.Whisper.ModelPath, cfg.Transcription.Prompt, whispercpp.NewSampleLoader(ffmpeg, cfg.Paths.CacheDir), logger)
		a.closers = append(a.closers, t.Close)
		local = t
	case domain.EngineOpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai.api_key (or OPENAI_API_KEY) is required for the openai engine")
		}
		remote = openai.NewWhisperClientWithURL(cfg.OpenAI.APIKey, cfg.OpenAI.TranscriptionModel, cfg.Transcription.Prompt, cfg.OpenAI.BaseURL, logger)
	default:
		return nil, fmt.Errorf("unsupported engine %q", engine)
	}

	var followUp *application.FollowUp
	if chat, err := createChatClient(cfg); err != nil {
		logger.Warn("follow-ups disabled", "reason", err)
	} else {
		followUp = application.NewFollowUp(chat, createNotifier(cfg.Notify), logger)
	}

	history, err := ledger.Open(cfg.Paths.Ledger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	a.closers = append(a.closers, history.Close)

	chunkDuration, _ := cfg.ChunkDuration()

	a.pipeline = application.NewPipeline(
		engine,
		local,
		remote,
		segmenter,
		store,
		followUp,
		history,
		application.PipelineOptions{
			ChunkDuration: chunkDuration,
			SizeThreshold: cfg.SizeThreshold(),
			CacheDir:      cfg.Paths.CacheDir,
		},
		logger,
	)

	return a, nil
}

func createChatClient(cfg *config.Config) (application.ChatClient, error) {
	switch cfg.ChatProvider() {
	case domain.ChatOpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai.api_key is not set")
		}
		return openai.NewChatClientWithURL(cfg.OpenAI.APIKey, cfg.Model, cfg.OpenAI.BaseURL), nil
	case domain.ChatAnthropic:
		if cfg.Anthropic.APIKey == "" {
			return nil, fmt.Errorf("anthropic.api_key is not set")
		}
		return anthropic.NewClaudeClient(cfg.Anthropic.APIKey, cfg.Model), nil
	case domain.ChatGemini:
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("gemini.api_key is not set")
		}
		return gemini.NewClient(cfg.Gemini.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported chat provider %q", cfg.Chat.Provider)
	}
}

func createNotifier(cfg config.NotifyConfig) application.Notifier {
	switch cfg.Kind {
	case "pushover":
		return pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey)
	case "homeassistant":
		return homeassistant.NewClient(cfg.HomeAssistant.URL, cfg.HomeAssistant.Token, cfg.HomeAssistant.Service)
	default:
		return application.NoopNotifier{}
	}
}

func createSource(cfg *config.Config, logger *slog.Logger) application.RecordingSource {
	switch cfg.Source.Kind {
	case "http":
		return audio.NewHTTPSource(cfg.Source.HTTPAddr, cfg.Paths.WatchDir, cfg.Source.AuthToken, logger)
	case "microphone":
		return newMicrophone(cfg, logger)
	default:
		return audio.NewFileSource(cfg.Paths.WatchDir, cfg.PollInterval(), logger)
	}
}

func newMicrophone(cfg *config.Config, logger *slog.Logger) *audio.MicrophoneSource {
	return audio.NewMicrophoneSource(cfg.Paths.WatchDir, cfg.Microphone.SampleRate, cfg.MaxRecording(), logger)
}
