package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"ephemerear/internal/domain"
)

var (
	// ErrNotFound is returned when the config file does not exist.
	ErrNotFound = errors.New("config file not found")
	// ErrParse is returned when the config file is not valid YAML.
	ErrParse = errors.New("config parse error")
)

type Config struct {
	Bot           BotConfig           `yaml:"bot"`
	Model         string              `yaml:"model"`
	Chat          ChatConfig          `yaml:"chat"`
	OpenAI        OpenAIConfig        `yaml:"openai"`
	Anthropic     AnthropicConfig     `yaml:"anthropic"`
	Gemini        GeminiConfig        `yaml:"gemini"`
	Whisper       WhisperConfig       `yaml:"whisper"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Transcript    TranscriptConfig    `yaml:"transcript"`
	Segment       SegmentConfig       `yaml:"segment"`
	Paths         PathsConfig         `yaml:"paths"`
	Source        SourceConfig        `yaml:"source"`
	Microphone    MicrophoneConfig    `yaml:"microphone"`
	Notify        NotifyConfig        `yaml:"notify"`
	Log           LogConfig           `yaml:"log"`
}

type BotConfig struct {
	STTEngine string `yaml:"stt_engine"`
}

type ChatConfig struct {
	Provider string `yaml:"provider"`
}

type OpenAIConfig struct {
	APIKey             string `yaml:"api_key"`
	BaseURL            string `yaml:"base_url"`
	TranscriptionModel string `yaml:"transcription_model"`
}

type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
}

type WhisperConfig struct {
	ModelPath string `yaml:"model_path"`
}

type TranscriptionConfig struct {
	Prompt string `yaml:"prompt"`
}

type TranscriptConfig struct {
	YearMonthFolders *bool `yaml:"year_month_folders"`
}

type SegmentConfig struct {
	ChunkDuration   string `yaml:"chunk_duration"`
	SizeThresholdMB int64  `yaml:"size_threshold_mb"`
	FFmpeg          string `yaml:"ffmpeg"`
}

type PathsConfig struct {
	WatchDir      string `yaml:"watch_dir"`
	TranscriptDir string `yaml:"transcript_dir"`
	CacheDir      string `yaml:"cache_dir"`
	TodoFile      string `yaml:"todo_file"`
	MemoryFile    string `yaml:"memory_file"`
	Ledger        string `yaml:"ledger"`
}

type SourceConfig struct {
	Kind         string `yaml:"kind"`
	HTTPAddr     string `yaml:"http_addr"`
	AuthToken    string `yaml:"auth_token"`
	PollInterval string `yaml:"poll_interval"`
}

type MicrophoneConfig struct {
	SampleRate  int    `yaml:"sample_rate"`
	MaxDuration string `yaml:"max_duration"`
}

type NotifyConfig struct {
	Kind          string              `yaml:"kind"`
	Pushover      PushoverConfig      `yaml:"pushover"`
	HomeAssistant HomeAssistantConfig `yaml:"homeassistant"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
}

type HomeAssistantConfig struct {
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
	Service string `yaml:"service"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML config bytes, expanding ${ENV} references first.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Bot.STTEngine == "" {
		c.Bot.STTEngine = string(domain.EngineOpenAI)
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Chat.Provider == "" {
		c.Chat.Provider = string(domain.ChatOpenAI)
	}
	if c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if c.OpenAI.TranscriptionModel == "" {
		c.OpenAI.TranscriptionModel = "whisper-1"
	}
	if c.Whisper.ModelPath == "" {
		c.Whisper.ModelPath = "models/ggml-base.en.bin"
	}
	if c.Transcription.Prompt == "" {
		c.Transcription.Prompt = "Here is the full text, in English:"
	}
	if c.Transcript.YearMonthFolders == nil {
		enabled := true
		c.Transcript.YearMonthFolders = &enabled
	}
	if c.Segment.ChunkDuration == "" {
		c.Segment.ChunkDuration = "10m"
	}
	if c.Segment.SizeThresholdMB == 0 {
		c.Segment.SizeThresholdMB = 25
	}
	if c.Segment.FFmpeg == "" {
		c.Segment.FFmpeg = "ffmpeg"
	}
	if c.Paths.WatchDir == "" {
		c.Paths.WatchDir = "./recordings"
	}
	if c.Paths.TranscriptDir == "" {
		c.Paths.TranscriptDir = "./output/transcripts"
	}
	if c.Paths.CacheDir == "" {
		c.Paths.CacheDir = "./cache"
	}
	if c.Paths.TodoFile == "" {
		c.Paths.TodoFile = "./output/responses/todos/todos.md"
	}
	if c.Paths.MemoryFile == "" {
		c.Paths.MemoryFile = "./output/responses/todos/memory.md"
	}
	if c.Paths.Ledger == "" {
		c.Paths.Ledger = "./output/ledger.sqlite"
	}
	if c.Source.Kind == "" {
		c.Source.Kind = "file"
	}
	if c.Source.HTTPAddr == "" {
		c.Source.HTTPAddr = ":8080"
	}
	if c.Source.PollInterval == "" {
		c.Source.PollInterval = "2s"
	}
	if c.Microphone.SampleRate == 0 {
		c.Microphone.SampleRate = 16000
	}
	if c.Microphone.MaxDuration == "" {
		c.Microphone.MaxDuration = "5m"
	}
	if c.Notify.Kind == "" {
		c.Notify.Kind = "none"
	}
	if c.Notify.HomeAssistant.Service == "" {
		c.Notify.HomeAssistant.Service = "notify"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) validate() error {
	if _, err := domain.ParseEngine(c.Bot.STTEngine); err != nil {
		return fmt.Errorf("bot.stt_engine: %w", err)
	}
	if _, err := domain.ParseChatProvider(c.Chat.Provider); err != nil {
		return fmt.Errorf("chat.provider: %w", err)
	}
	if _, err := c.ChunkDuration(); err != nil {
		return fmt.Errorf("segment.chunk_duration: %w", err)
	}
	if _, err := time.ParseDuration(c.Source.PollInterval); err != nil {
		return fmt.Errorf("source.poll_interval: %w", err)
	}
	if _, err := time.ParseDuration(c.Microphone.MaxDuration); err != nil {
		return fmt.Errorf("microphone.max_duration: %w", err)
	}
	switch c.Source.Kind {
	case "file", "http", "microphone":
	default:
		return fmt.Errorf("source.kind: unknown source %q", c.Source.Kind)
	}
	switch c.Notify.Kind {
	case "none", "pushover", "homeassistant":
	default:
		return fmt.Errorf("notify.kind: unknown notifier %q", c.Notify.Kind)
	}
	return nil
}

// Engine returns the validated speech-to-text engine.
func (c *Config) Engine() domain.Engine {
	engine, _ := domain.ParseEngine(c.Bot.STTEngine)
	return engine
}

func (c *Config) ChatProvider() domain.ChatProvider {
	provider, _ := domain.ParseChatProvider(c.Chat.Provider)
	return provider
}

func (c *Config) ChunkDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Segment.ChunkDuration)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}

// SizeThreshold is the upload limit in bytes above which recordings are segmented.
func (c *Config) SizeThreshold() int64 {
	return c.Segment.SizeThresholdMB * 1024 * 1024
}

func (c *Config) PollInterval() time.Duration {
	d, _ := time.ParseDuration(c.Source.PollInterval)
	return d
}

func (c *Config) MaxRecording() time.Duration {
	d, _ := time.ParseDuration(c.Microphone.MaxDuration)
	return d
}

func (c *Config) YearMonthFolders() bool {
	return c.Transcript.YearMonthFolders == nil || *c.Transcript.YearMonthFolders
}
