package main

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"ephemerear/config"
	"ephemerear/internal/application"
	"ephemerear/internal/domain"
	"ephemerear/internal/infra/audio"
	"ephemerear/internal/infra/homeassistant"
	"ephemerear/internal/infra/ledger"
	"ephemerear/internal/infra/pushover"
)

func loadConfig(t *testing.T, yaml string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	cfg.Paths.Ledger = t.TempDir() + "/ledger.sqlite"
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildApp_OpenAIRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg := loadConfig(t, "bot:\n  stt_engine: openai\n")

	if _, err := buildApp(cfg, discardLogger()); err == nil {
		t.Error("expected error without an API key")
	}
}

func TestBuildApp_WhisperWithoutChatKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg := loadConfig(t, "bot:\n  stt_engine: whisper\n")

	a, err := buildApp(cfg, discardLogger())
	if err != nil {
		t.Fatalf("buildApp error: %v", err)
	}
	defer a.Close()

	if a.pipeline == nil {
		t.Error("pipeline not built")
	}
}

func TestCreateChatClient(t *testing.T) {
	cases := []struct {
		yaml    string
		wantErr bool
	}{
		{"chat:\n  provider: anthropic\nanthropic:\n  api_key: k\n", false},
		{"chat:\n  provider: anthropic\n", true},
		{"chat:\n  provider: gemini\ngemini:\n  api_key: k\n", false},
		{"chat:\n  provider: openai\nopenai:\n  api_key: k\n", false},
	}

	for _, tc := range cases {
		t.Setenv("OPENAI_API_KEY", "")
		_, err := createChatClient(loadConfig(t, tc.yaml))
		if (err != nil) != tc.wantErr {
			t.Errorf("%q: got err %v, wantErr %v", tc.yaml, err, tc.wantErr)
		}
	}
}

func TestCreateNotifier(t *testing.T) {
	if _, ok := createNotifier(config.NotifyConfig{Kind: "pushover"}).(*pushover.Client); !ok {
		t.Error("pushover kind should build a pushover client")
	}
	if _, ok := createNotifier(config.NotifyConfig{Kind: "homeassistant"}).(*homeassistant.Client); !ok {
		t.Error("homeassistant kind should build a Home Assistant client")
	}
	if _, ok := createNotifier(config.NotifyConfig{Kind: "none"}).(application.NoopNotifier); !ok {
		t.Error("none should build a no-op notifier")
	}
}

func TestCreateSource(t *testing.T) {
	cases := map[string]string{
		"file":       "file",
		"http":       "http",
		"microphone": "microphone",
	}
	for kind, want := range cases {
		cfg := loadConfig(t, "source:\n  kind: "+kind+"\n")
		if got := createSource(cfg, discardLogger()).Name(); got != want {
			t.Errorf("kind %s: got %s", kind, got)
		}
	}

	if _, ok := createSource(loadConfig(t, "{}\n"), discardLogger()).(*audio.FileSource); !ok {
		t.Error("default source should be the file source")
	}
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	entries := []ledger.Entry{{
		LogicalName:    "2024-01-01_1200",
		Engine:         domain.EngineOpenAI,
		Chunks:         3,
		FollowUp:       true,
		TranscriptPath: "out/2024/01/2024-01-01_1200.md",
		CreatedAt:      time.Date(2024, 1, 1, 12, 5, 0, 0, time.Local),
	}}

	if err := printHistory(&buf, entries); err != nil {
		t.Fatalf("printHistory error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"RECORDING", "2024-01-01_1200", "openai", "yes", "2024-01-01 12:05"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSetupLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("log output: %s", out)
	}
}
