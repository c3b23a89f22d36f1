package openai_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"ephemerear/internal/infra/openai"
)

func writeChunks(t *testing.T, contents ...string) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for i, content := range contents {
		path := filepath.Join(dir, "rec.wav_chunk"+string(rune('0'+i))+".mp3")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("writing chunk: %v", err)
		}
		paths = append(paths, path)
	}
	return paths
}

// transcriptionServer answers with the uploaded file's content as the text,
// or with the status in failures keyed by uploaded content.
func transcriptionServer(t *testing.T, failures map[string]int) (*httptest.Server, *[]string) {
	t.Helper()
	var mu sync.Mutex
	var order []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.FormValue("model") != "whisper-1" {
			http.Error(w, "bad model", http.StatusBadRequest)
			return
		}
		if r.FormValue("prompt") != "Here is the full text, in English:" {
			http.Error(w, "bad prompt", http.StatusBadRequest)
			return
		}

		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		content := string(data)

		mu.Lock()
		order = append(order, content)
		mu.Unlock()

		if status, ok := failures[content]; ok {
			http.Error(w, "upstream failure", status)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"text": content})
	}))
	t.Cleanup(server.Close)

	return server, &order
}

func newClient(baseURL string) *openai.WhisperClient {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return openai.NewWhisperClientWithURL("test-key", "whisper-1", "Here is the full text, in English:", baseURL, logger)
}

func TestWhisperClient_JoinsChunksInOrder(t *testing.T) {
	server, order := transcriptionServer(t, nil)
	chunks := writeChunks(t, "A", "B", "C")

	text, err := newClient(server.URL).TranscribeChunks(context.Background(), chunks)
	if err != nil {
		t.Fatalf("TranscribeChunks error: %v", err)
	}

	if text != "A B C" {
		t.Errorf("text: got %q, want %q", text, "A B C")
	}
	if strings.Join(*order, "") != "ABC" {
		t.Errorf("upload order: got %v", *order)
	}
}

func TestWhisperClient_PartialFailure(t *testing.T) {
	server, _ := transcriptionServer(t, map[string]int{"B": http.StatusInternalServerError})
	chunks := writeChunks(t, "A", "B", "C")

	text, err := newClient(server.URL).TranscribeChunks(context.Background(), chunks)
	if err != nil {
		t.Fatalf("TranscribeChunks error: %v", err)
	}

	want := "A [Error transcribing " + chunks[1] + "] C"
	if text != want {
		t.Errorf("text: got %q, want %q", text, want)
	}
}

func TestWhisperClient_NonOKStatusesArePlaceholders(t *testing.T) {
	server, _ := transcriptionServer(t, map[string]int{
		"A": http.StatusBadRequest,
		"B": http.StatusTooManyRequests,
	})
	chunks := writeChunks(t, "A", "B")

	text, err := newClient(server.URL).TranscribeChunks(context.Background(), chunks)
	if err != nil {
		t.Fatalf("TranscribeChunks error: %v", err)
	}

	want := "[Error transcribing " + chunks[0] + "] [Error transcribing " + chunks[1] + "]"
	if text != want {
		t.Errorf("text: got %q, want %q", text, want)
	}
}

func TestWhisperClient_MissingChunkIsPlaceholder(t *testing.T) {
	server, order := transcriptionServer(t, nil)
	chunks := writeChunks(t, "A")
	missing := filepath.Join(t.TempDir(), "gone.mp3")

	text, err := newClient(server.URL).TranscribeChunks(context.Background(), []string{missing, chunks[0]})
	if err != nil {
		t.Fatalf("TranscribeChunks error: %v", err)
	}

	want := "[Error transcribing " + missing + "] A"
	if text != want {
		t.Errorf("text: got %q, want %q", text, want)
	}
	if len(*order) != 1 {
		t.Errorf("uploads: got %d, want 1", len(*order))
	}
}

func TestWhisperClient_CancelledContextAborts(t *testing.T) {
	server, _ := transcriptionServer(t, nil)
	chunks := writeChunks(t, "A", "B")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newClient(server.URL).TranscribeChunks(ctx, chunks); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestWhisperClient_Transcribe(t *testing.T) {
	server, _ := transcriptionServer(t, nil)
	chunks := writeChunks(t, "hello there")

	text, err := newClient(server.URL).Transcribe(context.Background(), chunks[0])
	if err != nil {
		t.Fatalf("Transcribe error: %v", err)
	}
	if text != "hello there" {
		t.Errorf("text: got %q", text)
	}
}
