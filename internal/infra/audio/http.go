package audio

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const maxUploadBytes = 512 << 20

// HTTPSource is an upload inbox: recordings POSTed to /recordings are saved
// into the watch directory and handed to the watcher in arrival order.
type HTTPSource struct {
	addr        string
	dir         string
	authToken   string
	logger      *slog.Logger
	mux         *http.ServeMux
	rateLimiter *RateLimiter
	queue       chan string

	mu      sync.Mutex
	server  *http.Server
	running bool
	closed  bool
}

func NewHTTPSource(addr, dir, authToken string, logger *slog.Logger) *HTTPSource {
	h := &HTTPSource{
		addr:        addr,
		dir:         dir,
		authToken:   authToken,
		logger:      logger,
		mux:         http.NewServeMux(),
		rateLimiter: NewRateLimiter(30, time.Minute),
		queue:       make(chan string, 16),
	}
	h.mux.HandleFunc("POST /recordings", h.rateLimiter.Middleware(h.handleUpload))
	h.mux.HandleFunc("GET /health", h.handleHealth)
	return h
}

func (h *HTTPSource) Name() string {
	return "http"
}

func (h *HTTPSource) Start(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return nil
	}
	if h.closed {
		return errors.New("recording inbox already stopped")
	}

	if err := os.MkdirAll(h.dir, 0755); err != nil {
		return fmt.Errorf("creating watch dir: %w", err)
	}

	h.server = &http.Server{
		Addr:              h.addr,
		Handler:           h.mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Minute,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		h.logger.Info("recording inbox listening", "addr", h.addr)
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("HTTP server error", "error", err)
		}
	}()

	h.running = true
	return nil
}

func (h *HTTPSource) Stop() error {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return nil
	}
	server := h.server
	h.running = false
	h.mu.Unlock()

	var stopErr error
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			h.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := server.Close(); err != nil {
				stopErr = fmt.Errorf("closing server: %w", err)
			}
		}
	}

	// handlers still running after a forced close see closed and drop their upload
	h.mu.Lock()
	if !h.closed {
		h.closed = true
		close(h.queue)
	}
	h.mu.Unlock()

	return stopErr
}

func (h *HTTPSource) NextRecording(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case path, ok := <-h.queue:
		if !ok {
			return "", fmt.Errorf("recording queue closed")
		}
		return path, nil
	}
}

func (h *HTTPSource) Handler() http.Handler {
	return h.mux
}

func (h *HTTPSource) authorized(r *http.Request) bool {
	if h.authToken == "" {
		return true
	}
	token := r.Header.Get("X-Auth-Token")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.authToken)) == 1
}

func (h *HTTPSource) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.logger.Warn("unauthorized upload", "remote_addr", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	name := filepath.Base(r.URL.Query().Get("name"))
	if name == "." || name == string(filepath.Separator) || !IsRecording(name) {
		http.Error(w, "name must be an audio file name", http.StatusBadRequest)
		return
	}

	path := filepath.Join(h.dir, name)
	if _, err := os.Stat(path); err == nil {
		http.Error(w, "recording already exists", http.StatusConflict)
		return
	}

	size, err := h.save(path, http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		h.logger.Error("saving upload", "name", name, "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "recording too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "failed to store recording", http.StatusBadRequest)
		return
	}

	if err := h.enqueue(path); err != nil {
		os.Remove(path)
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	h.logger.Info("received recording via HTTP", "name", name, "bytes", size)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"status": "queued", "name": name, "bytes": size})
}

func (h *HTTPSource) enqueue(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return errors.New("inbox closed")
	}
	select {
	case h.queue <- path:
		return nil
	default:
		return errors.New("queue full, try again")
	}
}

// save writes body next to path and renames it into place once complete, so
// a half-written upload never carries an audio extension.
func (h *HTTPSource) save(path string, body io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, fmt.Errorf("writing upload: %w", err)
	}
	if size == 0 {
		return 0, fmt.Errorf("empty upload")
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("moving upload into place: %w", err)
	}
	return size, nil
}

func (h *HTTPSource) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	running := h.running
	h.mu.Unlock()

	status := "ok"
	code := http.StatusOK
	if !running {
		status = "not_ready"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{"status": status, "running": running, "queue_size": len(h.queue)})
}
