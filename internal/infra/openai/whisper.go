package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.openai.com/v1"

// WhisperClient uploads audio to the OpenAI transcription endpoint.
type WhisperClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
	prompt     string
	logger     *slog.Logger
}

func NewWhisperClient(apiKey, model, prompt string, logger *slog.Logger) *WhisperClient {
	return NewWhisperClientWithURL(apiKey, model, prompt, DefaultBaseURL, logger)
}

func NewWhisperClientWithURL(apiKey, model, prompt, baseURL string, logger *slog.Logger) *WhisperClient {
	if model == "" {
		model = "whisper-1"
	}
	return &WhisperClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		prompt:     prompt,
		logger:     logger,
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// TranscribeChunks uploads each chunk in order and joins the texts with a
// single space. A chunk that fails is replaced by "[Error transcribing <chunk>]"
// and the batch carries on; only context cancellation aborts it.
func (c *WhisperClient) TranscribeChunks(ctx context.Context, chunks []string) (string, error) {
	transcriptions := make([]string, 0, len(chunks))

	for _, chunk := range chunks {
		c.logger.Info("transcribing chunk", "chunk", chunk)

		text, err := c.Transcribe(ctx, chunk)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			c.logger.Error("transcribing chunk", "chunk", chunk, "error", err)
			transcriptions = append(transcriptions, fmt.Sprintf("[Error transcribing %s]", chunk))
			continue
		}

		transcriptions = append(transcriptions, text)
	}

	return strings.Join(transcriptions, " "), nil
}

// Transcribe uploads a single audio file and returns its text.
func (c *WhisperClient) Transcribe(ctx context.Context, path string) (string, error) {
	audio, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening audio: %w", err)
	}
	defer audio.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}

	if _, err = io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("writing audio: %w", err)
	}

	if err = writer.WriteField("model", c.model); err != nil {
		return "", fmt.Errorf("writing model field: %w", err)
	}

	if c.prompt != "" {
		if err = writer.WriteField("prompt", c.prompt); err != nil {
			return "", fmt.Errorf("writing prompt field: %w", err)
		}
	}

	if err = writer.Close(); err != nil {
		return "", fmt.Errorf("closing writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("whisper API error %d: %s", resp.StatusCode, string(respBody))
	}

	var result transcriptionResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	return result.Text, nil
}
