package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client sends notifications through a Home Assistant notify service.
type Client struct {
	baseURL    string
	token      string
	service    string
	httpClient *http.Client
}

// NewClient targets notify.<service>, e.g. "mobile_app_pixel" or "notify".
func NewClient(baseURL, token, service string) *Client {
	// Remove trailing slash if present
	baseURL = strings.TrimSuffix(baseURL, "/")

	if service == "" {
		service = "notify"
	}

	return &Client{
		baseURL:    baseURL,
		token:      token,
		service:    service,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (c *Client) Notify(ctx context.Context, message string) error {
	body, err := json.Marshal(notification{Title: "EphemerEar", Message: message})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	path := "/api/services/notify/" + c.service
	if _, err := c.doRequest(ctx, http.MethodPost, path, body); err != nil {
		return fmt.Errorf("calling notify service: %w", err)
	}

	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("home assistant error %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
