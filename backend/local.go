// File: backend/local.go
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// LocalModelBackend generates descriptors through an Ollama-compatible
// local model server. Availability is a cheap probe against the tags
// endpoint so the chain can skip it when no server is running.
type LocalModelBackend struct {
	BaseURL string // e.g. http://localhost:11434
	Model   string
	client  *http.Client
	probe   *http.Client
}

// NewLocalModelBackend creates a local-model backend.
func NewLocalModelBackend(baseURL, model string, timeout time.Duration) *LocalModelBackend {
	return &LocalModelBackend{
		BaseURL: baseURL,
		Model:   model,
		client:  &http.Client{Timeout: timeout},
		probe:   &http.Client{Timeout: 500 * time.Millisecond},
	}
}

func (b *LocalModelBackend) Name() string { return "local-model" }

func (b *LocalModelBackend) Available() bool {
	if b.BaseURL == "" || b.Model == "" {
		return false
	}
	resp, err := b.probe.Get(b.BaseURL + "/api/tags")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (b *LocalModelBackend) Transform(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:  b.Model,
		Prompt: BuildPrompt(req),
		Stream: false,
		Format: "json",
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("local model returned status %d", resp.StatusCode)
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding local model response: %w", err)
	}
	return out.Response, nil
}
