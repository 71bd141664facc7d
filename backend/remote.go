// File: backend/remote.go
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RemoteAPIBackend generates descriptors through an OpenAI-compatible chat
// completions API. It is considered available whenever an API key is
// configured; actual reachability surfaces as a transform error and the
// repair protocol's failure reporting.
type RemoteAPIBackend struct {
	BaseURL string // e.g. https://api.openai.com
	APIKey  string
	Model   string
	client  *http.Client
}

// NewRemoteAPIBackend creates a remote-API backend.
func NewRemoteAPIBackend(baseURL, apiKey, model string, timeout time.Duration) *RemoteAPIBackend {
	return &RemoteAPIBackend{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (b *RemoteAPIBackend) Name() string { return "remote-api" }

func (b *RemoteAPIBackend) Available() bool {
	return b.APIKey != "" && b.BaseURL != "" && b.Model != ""
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (b *RemoteAPIBackend) Transform(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: b.Model,
		Messages: []chatMessage{
			{Role: "user", Content: BuildPrompt(req)},
		},
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+b.APIKey)

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("remote API returned status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding remote API response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("remote API returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}
