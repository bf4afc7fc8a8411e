package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jperaza/finbot/internal/domain"
	"go.uber.org/zap"
)

// Client is a thin non-streaming wrapper around the Ollama generate
// endpoint. Model output is returned as-is; callers must treat it as
// untrusted text.
type Client struct {
	apiURL string
	model  string
	client *http.Client
	logger *zap.Logger
}

func NewClient(apiURL, model string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		apiURL: apiURL,
		model:  model,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func (c *Client) Ask(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Model: c.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/json")

	start := time.Now()
	response, err := c.client.Do(request)
	if err != nil {
		c.logger.Warn("llm request failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return "", fmt.Errorf("llm error: status %d", response.StatusCode)
	}

	var payload generateResponse
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return "", err
	}

	out := strings.TrimSpace(payload.Response)
	c.logger.Debug(
		"llm request complete",
		zap.Int("prompt_len", len(prompt)),
		zap.Int("response_len", len(out)),
		zap.Duration("duration", time.Since(start)),
	)
	return out, nil
}
