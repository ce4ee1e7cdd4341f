package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ebisawa/driftaway/internal/ai"
)

const apiVersion = "2023-06-01"

type Client struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	http      *http.Client
}

func New(apiKey, model string, maxTokens int) *Client {
	return &Client{
		APIKey:    apiKey,
		BaseURL:   "https://api.anthropic.com",
		Model:     model,
		MaxTokens: maxTokens,
		http:      &http.Client{Timeout: 60 * time.Second},
	}
}

// Paraphrase calls the messages API. System-role messages are folded into
// the top-level system field, which is how this API wants them.
func (c *Client) Paraphrase(ctx context.Context, req ai.ParaphraseRequest) (string, error) {
	if c.APIKey == "" {
		return "", errors.New("missing ANTHROPIC_API_KEY")
	}
	msgs := ai.BuildMessages(req)
	var system []string
	var user []map[string]string
	for _, m := range msgs {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		user = append(user, map[string]string{"role": m.Role, "content": m.Content})
	}
	payload := map[string]any{
		"model":       c.Model,
		"max_tokens":  c.MaxTokens,
		"system":      strings.Join(system, "\n\n"),
		"messages":    user,
		"temperature": ai.Temperature(req.Strength),
	}
	b, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/v1/messages", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("x-api-key", c.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("anthropic status %d", resp.StatusCode)
	}
	var out struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Content) == 0 {
		return "", errors.New("empty response")
	}
	return strings.TrimSpace(out.Content[0].Text), nil
}
