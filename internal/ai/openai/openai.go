package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ebisawa/driftaway/internal/ai"
)

type Client struct {
	APIKey       string
	BaseURL      string
	Model        string
	WhisperModel string
	MaxTokens    int
	SampleRate   int
	http         *http.Client
}

func New(apiKey, baseURL, model, whisperModel string, maxTokens, sampleRate int) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	return &Client{
		APIKey:       apiKey,
		BaseURL:      strings.TrimRight(baseURL, "/"),
		Model:        model,
		WhisperModel: whisperModel,
		MaxTokens:    maxTokens,
		SampleRate:   sampleRate,
		http:         &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) Paraphrase(ctx context.Context, req ai.ParaphraseRequest) (string, error) {
	if c.APIKey == "" {
		return "", errors.New("missing OPENAI_API_KEY")
	}
	msgs := ai.BuildMessages(req)
	wire := make([]map[string]string, 0, len(msgs))
	for _, m := range msgs {
		wire = append(wire, map[string]string{"role": m.Role, "content": m.Content})
	}
	payload := map[string]any{
		"model":       c.Model,
		"messages":    wire,
		"temperature": ai.Temperature(req.Strength),
		"max_tokens":  c.MaxTokens,
	}
	b, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/v1/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("openai status %d", resp.StatusCode)
	}
	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", errors.New("no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// Transcribe sends the chunk to the audio transcription endpoint, wrapped as
// a WAV file.
func (c *Client) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	if c.APIKey == "" {
		return "", errors.New("missing OPENAI_API_KEY")
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "chunk.wav")
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(ai.WrapWAV(audio, c.SampleRate)); err != nil {
		return "", err
	}
	_ = mw.WriteField("model", c.WhisperModel)
	if language != "" {
		_ = mw.WriteField("language", language)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/v1/audio/transcriptions", &body)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("openai transcription status %d", resp.StatusCode)
	}
	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Text), nil
}
