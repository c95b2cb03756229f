// Package ai is the REST client for the completion provider (chat, vision,
// speech-to-text, text-to-speech over an OpenAI-compatible API).
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

type Config struct {
	BaseURL         string
	APIKey          string
	ChatModel       string
	VisionModel     string
	TranscribeModel string
	SpeechModel     string
	SpeechVoice     string
	Timeout         time.Duration
}

type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

func TextMessage(role, content string) Message {
	return Message{Role: role, Content: content}
}

// VisionMessage builds a user turn carrying a prompt and an image URL.
func VisionMessage(prompt, imageURL string) Message {
	return Message{
		Role: "user",
		Content: []map[string]interface{}{
			{"type": "text", "text": prompt},
			{"type": "image_url", "image_url": map[string]string{"url": imageURL}},
		},
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ChatCompletion runs a completion with the default chat model.
func (c *Client) ChatCompletion(ctx context.Context, messages []Message) (string, error) {
	return c.complete(ctx, c.cfg.ChatModel, messages)
}

// VisionCompletion runs a completion with the vision-capable model.
func (c *Client) VisionCompletion(ctx context.Context, messages []Message) (string, error) {
	return c.complete(ctx, c.cfg.VisionModel, messages)
}

func (c *Client) complete(ctx context.Context, model string, messages []Message) (string, error) {
	payload := chatRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: 1024,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", apiError(resp)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}

// Transcribe converts audio bytes to text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	if err := writer.WriteField("model", c.cfg.TranscribeModel); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", apiError(resp)
	}

	var decoded struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return strings.TrimSpace(decoded.Text), nil
}

// Speak synthesizes speech and returns the raw audio bytes.
func (c *Client) Speak(ctx context.Context, text string) ([]byte, error) {
	payload := map[string]string{
		"model": c.cfg.SpeechModel,
		"voice": c.cfg.SpeechVoice,
		"input": text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, apiError(resp)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 32<<20))
}

func apiError(resp *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 32<<10))
	return fmt.Errorf("ai API error %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
}
