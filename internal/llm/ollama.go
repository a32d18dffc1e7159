package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// StatusError 表示上游返回了非 2xx 状态码。
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm upstream returned %d: %s", e.Code, e.Body)
}

// OllamaClient 调用 Ollama 的 /api/chat 接口（非流式）。
type OllamaClient struct {
	BaseURL string
	HTTP    *http.Client
	Models  Models
}

func NewOllamaClient(baseURL string, models Models, timeout time.Duration) *OllamaClient {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &OllamaClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Models:  models,
	}
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  struct {
		Temperature float32 `json:"temperature"`
	} `json:"options"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Error string `json:"error"`
}

func (c *OllamaClient) Complete(ctx context.Context, req Request) (string, error) {
	model := c.Models[req.Tier]
	if model == "" {
		return "", fmt.Errorf("no model configured for tier %s", req.Tier)
	}

	msg := ollamaMessage{Role: "user", Content: req.Prompt}
	for _, img := range req.Images {
		msg.Images = append(msg.Images, base64.StdEncoding.EncodeToString(img))
	}
	body := ollamaChatRequest{Model: model, Messages: []ollamaMessage{msg}}
	body.Options.Temperature = req.Temperature

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call %s: %w", model, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var out ollamaChatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("chat %s: %s", model, out.Error)
	}
	return out.Message.Content, nil
}

func (c *OllamaClient) Close() error { return nil }
