// Package llm 封装 OCR、简历结构化与润色所用的大模型服务（Ollama 或 Gemini）。
package llm

import (
	"context"
	"fmt"

	"fitResume/internal/config"
)

// Tier 区分三类调用，各自映射到配置中的模型。
type Tier string

const (
	TierOCR       Tier = "ocr"
	TierReasoning Tier = "reasoning"
	TierImprove   Tier = "improve"
)

// Request 是一次单轮对话请求。
type Request struct {
	Tier        Tier
	Prompt      string
	Images      [][]byte
	Temperature float32
}

// Client 是大模型服务的抽象，Complete 返回模型输出的原始文本。
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	Close() error
}

// Models 保存每个 Tier 对应的模型名。
type Models map[Tier]string

// NewClient 按配置选择后端。
func NewClient(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case "", "ollama":
		return NewOllamaClient(cfg.Endpoint, Models{
			TierOCR:       cfg.OCRModel,
			TierReasoning: cfg.ReasoningModel,
			TierImprove:   cfg.ImproveModel,
		}, cfg.Timeout), nil
	case "gemini":
		return NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
