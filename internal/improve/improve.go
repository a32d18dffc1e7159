// Package improve 调用大模型润色简历：整份改写、单个字段改写或根据描述从零生成。
package improve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fitResume/internal/llm"
	"fitResume/internal/resume"
)

const temperature = 0.3

// Mode 是润色方式。
type Mode string

const (
	ModeGlobal   Mode = "global"
	ModeTargeted Mode = "targeted"
	ModeScratch  Mode = "scratch"
)

// ErrDocumentRequired 表示除从零生成外都必须提供当前文档。
var ErrDocumentRequired = errors.New("resume data is required")

// ServiceError 表示上游调用失败或输出无法解析。调用方可以重试，服务本身不会自动重试。
type ServiceError struct {
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Retryable 恒为 true。
func (e *ServiceError) Retryable() bool { return true }

// Request 描述一次润色。Section 非空时为单字段改写；否则 GenerateFromScratch 决定是否从零生成。
type Request struct {
	Document            *resume.Document `json:"resume"`
	JobDescription      string           `json:"jobDescription"`
	Section             string           `json:"section"`
	Field               string           `json:"field"`
	Identifier          string           `json:"identifier"`
	Instruction         string           `json:"customPrompt"`
	GenerateFromScratch bool             `json:"generateFromScratch"`
}

// Mode 返回请求对应的润色方式。
func (r Request) Mode() Mode {
	switch {
	case r.Section != "":
		return ModeTargeted
	case r.GenerateFromScratch:
		return ModeScratch
	default:
		return ModeGlobal
	}
}

// Result 是润色结果：单字段改写得到 Text 或 Items，其余得到 Document。
type Result struct {
	Mode     Mode             `json:"mode"`
	Text     string           `json:"text,omitempty"`
	Items    []string         `json:"items,omitempty"`
	Document *resume.Document `json:"document,omitempty"`
}

// Service 持有大模型客户端。
type Service struct {
	client llm.Client
	logger *slog.Logger
	now    func() time.Time
}

func New(client llm.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, logger: logger, now: time.Now}
}

// Improve 执行一次润色。
func (s *Service) Improve(ctx context.Context, req Request) (Result, error) {
	mode := req.Mode()
	if req.Document == nil && mode != ModeScratch {
		return Result{}, ErrDocumentRequired
	}

	prompt, err := buildPrompt(req)
	if err != nil {
		return Result{}, err
	}
	s.logger.Info("requesting improvement", slog.String("mode", string(mode)), slog.String("section", req.Section))

	out, err := s.client.Complete(ctx, llm.Request{Tier: llm.TierImprove, Prompt: prompt, Temperature: temperature})
	if err != nil {
		return Result{}, &ServiceError{Message: "AI processing failed", Err: err}
	}
	content := llm.ExtractJSON(llm.Clean(out))

	if mode == ModeTargeted {
		res := parseTargeted(content)
		if res.empty() {
			s.logger.Warn("empty improvement", slog.String("section", req.Section), slog.String("field", req.Field))
			return Result{}, &ServiceError{Message: "Empty AI response"}
		}
		return res, nil
	}
	doc, err := resume.Decode([]byte(content))
	if err != nil {
		s.logger.Warn("unparseable improvement", slog.String("mode", string(mode)), slog.String("error", err.Error()))
		return Result{}, &ServiceError{Message: "Failed to parse AI response", Err: err}
	}
	doc.Normalize(s.now())
	return Result{Mode: mode, Document: &doc}, nil
}

// parseTargeted 优先按 JSON 数组或字符串解析，失败时把整段输出当作文本。
func parseTargeted(content string) Result {
	var items []string
	if err := json.Unmarshal([]byte(content), &items); err == nil {
		return Result{Mode: ModeTargeted, Items: items}
	}
	var text string
	if err := json.Unmarshal([]byte(content), &text); err == nil {
		return Result{Mode: ModeTargeted, Text: text}
	}
	return Result{Mode: ModeTargeted, Text: strings.TrimSpace(content)}
}

// empty 报告定向结果是否不含任何非空白内容。
func (r Result) empty() bool {
	if strings.TrimSpace(r.Text) != "" {
		return false
	}
	for _, item := range r.Items {
		if strings.TrimSpace(item) != "" {
			return false
		}
	}
	return true
}

func buildPrompt(req Request) (string, error) {
	switch req.Mode() {
	case ModeTargeted:
		full, err := json.MarshalIndent(req.Document, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal resume: %w", err)
		}
		return targetedPrompt(req, string(full)), nil
	case ModeScratch:
		return scratchPrompt(req.JobDescription), nil
	default:
		full, err := json.MarshalIndent(req.Document, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal resume: %w", err)
		}
		return globalPrompt(string(full), req.JobDescription), nil
	}
}
