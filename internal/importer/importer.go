// Package importer 把上传的 PDF、DOCX 或图片转换成简历文档：
// 先提取纯文本（图片走 OCR 模型），再由推理模型结构化为 JSON。
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"fitResume/internal/llm"
	"fitResume/internal/resume"
)

// 提示信息与原有前端保持一致。
const (
	MsgNoText           = "No text could be extracted from the file"
	MsgNoTextDetails    = "The file appears to be empty or contains no readable text. For scanned PDFs or image-based documents, please upload as PNG/JPEG for OCR processing."
	MsgInsufficient     = "The extracted text appears to be insufficient or the document may be image-based."
	MsgInsufficientHint = "Could you please take a screenshot of your resume and upload it as a PNG or JPEG image? This will allow us to use OCR to extract the text more accurately."
	MsgProcessed        = "Resume processed successfully"
	MsgExtractHint      = "The PDF could not be read. Please upload a PNG/JPEG screenshot of your resume for OCR processing."
)

// 文本充分性阈值。
const (
	MinTextLength      = 100
	MinWordCount       = 20
	MinMeaningfulChars = 50
)

const ocrPrompt = "Free OCR."

// ExtractionError 表示无法从文件中得到任何文本，属于调用方可修正的错误。
type ExtractionError struct {
	Message string
	Details string
	Err     error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ErrStructure 表示模型输出无法解析为合法的简历结构。
var ErrStructure = errors.New("structure resume")

// Result 是一次导入的结果。InsufficientText 为 true 时 Document 为 nil，属于软失败。
type Result struct {
	Success          bool             `json:"success"`
	InsufficientText bool             `json:"insufficientText,omitempty"`
	Message          string           `json:"message"`
	Suggestion       string           `json:"suggestion,omitempty"`
	Document         *resume.Document `json:"data,omitempty"`
	Kind             Kind             `json:"kind"`
}

// Importer 依赖一个大模型客户端完成 OCR 与结构化。
type Importer struct {
	client llm.Client
	logger *slog.Logger
	now    func() time.Time
}

func New(client llm.Client, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{client: client, logger: logger, now: time.Now}
}

// Import 执行完整的两阶段导入。
func (im *Importer) Import(ctx context.Context, contentType string, data []byte) (Result, error) {
	kind, err := DetectKind(contentType, data)
	if err != nil {
		return Result{}, err
	}

	im.logger.Info("extracting text", slog.String("kind", string(kind)), slog.Int("bytes", len(data)))
	text, err := im.Extract(ctx, kind, data)
	if err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, &ExtractionError{Message: MsgNoText, Details: MsgNoTextDetails}
	}
	if !Sufficient(text) {
		return Result{
			InsufficientText: true,
			Message:          MsgInsufficient,
			Suggestion:       MsgInsufficientHint,
			Kind:             kind,
		}, nil
	}

	im.logger.Info("structuring resume data", slog.Int("chars", len(text)))
	doc, err := im.Structure(ctx, text)
	if err != nil {
		return Result{}, err
	}
	return Result{Success: true, Message: MsgProcessed, Document: &doc, Kind: kind}, nil
}

// Extract 按文件类型提取纯文本。
func (im *Importer) Extract(ctx context.Context, kind Kind, data []byte) (string, error) {
	switch kind {
	case KindPDF:
		text, err := extractPDF(data)
		if err != nil {
			return "", &ExtractionError{Message: "Failed to extract text from PDF", Details: MsgExtractHint, Err: err}
		}
		return text, nil
	case KindDOCX:
		text, err := extractDOCX(data)
		if err != nil {
			return "", &ExtractionError{Message: "Failed to extract text from DOCX", Err: err}
		}
		return text, nil
	case KindImage:
		text, err := im.client.Complete(ctx, llm.Request{Tier: llm.TierOCR, Prompt: ocrPrompt, Images: [][]byte{data}})
		if err != nil {
			return "", fmt.Errorf("ocr: %w", err)
		}
		return text, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, kind)
	}
}

// Sufficient 判断提取到的文本是否足以结构化：长度、词数与字母数都要达到阈值。
func Sufficient(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < MinTextLength {
		return false
	}
	if len(strings.Fields(trimmed)) < MinWordCount {
		return false
	}
	meaningful := 0
	for _, r := range trimmed {
		if unicode.IsLetter(r) {
			meaningful++
		}
	}
	return meaningful >= MinMeaningfulChars
}

// Structure 让推理模型把纯文本转换为简历 JSON，并校验、补齐 ID。
func (im *Importer) Structure(ctx context.Context, text string) (resume.Document, error) {
	out, err := im.client.Complete(ctx, llm.Request{Tier: llm.TierReasoning, Prompt: structurePrompt(text)})
	if err != nil {
		return resume.Document{}, fmt.Errorf("%w: %w", ErrStructure, err)
	}
	cleaned := llm.ExtractObject(llm.Clean(out), "personal")
	doc, err := resume.Decode([]byte(cleaned))
	if err != nil {
		im.logger.Warn("unparseable structure response", slog.Int("chars", len(out)), slog.String("error", err.Error()))
		return resume.Document{}, fmt.Errorf("%w: %w", ErrStructure, err)
	}
	doc.Normalize(im.now())
	return doc, nil
}
