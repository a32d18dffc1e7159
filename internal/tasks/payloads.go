package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeExportPDF = "export:pdf"
)

// ExportPDFPayload 描述导出 PDF 所需的最小信息。
// PresetID 为空时使用简历保存的预设。
type ExportPDFPayload struct {
	ResumeID      uint   `json:"resume_id"`
	PresetID      string `json:"preset_id,omitempty"`
	CorrelationID string `json:"correlation_id"`
}

// NewExportPDFTask 构造一个新的简历 PDF 导出任务。
func NewExportPDFTask(id uint, presetID, correlationID string, opts ...asynq.Option) (*asynq.Task, error) {
	payload, err := json.Marshal(ExportPDFPayload{
		ResumeID:      id,
		PresetID:      presetID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeExportPDF, payload, opts...), nil
}

// ParseExportPDFPayload 解析任务载荷。
func ParseExportPDFPayload(t *asynq.Task) (ExportPDFPayload, error) {
	var p ExportPDFPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("unmarshal export payload: %w", err)
	}
	if p.ResumeID == 0 {
		return p, fmt.Errorf("export payload missing resume id")
	}
	return p, nil
}
