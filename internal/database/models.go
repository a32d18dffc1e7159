package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 导出状态。
const (
	StatusDraft     = "draft"
	StatusExporting = "exporting"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Resume 表示保存下来的简历内容，导出时使用 PresetID 对应的排版密度。
type Resume struct {
	gorm.Model
	Title        string         `gorm:"size:255"`
	Content      datatypes.JSON `gorm:"type:jsonb"`
	PresetID     string         `gorm:"size:32"`
	PdfObjectKey string         `gorm:"size:512"`
	Status       string         `gorm:"size:32"`
}

// Draft 是草稿存储的 postgres 后端，一个键对应一份最新数据。
type Draft struct {
	Key       string `gorm:"primaryKey;size:191"`
	Data      []byte
	ExpiresAt *time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// Upload 记录导入时保存的原始文件。
type Upload struct {
	gorm.Model
	ObjectKey   string `gorm:"size:512;uniqueIndex"`
	FileName    string `gorm:"size:255"`
	ContentType string `gorm:"size:128"`
	Size        int64
	DraftKey    string `gorm:"size:191;index"`
}

// Models 列出需要迁移的全部模型。
func Models() []any {
	return []any{&Resume{}, &Draft{}, &Upload{}}
}
