package drafts

import (
	"context"
	"log/slog"

	"fitResume/internal/resume"
)

// Source 说明初始文档来自哪里。
type Source string

const (
	SourceUpload Source = "upload"
	SourceDraft  Source = "draft"
	SourceBlank  Source = "blank"
)

// Seeded 是 Seed 的结果。
type Seeded struct {
	Document resume.Document
	Source   Source
}

// Seed 为 owner 选择初始文档：导入结果优先于草稿，草稿优先于空白文档。
// 导入结果被采用后会删除旧草稿并消费导入键；无法解析的导入结果直接删除。
// 存储错误只记录日志，不会阻止会话创建。
func Seed(ctx context.Context, store Store, owner string, logger *slog.Logger) Seeded {
	if logger == nil {
		logger = slog.Default()
	}
	uploadKey := Namespaced(owner, UploadKey)
	draftKey := Namespaced(owner, DraftKey)

	if doc, ok := loadDocument(ctx, store, uploadKey, logger); ok {
		if err := store.Remove(ctx, draftKey); err != nil {
			logger.Warn("remove stale draft", slog.String("key", draftKey), slog.String("error", err.Error()))
		}
		if err := store.Remove(ctx, uploadKey); err != nil {
			logger.Warn("consume upload", slog.String("key", uploadKey), slog.String("error", err.Error()))
		}
		return Seeded{Document: doc, Source: SourceUpload}
	}

	if doc, ok := loadDocument(ctx, store, draftKey, logger); ok {
		return Seeded{Document: doc, Source: SourceDraft}
	}
	return Seeded{Document: resume.New(), Source: SourceBlank}
}

func loadDocument(ctx context.Context, store Store, key string, logger *slog.Logger) (resume.Document, bool) {
	data, found, err := store.Load(ctx, key)
	if err != nil {
		logger.Warn("load draft", slog.String("key", key), slog.String("error", err.Error()))
		return resume.Document{}, false
	}
	if !found {
		return resume.Document{}, false
	}
	doc, err := resume.Decode(data)
	if err != nil {
		logger.Warn("discard invalid draft", slog.String("key", key), slog.String("error", err.Error()))
		if err := store.Remove(ctx, key); err != nil {
			logger.Warn("remove invalid draft", slog.String("key", key), slog.String("error", err.Error()))
		}
		return resume.Document{}, false
	}
	return doc, true
}
