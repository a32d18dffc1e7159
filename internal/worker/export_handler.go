package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"fitResume/internal/database"
	"fitResume/internal/density"
	"fitResume/internal/errcode"
	"fitResume/internal/export"
	"fitResume/internal/resume"
	"fitResume/internal/storage"
	"fitResume/internal/tasks"
)

// ExportTaskHandler 负责消费 PDF 导出任务。
type ExportTaskHandler struct {
	db        *gorm.DB
	storage   storage.ObjectStore
	publisher Publisher
	renderer  export.Renderer
	ladder    *density.Ladder
	logger    *slog.Logger
}

// NewExportTaskHandler 创建任务处理器。
func NewExportTaskHandler(
	db *gorm.DB,
	store storage.ObjectStore,
	publisher Publisher,
	renderer export.Renderer,
	ladder *density.Ladder,
	logger *slog.Logger,
) *ExportTaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportTaskHandler{
		db:        db,
		storage:   store,
		publisher: publisher,
		renderer:  renderer,
		ladder:    ladder,
		logger:    logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ExportTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	payload, err := tasks.ParseExportPDFPayload(t)
	if err != nil {
		log.Error("parse task payload failed", slog.Any("error", err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Int("resume_id", int(payload.ResumeID)),
	)
	log.Info("starting pdf export task")

	var record database.Resume
	if err := h.db.WithContext(ctx).First(&record, payload.ResumeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("resume not found, skipping task")
			return nil
		}
		log.Error("query resume failed", slog.Any("error", err))
		return err
	}

	presetID := payload.PresetID
	if presetID == "" {
		presetID = record.PresetID
	}
	preset := export.ResolvePreset(h.ladder, presetID)
	log = log.With(slog.String("preset", preset.ID))

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) && !errors.Is(retErr, asynq.SkipRetry) {
			return
		}
		if err := h.db.WithContext(ctx).Model(&record).Update("status", database.StatusFailed).Error; err != nil {
			log.Error("mark resume export failed", slog.Any("error", err))
		}
		notify := ExportNotifyMessage{
			Status:        NotifyError,
			ResumeID:      record.ID,
			PresetID:      preset.ID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := publishNotify(ctx, h.publisher, notify); err != nil {
			log.Error("publish export error notification failed", slog.Any("error", err))
		}
	}()

	doc, err := resume.Decode(record.Content)
	if err != nil {
		log.Error("decode resume content failed", slog.Any("error", err))
		return fmt.Errorf("decode resume %d: %v: %w", record.ID, err, asynq.SkipRetry)
	}

	pdfBytes, err := h.renderer.Render(ctx, doc, preset)
	if err != nil {
		log.Error("render pdf failed", slog.Any("error", err))
		return err
	}

	objectName := storage.ExportKey(record.ID)
	if _, err := h.storage.UploadFile(ctx, objectName, bytes.NewReader(pdfBytes), int64(len(pdfBytes)), "application/pdf"); err != nil {
		log.Error("upload pdf to minio failed", slog.Any("error", err))
		return err
	}

	previous := record.PdfObjectKey
	update := map[string]any{
		"pdf_object_key": objectName,
		"status":         database.StatusCompleted,
	}
	if err := h.db.WithContext(ctx).Model(&record).Updates(update).Error; err != nil {
		log.Error("update resume failed", slog.Any("error", err))
		return err
	}
	if previous != "" && previous != objectName {
		if err := h.storage.DeleteObject(ctx, previous); err != nil {
			log.Warn("delete previous export failed", slog.String("object_key", previous), slog.Any("error", err))
		}
	}

	notify := ExportNotifyMessage{
		Status:        NotifyCompleted,
		ResumeID:      record.ID,
		PresetID:      preset.ID,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if err := publishNotify(ctx, h.publisher, notify); err != nil {
		// PDF 已就绪，通知失败不重试整个导出。
		log.Warn("publish redis notification failed", slog.Any("error", err))
	}

	log.Info("pdf export task completed", slog.String("object_key", objectName), slog.Int("bytes", len(pdfBytes)))
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
