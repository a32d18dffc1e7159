package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"fitResume/internal/api/middleware"
	"fitResume/internal/database"
	"fitResume/internal/density"
	"fitResume/internal/resume"
	"fitResume/internal/storage"
	"fitResume/internal/tasks"
)

const downloadLinkTTL = 5 * time.Minute

// Enqueuer 是投递异步任务的能力，*asynq.Client 满足该接口。
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ResumeHandler 负责处理与已保存简历相关的 API 请求。
type ResumeHandler struct {
	db       *gorm.DB
	queue    Enqueuer
	storage  storage.ObjectStore
	ladder   *density.Ladder
	maxRetry int
}

// NewResumeHandler 构造 ResumeHandler。
func NewResumeHandler(db *gorm.DB, queue Enqueuer, store storage.ObjectStore, ladder *density.Ladder, maxRetry int) *ResumeHandler {
	if ladder == nil {
		ladder = density.Standard
	}
	return &ResumeHandler{
		db:       db,
		queue:    queue,
		storage:  store,
		ladder:   ladder,
		maxRetry: maxRetry,
	}
}

var errInvalidResumeID = errors.New("invalid resume id")

type saveResumeRequest struct {
	Title    string          `json:"title" binding:"required,max=255"`
	Content  json.RawMessage `json:"content" binding:"required"`
	PresetID string          `json:"presetId"`
}

type exportRequest struct {
	PresetID string `json:"presetId"`
}

type resumeResponse struct {
	ID        uint           `json:"id"`
	Title     string         `json:"title"`
	Content   datatypes.JSON `json:"content"`
	PresetID  string         `json:"presetId"`
	Status    string         `json:"status"`
	HasPDF    bool           `json:"hasPdf"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// CreateResume 保存一份新的简历。内容会按文档结构校验并规范化。
func (h *ResumeHandler) CreateResume(c *gin.Context) {
	req, content, ok := h.bindSaveRequest(c)
	if !ok {
		return
	}

	record := database.Resume{
		Title:    req.Title,
		Content:  content,
		PresetID: req.PresetID,
		Status:   database.StatusDraft,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&record).Error; err != nil {
		middleware.LoggerFromContext(c).Error("create resume failed", slog.Any("error", err))
		Internal(c, "failed to create resume")
		return
	}

	c.JSON(http.StatusCreated, newResumeResponse(record))
}

// GetResume 返回指定 ID 的简历。
func (h *ResumeHandler) GetResume(c *gin.Context) {
	record, ok := h.loadResume(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newResumeResponse(*record))
}

// UpdateResume 覆盖指定简历，已导出的 PDF 保留到下一次导出。
func (h *ResumeHandler) UpdateResume(c *gin.Context) {
	record, ok := h.loadResume(c)
	if !ok {
		return
	}
	req, content, ok := h.bindSaveRequest(c)
	if !ok {
		return
	}

	updates := map[string]any{
		"title":     req.Title,
		"content":   content,
		"preset_id": req.PresetID,
	}
	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Model(record).Updates(updates).Error; err != nil {
		middleware.LoggerFromContext(c).Error("update resume failed", slog.Any("error", err))
		Internal(c, "failed to update resume")
		return
	}
	if err := h.db.WithContext(ctx).First(record, record.ID).Error; err != nil {
		Internal(c, "failed to reload resume")
		return
	}

	c.JSON(http.StatusOK, newResumeResponse(*record))
}

// DeleteResume 删除指定简历及其导出文件。
func (h *ResumeHandler) DeleteResume(c *gin.Context) {
	record, ok := h.loadResume(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Delete(&database.Resume{}, record.ID).Error; err != nil {
		Internal(c, "failed to delete resume")
		return
	}
	if record.PdfObjectKey != "" && h.storage != nil {
		if err := h.storage.DeleteObject(ctx, record.PdfObjectKey); err != nil {
			middleware.LoggerFromContext(c).Warn("delete exported pdf failed",
				slog.String("object_key", record.PdfObjectKey),
				slog.Any("error", err),
			)
		}
	}

	c.Status(http.StatusNoContent)
}

// ExportResume 将 PDF 导出任务入队并立即返回 202。请求体可选地指定预设。
func (h *ResumeHandler) ExportResume(c *gin.Context) {
	record, ok := h.loadResume(c)
	if !ok {
		return
	}

	var req exportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, err.Error())
			return
		}
	}
	if req.PresetID != "" {
		if _, err := h.ladder.IndexOf(req.PresetID); err != nil {
			BadRequest(c, "unknown preset")
			return
		}
	}
	if h.queue == nil {
		Unavailable(c, "export queue unavailable")
		return
	}

	log := middleware.LoggerFromContext(c)
	correlationID := middleware.GetCorrelationID(c)
	task, err := tasks.NewExportPDFTask(record.ID, req.PresetID, correlationID)
	if err != nil {
		Internal(c, "failed to create task")
		return
	}

	opts := []asynq.Option{}
	if h.maxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(h.maxRetry))
	}
	info, err := h.queue.Enqueue(task, opts...)
	if err != nil {
		log.Error("enqueue export failed", slog.Any("error", err))
		Internal(c, "failed to enqueue pdf export")
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Model(record).Update("status", database.StatusExporting).Error; err != nil {
		log.Warn("mark resume exporting failed", slog.Any("error", err))
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":        "PDF export request accepted",
		"task_id":        info.ID,
		"correlation_id": correlationID,
	})
}

// GetDownloadLink 生成简历 PDF 的预签名下载链接。
func (h *ResumeHandler) GetDownloadLink(c *gin.Context) {
	record, ok := h.loadResume(c)
	if !ok {
		return
	}

	if record.PdfObjectKey == "" {
		if record.Status == database.StatusFailed {
			Conflict(c, "pdf export failed")
			return
		}
		Conflict(c, "pdf not ready")
		return
	}
	if h.storage == nil {
		Unavailable(c, "storage unavailable")
		return
	}

	signedURL, err := h.storage.GeneratePresignedURL(c.Request.Context(), record.PdfObjectKey, downloadLinkTTL)
	if err != nil {
		Internal(c, "failed to generate download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL, "status": record.Status})
}

func (h *ResumeHandler) bindSaveRequest(c *gin.Context) (saveResumeRequest, datatypes.JSON, bool) {
	var req saveResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return req, nil, false
	}
	if req.PresetID != "" {
		if _, err := h.ladder.IndexOf(req.PresetID); err != nil {
			BadRequest(c, "unknown preset")
			return req, nil, false
		}
	}
	doc, err := resume.Decode(req.Content)
	if err != nil {
		ErrorWithCode(c, http.StatusBadRequest, "invalid resume content", 0, err.Error())
		return req, nil, false
	}
	content, err := json.Marshal(doc)
	if err != nil {
		Internal(c, "failed to encode resume")
		return req, nil, false
	}
	return req, datatypes.JSON(content), true
}

func (h *ResumeHandler) loadResume(c *gin.Context) (*database.Resume, bool) {
	record, err := h.getResume(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, errInvalidResumeID):
			BadRequest(c, "invalid resume id")
		case errors.Is(err, gorm.ErrRecordNotFound):
			NotFound(c, "resume not found")
		default:
			Internal(c, "failed to query resume")
		}
		return nil, false
	}
	return record, true
}

func (h *ResumeHandler) getResume(ctx context.Context, idParam string) (*database.Resume, error) {
	resumeID, err := strconv.ParseUint(idParam, 10, 64)
	if err != nil || resumeID == 0 {
		return nil, errInvalidResumeID
	}

	var record database.Resume
	if err := h.db.WithContext(ctx).First(&record, uint(resumeID)).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func newResumeResponse(record database.Resume) resumeResponse {
	return resumeResponse{
		ID:        record.ID,
		Title:     record.Title,
		Content:   record.Content,
		PresetID:  record.PresetID,
		Status:    record.Status,
		HasPDF:    record.PdfObjectKey != "",
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}
