package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fitResume/internal/api/middleware"
	"fitResume/internal/database"
	"fitResume/internal/drafts"
	"fitResume/internal/errcode"
	"fitResume/internal/importer"
	"fitResume/internal/metrics"
	"fitResume/internal/storage"
)

const defaultMaxUploadBytes = 10 << 20

// Importer 把上传文件转换为简历文档。
type Importer interface {
	Import(ctx context.Context, contentType string, data []byte) (importer.Result, error)
}

// Scanner 对上传内容做病毒扫描，*clamd.Clamd 满足该接口。
type Scanner interface {
	ScanStream(r io.Reader, abortChan chan bool) (chan *clamd.ScanResult, error)
}

// ImportHandler 处理简历文件导入：扫描、保存原件、提取与结构化，
// 带 draft_key 时把结果暂存为导入草稿，下次创建会话时优先使用。
type ImportHandler struct {
	importer Importer
	scanner  Scanner
	storage  storage.ObjectStore
	db       *gorm.DB
	drafts   drafts.Store
	maxBytes int64
}

func NewImportHandler(im Importer, scanner Scanner, store storage.ObjectStore, db *gorm.DB, draftStore drafts.Store, maxBytes int64) *ImportHandler {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &ImportHandler{
		importer: im,
		scanner:  scanner,
		storage:  store,
		db:       db,
		drafts:   draftStore,
		maxBytes: maxBytes,
	}
}

// Import 处理 multipart 上传的 file 字段。
func (h *ImportHandler) Import(c *gin.Context) {
	log := middleware.LoggerFromContext(c)
	if h.importer == nil {
		Unavailable(c, "import unavailable")
		return
	}

	draftKey := c.PostForm("draft_key")
	if draftKey != "" {
		if err := drafts.CheckKey(draftKey); err != nil {
			BadRequest(c, "invalid draft key")
			return
		}
	}

	file, err := c.FormFile("file")
	if err != nil {
		metrics.ObserveImport("rejected")
		BadRequest(c, "No file provided")
		return
	}
	if file.Size > h.maxBytes {
		metrics.ObserveImport("rejected")
		Error(c, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	reader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}
	data, err := io.ReadAll(io.LimitReader(reader, h.maxBytes+1))
	reader.Close()
	if err != nil {
		Internal(c, "failed to read file")
		return
	}
	if int64(len(data)) > h.maxBytes {
		metrics.ObserveImport("rejected")
		Error(c, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	contentType := file.Header.Get("Content-Type")
	if _, err := importer.DetectKind(contentType, data); err != nil {
		metrics.ObserveImport("rejected")
		BadRequest(c, importer.MsgInvalidType)
		return
	}

	if h.scanner != nil {
		clean, err := h.scan(data)
		if err != nil {
			log.Error("scan file", slog.Any("error", err))
			Internal(c, "failed to scan file")
			return
		}
		if !clean {
			metrics.ObserveImport("rejected")
			BadRequest(c, "malicious file detected")
			return
		}
	}

	h.storeOriginal(c, file.Filename, contentType, data, draftKey)

	result, err := h.importer.Import(c.Request.Context(), contentType, data)
	if err != nil {
		metrics.ObserveImport("failed")
		h.fail(c, err)
		return
	}
	if result.InsufficientText {
		metrics.ObserveImport("insufficient")
		c.JSON(http.StatusOK, result)
		return
	}

	if draftKey != "" && h.drafts != nil && result.Document != nil {
		key := drafts.Namespaced(draftKey, drafts.UploadKey)
		if raw, err := json.Marshal(result.Document); err != nil {
			log.Warn("encode imported resume", slog.Any("error", err))
		} else if err := h.drafts.Save(c.Request.Context(), key, raw); err != nil {
			log.Warn("store imported resume", slog.String("key", key), slog.Any("error", err))
		}
	}

	metrics.ObserveImport("ok")
	c.JSON(http.StatusOK, result)
}

func (h *ImportHandler) scan(data []byte) (bool, error) {
	abortChan := make(chan bool)
	defer close(abortChan)
	scanChan, err := h.scanner.ScanStream(bytes.NewReader(data), abortChan)
	if err != nil {
		return false, err
	}
	clean := true
	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			clean = false
		}
	}
	return clean, nil
}

// storeOriginal 尽力保存原件，失败不影响导入本身。
func (h *ImportHandler) storeOriginal(c *gin.Context, fileName, contentType string, data []byte, draftKey string) {
	if h.storage == nil {
		return
	}
	log := middleware.LoggerFromContext(c)
	ctx := c.Request.Context()
	objectKey := storage.UploadKey(fileName)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if _, err := h.storage.UploadFile(ctx, objectKey, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		log.Warn("upload original file", slog.Any("error", err))
		return
	}
	if h.db == nil {
		return
	}
	record := database.Upload{
		ObjectKey:   objectKey,
		FileName:    storage.SanitizeFileName(fileName),
		ContentType: contentType,
		Size:        int64(len(data)),
		DraftKey:    draftKey,
	}
	if err := h.db.WithContext(ctx).Create(&record).Error; err != nil {
		log.Warn("record upload", slog.String("object_key", objectKey), slog.Any("error", err))
	}
}

func (h *ImportHandler) fail(c *gin.Context, err error) {
	var extractErr *importer.ExtractionError
	switch {
	case errors.As(err, &extractErr):
		ErrorWithCode(c, http.StatusBadRequest, extractErr.Message, errcode.InsufficientText, extractErr.Details)
	case errors.Is(err, importer.ErrUnsupportedType):
		BadRequest(c, importer.MsgInvalidType)
	case errors.Is(err, importer.ErrStructure):
		ErrorWithCode(c, http.StatusBadGateway, "Failed to structure resume data", errcode.UpstreamFailed, err.Error())
	default:
		middleware.LoggerFromContext(c).Error("import failed", slog.Any("error", err))
		ErrorWithCode(c, http.StatusBadGateway, "Failed to process resume", errcode.UpstreamFailed, "")
	}
}
