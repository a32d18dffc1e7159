package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"fitResume/internal/api/middleware"
	"fitResume/internal/drafts"
	"fitResume/internal/resume"
)

const maxDraftBytes = 1 << 20

// DraftHandler 暴露草稿存储，供没有活跃会话的客户端直接读写。
type DraftHandler struct {
	store drafts.Store
}

func NewDraftHandler(store drafts.Store) *DraftHandler {
	return &DraftHandler{store: store}
}

// GetDraft 返回草稿文档，不存在时 404。
func (h *DraftHandler) GetDraft(c *gin.Context) {
	key, ok := h.draftKey(c)
	if !ok {
		return
	}
	data, found, err := h.store.Load(c.Request.Context(), key)
	if err != nil {
		middleware.LoggerFromContext(c).Warn("load draft failed", slog.String("key", key), slog.Any("error", err))
		Internal(c, "failed to load draft")
		return
	}
	if !found {
		NotFound(c, "draft not found")
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// PutDraft 校验并保存草稿。
func (h *DraftHandler) PutDraft(c *gin.Context) {
	key, ok := h.draftKey(c)
	if !ok {
		return
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDraftBytes+1))
	if err != nil {
		BadRequest(c, "failed to read body")
		return
	}
	if len(raw) > maxDraftBytes {
		Error(c, http.StatusRequestEntityTooLarge, "draft too large")
		return
	}
	doc, err := resume.Decode(raw)
	if err != nil {
		ErrorWithCode(c, http.StatusBadRequest, "invalid resume content", 0, err.Error())
		return
	}
	data, err := json.Marshal(doc)
	if err != nil {
		Internal(c, "failed to encode draft")
		return
	}
	if err := h.store.Save(c.Request.Context(), key, data); err != nil {
		middleware.LoggerFromContext(c).Warn("save draft failed", slog.String("key", key), slog.Any("error", err))
		Internal(c, "failed to save draft")
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteDraft 删除草稿，键不存在也视为成功。
func (h *DraftHandler) DeleteDraft(c *gin.Context) {
	key, ok := h.draftKey(c)
	if !ok {
		return
	}
	if err := h.store.Remove(c.Request.Context(), key); err != nil {
		Internal(c, "failed to delete draft")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DraftHandler) draftKey(c *gin.Context) (string, bool) {
	if h.store == nil {
		Unavailable(c, "draft storage unavailable")
		return "", false
	}
	key := c.Param("key")
	if err := drafts.CheckKey(key); err != nil {
		BadRequest(c, "invalid draft key")
		return "", false
	}
	return key, true
}
