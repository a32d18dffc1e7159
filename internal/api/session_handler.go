package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fitResume/internal/api/middleware"
	"fitResume/internal/drafts"
	"fitResume/internal/fit"
	"fitResume/internal/layout"
	"fitResume/internal/resume"
	"fitResume/internal/session"
	"fitResume/internal/wizard"
)

// SessionHandler 把编辑会话的事件转发到 Hub。所有修改都在会话自己的 Loop 上执行。
type SessionHandler struct {
	hub *session.Hub
	now func() time.Time
}

func NewSessionHandler(hub *session.Hub) *SessionHandler {
	return &SessionHandler{hub: hub, now: time.Now}
}

type createSessionRequest struct {
	Document json.RawMessage `json:"document"`
	// DraftKey 是草稿的归属标识，用于恢复草稿与导入结果。
	DraftKey string `json:"draftKey"`
}

type editRequest struct {
	Ops []session.EditOp `json:"ops" binding:"required,min=1,dive"`
}

type viewportRequest struct {
	Width  float64 `json:"width" binding:"gt=0"`
	Height float64 `json:"height" binding:"gt=0"`
}

type presetRequest struct {
	PresetID string `json:"presetId"`
	Index    *int   `json:"index"`
}

type autoRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// CreateSession 创建会话：显式文档优先，其次按 draftKey 恢复导入结果或草稿，最后为空白文档。
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, err.Error())
			return
		}
	}
	if req.DraftKey != "" {
		if err := drafts.CheckKey(req.DraftKey); err != nil {
			BadRequest(c, "invalid draft key")
			return
		}
	}

	create := session.CreateRequest{Owner: req.DraftKey}
	if len(req.Document) > 0 && string(req.Document) != "null" {
		doc, err := resume.Decode(req.Document)
		if err != nil {
			ErrorWithCode(c, http.StatusBadRequest, "invalid resume content", 0, err.Error())
			return
		}
		create.Document = &doc
	}

	created, err := h.hub.Create(c.Request.Context(), create)
	if err != nil {
		h.fail(c, err)
		return
	}
	middleware.LoggerFromContext(c).Info("session started",
		slog.String("session_id", created.State.ID),
		slog.String("source", string(created.Source)),
	)
	c.JSON(http.StatusCreated, gin.H{"state": created.State, "source": created.Source})
}

// GetSession 返回会话状态。
func (h *SessionHandler) GetSession(c *gin.Context) {
	h.respond(c, nil)
}

// GetDocument 返回会话当前文档。
func (h *SessionHandler) GetDocument(c *gin.Context) {
	doc, err := h.hub.Document(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// EditDocument 原子地应用一组编辑操作。
func (h *SessionHandler) EditDocument(c *gin.Context) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	now := h.now()
	h.respond(c, func(s *session.Session) error {
		return s.ApplyEdits(req.Ops, now)
	})
}

// ReplaceDocument 整体替换文档，例如接受一次润色结果。
func (h *SessionHandler) ReplaceDocument(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		BadRequest(c, "failed to read body")
		return
	}
	doc, err := resume.Decode(raw)
	if err != nil {
		ErrorWithCode(c, http.StatusBadRequest, "invalid resume content", 0, err.Error())
		return
	}
	h.respond(c, func(s *session.Session) error {
		s.Replace(doc)
		return nil
	})
}

// SetViewport 更新视口尺寸。
func (h *SessionHandler) SetViewport(c *gin.Context) {
	var req viewportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	h.respond(c, func(s *session.Session) error {
		s.SetViewport(layout.Viewport{Width: req.Width, Height: req.Height})
		return nil
	})
}

// SelectPreset 手动选择预设，低于有效下限时返回 409。
func (h *SessionHandler) SelectPreset(c *gin.Context) {
	var req presetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if req.PresetID == "" && req.Index == nil {
		BadRequest(c, "presetId or index is required")
		return
	}
	h.respond(c, func(s *session.Session) error {
		if req.PresetID != "" {
			return s.SelectPresetID(req.PresetID)
		}
		return s.SelectPreset(*req.Index)
	})
}

// SetAuto 打开或关闭自动排版。
func (h *SessionHandler) SetAuto(c *gin.Context) {
	var req autoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	h.respond(c, func(s *session.Session) error {
		s.SetAuto(*req.Enabled)
		return nil
	})
}

// Navigate 执行一次向导导航。
func (h *SessionHandler) Navigate(c *gin.Context) {
	var req session.Navigation
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	h.respond(c, func(s *session.Session) error {
		return s.Navigate(req)
	})
}

// CloseSession 写出草稿并结束会话。
func (h *SessionHandler) CloseSession(c *gin.Context) {
	if err := h.hub.Close(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) respond(c *gin.Context, fn func(*session.Session) error) {
	st, err := h.hub.Do(c.Request.Context(), c.Param("id"), fn)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *SessionHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		NotFound(c, "session not found")
	case errors.Is(err, session.ErrHubClosed):
		Unavailable(c, "server is shutting down")
	case errors.Is(err, fit.ErrBelowValidFloor):
		Conflict(c, fit.ErrBelowValidFloor.Error())
	case errors.Is(err, fit.ErrPresetOutOfRange),
		errors.Is(err, session.ErrUnknownPreset),
		errors.Is(err, session.ErrUnknownEdit),
		errors.Is(err, session.ErrUnknownNavigation),
		errors.Is(err, wizard.ErrUnknownFragment),
		errors.Is(err, resume.ErrUnknownField),
		errors.Is(err, resume.ErrIndexOutOfRange),
		errors.Is(err, resume.ErrUnknownSkillKind),
		errors.Is(err, resume.ErrInvalidValue):
		BadRequest(c, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		Error(c, http.StatusGatewayTimeout, "session busy")
	default:
		middleware.LoggerFromContext(c).Error("session request failed", slog.Any("error", err))
		Internal(c, "session request failed")
	}
}
