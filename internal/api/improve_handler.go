package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"fitResume/internal/api/middleware"
	"fitResume/internal/errcode"
	"fitResume/internal/improve"
	"fitResume/internal/resume"
	"fitResume/internal/session"
)

// Improver 调用大模型润色简历。
type Improver interface {
	Improve(ctx context.Context, req improve.Request) (improve.Result, error)
}

// ImproveHandler 处理润色请求。带 sessionId 时文档取自会话，
// apply 为 true 时把结果写回会话，会话随之重新排版。
type ImproveHandler struct {
	improver  Improver
	hub       *session.Hub
	validator *validator.Validate
}

func NewImproveHandler(improver Improver, hub *session.Hub) *ImproveHandler {
	return &ImproveHandler{
		improver:  improver,
		hub:       hub,
		validator: validator.New(),
	}
}

type improveRequest struct {
	Resume              *resume.Document `json:"resume"`
	SessionID           string           `json:"sessionId" validate:"omitempty,uuid"`
	Apply               bool             `json:"apply"`
	JobDescription      string           `json:"jobDescription" validate:"max=20000,required_if=GenerateFromScratch true"`
	Section             string           `json:"section" validate:"omitempty,oneof=personal summary experience education skills"`
	Field               string           `json:"field" validate:"max=64"`
	Identifier          string           `json:"identifier" validate:"max=64"`
	CustomPrompt        string           `json:"customPrompt" validate:"max=2000"`
	GenerateFromScratch bool             `json:"generateFromScratch"`
}

// Improve 执行一次润色。
func (h *ImproveHandler) Improve(c *gin.Context) {
	if h.improver == nil {
		Unavailable(c, "improve unavailable")
		return
	}
	var req improveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		BadRequest(c, validationMessage(err))
		return
	}
	if req.Apply && req.SessionID == "" {
		BadRequest(c, "sessionId is required to apply the result")
		return
	}
	if req.SessionID != "" && h.hub == nil {
		Unavailable(c, "sessions unavailable")
		return
	}

	ctx := c.Request.Context()
	if req.Resume == nil && req.SessionID != "" {
		doc, err := h.hub.Document(ctx, req.SessionID)
		if err != nil {
			if errors.Is(err, session.ErrSessionNotFound) {
				NotFound(c, "session not found")
				return
			}
			Internal(c, "failed to read session document")
			return
		}
		req.Resume = &doc
	}

	ireq := improve.Request{
		Document:            req.Resume,
		JobDescription:      req.JobDescription,
		Section:             req.Section,
		Field:               req.Field,
		Identifier:          req.Identifier,
		Instruction:         req.CustomPrompt,
		GenerateFromScratch: req.GenerateFromScratch,
	}
	result, err := h.improver.Improve(ctx, ireq)
	if err != nil {
		var svcErr *improve.ServiceError
		switch {
		case errors.Is(err, improve.ErrDocumentRequired):
			BadRequest(c, "Resume data is required")
		case errors.As(err, &svcErr):
			middleware.LoggerFromContext(c).Warn("improvement failed", slog.Any("error", err))
			c.JSON(http.StatusBadGateway, gin.H{
				"error":     svcErr.Message,
				"code":      errcode.UpstreamFailed,
				"retryable": svcErr.Retryable(),
			})
		default:
			Internal(c, "improvement failed")
		}
		return
	}

	if !req.Apply {
		c.JSON(http.StatusOK, gin.H{"result": result})
		return
	}

	var applyErr error
	st, err := h.hub.Do(ctx, req.SessionID, func(s *session.Session) error {
		next, err := improve.Apply(s.Document(), ireq, result)
		if err != nil {
			applyErr = err
			return nil
		}
		s.Replace(next)
		return nil
	})
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			NotFound(c, "session not found")
			return
		}
		Internal(c, "failed to apply improvement")
		return
	}
	if applyErr != nil {
		BadRequest(c, applyErr.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result, "state": st})
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		ve := verrs[0]
		return fmt.Sprintf("validation error: %s - %s", ve.Field(), ve.Tag())
	}
	return "validation error: invalid request"
}
