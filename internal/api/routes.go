package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fitResume/internal/density"
	"fitResume/internal/drafts"
	"fitResume/internal/session"
	"fitResume/internal/storage"
)

// Deps 汇总 HTTP 层依赖。Redis 相关字段为 nil 时对应功能降级：
// 不限流，WebSocket 不转发导出通知。
type Deps struct {
	DB       *gorm.DB
	Queue    Enqueuer
	Storage  storage.ObjectStore
	Drafts   drafts.Store
	Hub      *session.Hub
	Ladder   *density.Ladder
	Importer Importer
	Improver Improver
	Scanner  Scanner
	Notifier Subscriber
	Counter  redisRateCounter
	Logger   *slog.Logger

	AllowedOrigins []string
	MaxUploadBytes int64
	ExportMaxRetry int
	// LLMRateLimit 是每个 IP 每分钟可调用导入与润色接口的次数，0 表示不限。
	LLMRateLimit int64
}

// RegisterRoutes 注册 API 路由，不包含 /api 前缀。
func RegisterRoutes(router *gin.Engine, deps Deps) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	resumeHandler := NewResumeHandler(deps.DB, deps.Queue, deps.Storage, deps.Ladder, deps.ExportMaxRetry)
	draftHandler := NewDraftHandler(deps.Drafts)
	sessionHandler := NewSessionHandler(deps.Hub)
	wsHandler := NewWsHandler(deps.Hub, deps.Notifier, deps.Logger, deps.AllowedOrigins)
	importHandler := NewImportHandler(deps.Importer, deps.Scanner, deps.Storage, deps.DB, deps.Drafts, deps.MaxUploadBytes)
	improveHandler := NewImproveHandler(deps.Improver, deps.Hub)
	llmLimit := rateLimit(deps.Counter, "llm", deps.LLMRateLimit, time.Minute)

	v1 := router.Group("/v1")
	{
		resumeGroup := v1.Group("/resumes")
		{
			resumeGroup.POST("", resumeHandler.CreateResume)
			resumeGroup.GET("/:id", resumeHandler.GetResume)
			resumeGroup.PUT("/:id", resumeHandler.UpdateResume)
			resumeGroup.DELETE("/:id", resumeHandler.DeleteResume)
			resumeGroup.POST("/:id/export", resumeHandler.ExportResume)
			resumeGroup.GET("/:id/download-link", resumeHandler.GetDownloadLink)
		}

		draftGroup := v1.Group("/drafts")
		{
			draftGroup.GET("/:key", draftHandler.GetDraft)
			draftGroup.PUT("/:key", draftHandler.PutDraft)
			draftGroup.DELETE("/:key", draftHandler.DeleteDraft)
		}

		sessionGroup := v1.Group("/sessions")
		{
			sessionGroup.POST("", sessionHandler.CreateSession)
			sessionGroup.GET("/:id", sessionHandler.GetSession)
			sessionGroup.GET("/:id/document", sessionHandler.GetDocument)
			sessionGroup.PATCH("/:id/document", sessionHandler.EditDocument)
			sessionGroup.PUT("/:id/document", sessionHandler.ReplaceDocument)
			sessionGroup.POST("/:id/viewport", sessionHandler.SetViewport)
			sessionGroup.POST("/:id/preset", sessionHandler.SelectPreset)
			sessionGroup.POST("/:id/auto", sessionHandler.SetAuto)
			sessionGroup.POST("/:id/navigate", sessionHandler.Navigate)
			sessionGroup.DELETE("/:id", sessionHandler.CloseSession)
			sessionGroup.GET("/:id/ws", wsHandler.HandleConnection)
		}

		v1.POST("/import", llmLimit, importHandler.Import)
		v1.POST("/improve", llmLimit, improveHandler.Improve)
	}
}
