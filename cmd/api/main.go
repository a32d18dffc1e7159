package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"fitResume/internal/api"
	"fitResume/internal/camera"
	"fitResume/internal/config"
	"fitResume/internal/database"
	"fitResume/internal/density"
	"fitResume/internal/drafts"
	"fitResume/internal/fit"
	"fitResume/internal/importer"
	"fitResume/internal/improve"
	"fitResume/internal/llm"
	"fitResume/internal/session"
	"fitResume/internal/storage"
	"fitResume/internal/typeset"
)

const (
	shutdownTimeout = 15 * time.Second
	llmRateLimit    = 20
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	logger.Info("api bootstrapped",
		slog.String("db_host", cfg.Database.Host),
		slog.Int("db_port", cfg.Database.Port),
		slog.String("db_name", cfg.Database.Name),
		slog.String("llm_provider", cfg.LLM.Provider),
		slog.String("drafts_backend", cfg.Drafts.Backend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}
	logger.Info("database ready")

	redisAddr := cfg.Redis.Addr()
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	var draftStore drafts.Store
	switch cfg.Drafts.Backend {
	case "postgres":
		draftStore = drafts.NewGormStore(db, cfg.Drafts.TTL)
	default:
		draftStore = drafts.NewRedisStore(redisClient, "drafts:", cfg.Drafts.TTL)
	}

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

	queue := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	defer queue.Close()

	llmClient, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		log.Fatalf("init llm client: %v", err)
	}

	var scanner api.Scanner
	if cfg.Clamd.Enabled {
		c := clamd.NewClamd(cfg.Clamd.Address)
		if err := c.Ping(); err != nil {
			logger.Warn("clamd unreachable, uploads will fail until it is back", slog.Any("error", err))
		}
		scanner = c
	}

	measurer, err := typeset.New(cfg.Fit.PageWidthPx, cfg.Fit.PageHeightPx)
	if err != nil {
		log.Fatalf("init typesetter: %v", err)
	}
	prober, err := fit.NewProber(cfg.Fit.EpsilonPx)
	if err != nil {
		log.Fatalf("init prober: %v", err)
	}

	hub := session.NewHub(session.HubConfig{
		Ladder:           density.Standard,
		Prober:           prober,
		Camera:           camera.New(cfg.Fit),
		Measurer:         measurer,
		Store:            draftStore,
		FrameInterval:    cfg.Fit.FrameInterval,
		AutosaveDebounce: cfg.Fit.AutosaveDebounce,
		IdleTTL:          cfg.API.SessionIdleTTL,
		Publisher:        redisClient,
		Logger:           logger,
	})

	router := api.NewRouter(logger, cfg.API.AllowedOrigins)
	api.RegisterRoutes(router, api.Deps{
		DB:             db,
		Queue:          queue,
		Storage:        storageClient,
		Drafts:         draftStore,
		Hub:            hub,
		Ladder:         density.Standard,
		Importer:       importer.New(llmClient, logger),
		Improver:       improve.New(llmClient, logger),
		Scanner:        scanner,
		Notifier:       redisClient,
		Counter:        redisClient,
		Logger:         logger,
		AllowedOrigins: cfg.API.AllowedOrigins,
		MaxUploadBytes: cfg.API.MaxUploadBytes,
		ExportMaxRetry: cfg.Worker.MaxRetry,
		LLMRateLimit:   llmRateLimit,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("api listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down api")
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("api stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("api stopped")
}
