package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 汇总服务运行所需的全部配置，来源为环境变量（可选 .env 文件）与默认值。
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Clamd    ClamdConfig    `mapstructure:"clamd"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Fit      FitConfig      `mapstructure:"fit"`
	Drafts   DraftsConfig   `mapstructure:"drafts"`
	Export   ExportConfig   `mapstructure:"export"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port           int           `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	SessionIdleTTL time.Duration `mapstructure:"session_idle_ttl"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig 包含 Redis 连接配置。
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr 返回 host:port 形式的地址。
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Bucket          string `mapstructure:"bucket"`
}

// ClamdConfig 控制上传文件的病毒扫描。
type ClamdConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// LLMConfig 描述 OCR 与文本结构化/润色所使用的模型服务。
type LLMConfig struct {
	Provider       string        `mapstructure:"provider"`
	Endpoint       string        `mapstructure:"endpoint"`
	OCRModel       string        `mapstructure:"ocr_model"`
	ReasoningModel string        `mapstructure:"reasoning_model"`
	ImproveModel   string        `mapstructure:"improve_model"`
	GeminiAPIKey   string        `mapstructure:"gemini_api_key"`
	GeminiModel    string        `mapstructure:"gemini_model"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// FitConfig 保存自动排版与镜头计算的经验常量。
type FitConfig struct {
	PageWidthPx          float64       `mapstructure:"page_width_px"`
	PageHeightPx         float64       `mapstructure:"page_height_px"`
	EpsilonPx            float64       `mapstructure:"epsilon_px"`
	PaddingFraction      float64       `mapstructure:"padding_fraction"`
	DesktopMinScale      float64       `mapstructure:"desktop_min_scale"`
	DesktopMaxScale      float64       `mapstructure:"desktop_max_scale"`
	MobileMinScale       float64       `mapstructure:"mobile_min_scale"`
	MobileMaxScale       float64       `mapstructure:"mobile_max_scale"`
	DesktopFallbackScale float64       `mapstructure:"desktop_fallback_scale"`
	MobileFallbackScale  float64       `mapstructure:"mobile_fallback_scale"`
	DesktopBreakpointPx  float64       `mapstructure:"desktop_breakpoint_px"`
	FrameInterval        time.Duration `mapstructure:"frame_interval"`
	AutosaveDebounce     time.Duration `mapstructure:"autosave_debounce"`
}

// DraftsConfig 选择草稿的持久化后端。
type DraftsConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// ExportConfig 选择 PDF 渲染器。
type ExportConfig struct {
	Renderer string `mapstructure:"renderer"`
}

// WorkerConfig 控制 asynq worker。
type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	MaxRetry    int `mapstructure:"max_retry"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Load reads configuration from environment variables (with optional defaults).
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// DefaultFit 返回与线上一致的排版常量，供测试与离线工具使用。
func DefaultFit() FitConfig {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg.Fit
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("api.session_idle_ttl", 30*time.Minute)
	v.SetDefault("api.max_upload_bytes", 10<<20)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "fitresume")
	v.SetDefault("database.user", "fitresume")
	v.SetDefault("database.password", "fitresume")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "resumes")
	v.SetDefault("clamd.enabled", false)
	v.SetDefault("clamd.address", "tcp://localhost:3310")
	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.endpoint", "http://localhost:11434")
	v.SetDefault("llm.ocr_model", "deepseek-ocr")
	v.SetDefault("llm.reasoning_model", "deepseek-r1:32b")
	v.SetDefault("llm.improve_model", "deepseek-r1:32b")
	v.SetDefault("llm.gemini_model", "gemini-1.5-flash")
	v.SetDefault("llm.timeout", 5*time.Minute)
	v.SetDefault("fit.page_width_px", 794.0)
	v.SetDefault("fit.page_height_px", 1123.0)
	v.SetDefault("fit.epsilon_px", 2.0)
	v.SetDefault("fit.padding_fraction", 0.85)
	v.SetDefault("fit.desktop_min_scale", 0.4)
	v.SetDefault("fit.desktop_max_scale", 1.1)
	v.SetDefault("fit.mobile_min_scale", 0.3)
	v.SetDefault("fit.mobile_max_scale", 2.5)
	v.SetDefault("fit.desktop_fallback_scale", 1.1)
	v.SetDefault("fit.mobile_fallback_scale", 0.35)
	v.SetDefault("fit.desktop_breakpoint_px", 1024.0)
	v.SetDefault("fit.frame_interval", 16*time.Millisecond)
	v.SetDefault("fit.autosave_debounce", 500*time.Millisecond)
	v.SetDefault("drafts.backend", "redis")
	v.SetDefault("drafts.ttl", 30*24*time.Hour)
	v.SetDefault("export.renderer", "canvas")
	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("worker.max_retry", 3)
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                   "API_PORT",
		"api.allowed_origins":        "API_ALLOWED_ORIGINS",
		"api.session_idle_ttl":       "API_SESSION_IDLE_TTL",
		"api.max_upload_bytes":       "API_MAX_UPLOAD_BYTES",
		"database.host":              "DATABASE_HOST",
		"database.port":              "DATABASE_PORT",
		"database.name":              "POSTGRES_DB",
		"database.user":              "POSTGRES_USER",
		"database.password":          "POSTGRES_PASSWORD",
		"database.sslmode":           "DATABASE_SSLMODE",
		"redis.host":                 "REDIS_HOST",
		"redis.port":                 "REDIS_PORT",
		"minio.endpoint":             "MINIO_ENDPOINT",
		"minio.access_key_id":        "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":    "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":              "MINIO_USE_SSL",
		"minio.bucket":               "MINIO_BUCKET",
		"clamd.enabled":              "CLAMD_ENABLED",
		"clamd.address":              "CLAMD_ADDRESS",
		"llm.provider":               "LLM_PROVIDER",
		"llm.endpoint":               "OLLAMA_URL",
		"llm.ocr_model":              "LLM_OCR_MODEL",
		"llm.reasoning_model":        "LLM_REASONING_MODEL",
		"llm.improve_model":          "LLM_IMPROVE_MODEL",
		"llm.gemini_api_key":         "GEMINI_API_KEY",
		"llm.gemini_model":           "GEMINI_MODEL",
		"llm.timeout":                "LLM_TIMEOUT",
		"fit.page_width_px":          "FIT_PAGE_WIDTH_PX",
		"fit.page_height_px":         "FIT_PAGE_HEIGHT_PX",
		"fit.epsilon_px":             "FIT_EPSILON_PX",
		"fit.padding_fraction":       "FIT_PADDING_FRACTION",
		"fit.desktop_min_scale":      "FIT_DESKTOP_MIN_SCALE",
		"fit.desktop_max_scale":      "FIT_DESKTOP_MAX_SCALE",
		"fit.mobile_min_scale":       "FIT_MOBILE_MIN_SCALE",
		"fit.mobile_max_scale":       "FIT_MOBILE_MAX_SCALE",
		"fit.desktop_fallback_scale": "FIT_DESKTOP_FALLBACK_SCALE",
		"fit.mobile_fallback_scale":  "FIT_MOBILE_FALLBACK_SCALE",
		"fit.desktop_breakpoint_px":  "FIT_DESKTOP_BREAKPOINT_PX",
		"fit.frame_interval":         "FIT_FRAME_INTERVAL",
		"fit.autosave_debounce":      "FIT_AUTOSAVE_DEBOUNCE",
		"drafts.backend":             "DRAFTS_BACKEND",
		"drafts.ttl":                 "DRAFTS_TTL",
		"export.renderer":            "EXPORT_RENDERER",
		"worker.concurrency":         "WORKER_CONCURRENCY",
		"worker.max_retry":           "WORKER_MAX_RETRY",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.Database.Host == "" {
		return errors.New("database host is required")
	}
	if cfg.Database.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if cfg.Database.Name == "" {
		return errors.New("database name is required")
	}
	if cfg.Database.User == "" {
		return errors.New("database user is required")
	}
	if cfg.Database.Password == "" {
		return errors.New("database password is required")
	}
	if cfg.Database.SSLMode == "" {
		return errors.New("database sslmode is required")
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}
	if cfg.MinIO.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if cfg.MinIO.AccessKeyID == "" {
		return errors.New("minio access key id is required")
	}
	if cfg.MinIO.SecretAccessKey == "" {
		return errors.New("minio secret access key is required")
	}
	if cfg.MinIO.Bucket == "" {
		return errors.New("minio bucket is required")
	}
	if cfg.Clamd.Enabled && cfg.Clamd.Address == "" {
		return errors.New("clamd address is required when scanning is enabled")
	}
	switch cfg.LLM.Provider {
	case "ollama":
		if cfg.LLM.Endpoint == "" {
			return errors.New("llm endpoint is required for ollama")
		}
	case "gemini":
		if cfg.LLM.GeminiAPIKey == "" {
			return errors.New("gemini api key is required")
		}
	default:
		return fmt.Errorf("unsupported llm provider %q", cfg.LLM.Provider)
	}
	if err := ValidateFit(cfg.Fit); err != nil {
		return err
	}
	switch cfg.Drafts.Backend {
	case "redis", "postgres":
	default:
		return fmt.Errorf("unsupported drafts backend %q", cfg.Drafts.Backend)
	}
	switch cfg.Export.Renderer {
	case "canvas", "browser":
	default:
		return fmt.Errorf("unsupported export renderer %q", cfg.Export.Renderer)
	}
	if cfg.Worker.Concurrency <= 0 {
		return errors.New("worker concurrency must be positive")
	}
	return nil
}

// ValidateFit 校验排版常量；epsilon 不允许为 0。
func ValidateFit(f FitConfig) error {
	if f.PageWidthPx <= 0 || f.PageHeightPx <= 0 {
		return errors.New("fit page size must be positive")
	}
	if f.EpsilonPx <= 0 {
		return errors.New("fit epsilon must be positive")
	}
	if f.PaddingFraction <= 0 || f.PaddingFraction > 1 {
		return errors.New("fit padding fraction must be in (0, 1]")
	}
	if f.DesktopMinScale <= 0 || f.DesktopMinScale > f.DesktopMaxScale {
		return errors.New("fit desktop scale range is invalid")
	}
	if f.MobileMinScale <= 0 || f.MobileMinScale > f.MobileMaxScale {
		return errors.New("fit mobile scale range is invalid")
	}
	if f.DesktopFallbackScale <= 0 || f.MobileFallbackScale <= 0 {
		return errors.New("fit fallback scales must be positive")
	}
	if f.FrameInterval <= 0 {
		return errors.New("fit frame interval must be positive")
	}
	return nil
}
