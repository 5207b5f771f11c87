package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/enrich"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/export"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/generator"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/theme"
	"github.com/yungbote/lecturenotes-backend/internal/platform/envutil"
	"github.com/yungbote/lecturenotes-backend/internal/platform/gcp"
	"github.com/yungbote/lecturenotes-backend/internal/platform/gemini"
	"github.com/yungbote/lecturenotes-backend/internal/platform/logger"
	"github.com/yungbote/lecturenotes-backend/internal/platform/openai"
	"github.com/yungbote/lecturenotes-backend/internal/platform/rediscache"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	Port           string
	LogMode        string
	LogFilePath    string
	Environment    string
	Version        string
	AllowedOrigins []string
	InitialTheme   theme.Theme

	// LocalSources lets transcript refs name local files and private hosts. Never set for
	// the HTTP server.
	LocalSources bool

	LLMProvider       string
	GenerationTimeout time.Duration
	OpenAI            openai.Config
	Gemini            gemini.Config

	IllustrationsEnabled    bool
	IllustrationProvider    string
	IllustrationTimeout     time.Duration
	IllustrationConcurrency int
	IllustrationCacheTTL    time.Duration
	Bucket                  gcp.BucketConfig
	BucketEnabled           bool
	Redis                   rediscache.Config

	CaptureScale float64
	CaptureWidth int
	FontRegular  string
}

// LoadDotEnv reads .env from the working directory when present.
func LoadDotEnv(log *logger.Logger) {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	if err := godotenv.Load(); err != nil && log != nil {
		log.Warn("failed to load .env", "error", err)
	}
}

func LoadConfig() Config {
	cfg := Config{
		Port:           envutil.String("PORT", "8080"),
		LogMode:        envutil.String("LOG_MODE", "development"),
		LogFilePath:    envutil.String("LOG_FILE_PATH", ""),
		Environment:    envutil.String("APP_ENV", "development"),
		Version:        envutil.String("APP_VERSION", ""),
		AllowedOrigins: splitList(envutil.String("CORS_ALLOW_ORIGINS", "")),
		InitialTheme:   theme.Default,

		LLMProvider:       strings.ToLower(envutil.String("NOTES_LLM_PROVIDER", ProviderGemini)),
		GenerationTimeout: envutil.Seconds("NOTES_GENERATION_TIMEOUT_SECONDS", generator.DefaultTimeout),
		OpenAI:            openai.ConfigFromEnv(),
		Gemini:            gemini.ConfigFromEnv(),

		IllustrationsEnabled:    envutil.Bool("NOTES_ILLUSTRATIONS_ENABLED", true),
		IllustrationTimeout:     envutil.Seconds("NOTES_ILLUSTRATION_TIMEOUT_SECONDS", enrich.DefaultItemTimeout),
		IllustrationConcurrency: envutil.Int("NOTES_ILLUSTRATION_CONCURRENCY", 0),
		IllustrationCacheTTL:    envutil.Seconds("ILLUSTRATION_CACHE_TTL_SECONDS", 24*time.Hour),
		Redis: rediscache.Config{
			Addr:      envutil.String("REDIS_ADDR", ""),
			Password:  envutil.String("REDIS_PASSWORD", ""),
			DB:        envutil.Int("REDIS_DB", 0),
			KeyPrefix: envutil.String("REDIS_KEY_PREFIX", "lecturenotes"),
		},

		CaptureScale: envutil.Float("NOTES_CAPTURE_SCALE", export.DefaultScale),
		CaptureWidth: envutil.Int("NOTES_CAPTURE_WIDTH", export.DefaultWidth),
		FontRegular:  envutil.String("NOTES_FONT_REGULAR", ""),
	}
	cfg.IllustrationProvider = strings.ToLower(envutil.String("NOTES_IMAGE_PROVIDER", cfg.LLMProvider))
	if t, ok := theme.Parse(envutil.String("NOTES_DEFAULT_THEME", "")); ok {
		cfg.InitialTheme = t
	}
	cfg.Bucket, cfg.BucketEnabled = gcp.BucketConfigFromEnv()
	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
