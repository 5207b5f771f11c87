package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/generator"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/illustrate"
	"github.com/yungbote/lecturenotes-backend/internal/platform/gcp"
	"github.com/yungbote/lecturenotes-backend/internal/platform/gemini"
	"github.com/yungbote/lecturenotes-backend/internal/platform/logger"
	"github.com/yungbote/lecturenotes-backend/internal/platform/openai"
	"github.com/yungbote/lecturenotes-backend/internal/platform/rediscache"
)

type Clients struct {
	Text   generator.TextModel
	Images illustrate.ImageModel
	Bucket gcp.BucketService
	Redis  rediscache.Store
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	var (
		openaiClient openai.Client
		geminiClient gemini.Client
	)
	needs := map[string]bool{cfg.LLMProvider: true}
	if cfg.IllustrationsEnabled {
		needs[cfg.IllustrationProvider] = true
	}
	for provider := range needs {
		switch provider {
		case ProviderOpenAI:
			c, err := openai.NewClient(log, cfg.OpenAI)
			if err != nil {
				return Clients{}, fmt.Errorf("init openai client: %w", err)
			}
			openaiClient = c
		case ProviderGemini:
			c, err := gemini.NewClient(log, cfg.Gemini)
			if err != nil {
				return Clients{}, fmt.Errorf("init gemini client: %w", err)
			}
			geminiClient = c
		default:
			return Clients{}, fmt.Errorf("unknown model provider %q", provider)
		}
	}

	if cfg.LLMProvider == ProviderOpenAI {
		out.Text = openaiClient
	} else {
		out.Text = geminiClient
	}
	if cfg.IllustrationsEnabled {
		if cfg.IllustrationProvider == ProviderOpenAI {
			out.Images = illustrate.FromOpenAI(openaiClient)
		} else {
			out.Images = illustrate.FromGemini(geminiClient)
		}
	}

	// Gcs
	if cfg.BucketEnabled {
		bucket, err := gcp.NewBucketService(ctx, log, cfg.Bucket)
		if err != nil {
			out.Close(log)
			return Clients{}, fmt.Errorf("init bucket client: %w", err)
		}
		out.Bucket = bucket
	}

	// Redis
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		store, err := rediscache.New(log, cfg.Redis)
		if err != nil {
			out.Close(log)
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		out.Redis = store
	}
	return out, nil
}

func (c Clients) Close(log *logger.Logger) {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Warn("redis close failed", "error", err)
		}
	}
	if c.Bucket != nil {
		if err := c.Bucket.Close(); err != nil {
			log.Warn("bucket close failed", "error", err)
		}
	}
}
