package illustrate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/yungbote/lecturenotes-backend/internal/platform/logger"
)

// Illustrator resolves an image description into a loadable image URL.
type Illustrator interface {
	GenerateIllustration(ctx context.Context, prompt string) (string, error)
}

const promptStyle = "A minimalist, clean, educational illustration for a digital notebook. Style: simple lines, pastel colors, clear subject. Prompt: %s"

// Decorate applies the notebook illustration style to a description.
func Decorate(description string) string {
	return fmt.Sprintf(promptStyle, strings.TrimSpace(description))
}

type Service struct {
	log   *logger.Logger
	model ImageModel
	host  Host
	cache Cache
}

// NewService wires a model with optional host and cache. A nil host inlines data URLs.
func NewService(log *logger.Logger, model ImageModel, host Host, cache Cache) (*Service, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if model == nil {
		return nil, fmt.Errorf("image model required")
	}
	if host == nil {
		host = DataURLHost{}
	}
	return &Service{
		log:   log.With("service", "Illustrator"),
		model: model,
		host:  host,
		cache: cache,
	}, nil
}

func (s *Service) GenerateIllustration(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("illustration prompt required")
	}
	key := promptKey(prompt)
	if s.cache != nil {
		if url, ok := s.cache.Get(ctx, key); ok {
			s.log.Debug("illustration cache hit", "key", key)
			return url, nil
		}
	}

	img, err := s.model.GenerateImage(ctx, Decorate(prompt))
	if err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}
	if len(img.Bytes) == 0 {
		return "", fmt.Errorf("no image was generated")
	}
	url, err := s.host.Host(ctx, key, img)
	if err != nil {
		return "", fmt.Errorf("host image: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, url)
	}
	return url, nil
}

func promptKey(prompt string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(prompt)))
	return hex.EncodeToString(sum[:16])
}
