package illustrate

import (
	"context"

	"github.com/yungbote/lecturenotes-backend/internal/platform/gemini"
	"github.com/yungbote/lecturenotes-backend/internal/platform/openai"
)

type Image struct {
	Bytes    []byte
	MimeType string
}

// ImageModel produces one raster image for a prompt.
type ImageModel interface {
	GenerateImage(ctx context.Context, prompt string) (Image, error)
}

type openAIModel struct{ c openai.Client }

func FromOpenAI(c openai.Client) ImageModel { return openAIModel{c: c} }

func (m openAIModel) GenerateImage(ctx context.Context, prompt string) (Image, error) {
	img, err := m.c.GenerateImage(ctx, prompt)
	if err != nil {
		return Image{}, err
	}
	return Image{Bytes: img.Bytes, MimeType: img.MimeType}, nil
}

type geminiModel struct{ c gemini.Client }

func FromGemini(c gemini.Client) ImageModel { return geminiModel{c: c} }

func (m geminiModel) GenerateImage(ctx context.Context, prompt string) (Image, error) {
	img, err := m.c.GenerateImage(ctx, prompt)
	if err != nil {
		return Image{}, err
	}
	return Image{Bytes: img.Bytes, MimeType: img.MimeType}, nil
}
