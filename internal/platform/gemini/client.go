package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/lecturenotes-backend/internal/platform/envutil"
	"github.com/yungbote/lecturenotes-backend/internal/platform/httpx"
	"github.com/yungbote/lecturenotes-backend/internal/platform/logger"
)

type Image struct {
	Bytes    []byte
	MimeType string
}

type Client interface {
	GenerateText(ctx context.Context, system string, user string) (string, error)
	GenerateImage(ctx context.Context, prompt string) (Image, error)
}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	ImageModel  string
	AspectRatio string
	Timeout     time.Duration
	MaxRetries  int
}

// ConfigFromEnv reads GEMINI_* variables.
func ConfigFromEnv() Config {
	return Config{
		APIKey:      envutil.String("GEMINI_API_KEY", ""),
		BaseURL:     envutil.String("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		Model:       envutil.String("GEMINI_MODEL", "gemini-2.5-flash"),
		ImageModel:  envutil.String("GEMINI_IMAGE_MODEL", "imagen-4.0-generate-001"),
		AspectRatio: envutil.String("GEMINI_IMAGE_ASPECT_RATIO", "4:3"),
		Timeout:     envutil.Seconds("GEMINI_TIMEOUT_SECONDS", 180*time.Second),
		MaxRetries:  envutil.Int("GEMINI_MAX_RETRIES", 3),
	}
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 180 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &client{
		log:        log.With("service", "GeminiClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateContentRequest struct {
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
	Contents          []content `json:"contents"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

func (c *client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	req := generateContentRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: user}}}},
	}
	if strings.TrimSpace(system) != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}

	var resp generateContentResponse
	path := fmt.Sprintf("/v1beta/models/%s:generateContent", c.cfg.Model)
	if err := c.do(ctx, path, req, &resp); err != nil {
		return "", err
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	var out strings.Builder
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			out.WriteString(p.Text)
		}
		if out.Len() > 0 {
			break
		}
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", errors.New("no text in gemini response")
	}
	return out.String(), nil
}

type predictRequest struct {
	Instances  []map[string]string `json:"instances"`
	Parameters map[string]any      `json:"parameters"`
}

type predictResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
}

// GenerateImage calls the Imagen predict endpoint for one image.
func (c *client) GenerateImage(ctx context.Context, prompt string) (Image, error) {
	var out Image
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return out, errors.New("image prompt required")
	}
	params := map[string]any{
		"sampleCount":    1,
		"outputMimeType": "image/png",
	}
	if ar := strings.TrimSpace(c.cfg.AspectRatio); ar != "" {
		params["aspectRatio"] = ar
	}
	req := predictRequest{
		Instances:  []map[string]string{{"prompt": prompt}},
		Parameters: params,
	}

	var resp predictResponse
	path := fmt.Sprintf("/v1beta/models/%s:predict", c.cfg.ImageModel)
	if err := c.do(ctx, path, req, &resp); err != nil {
		return out, err
	}
	if len(resp.Predictions) == 0 {
		return out, errors.New("no image was generated")
	}
	raw, err := base64.StdEncoding.DecodeString(resp.Predictions[0].BytesBase64Encoded)
	if err != nil || len(raw) == 0 {
		return out, fmt.Errorf("decode image base64: %w", err)
	}
	out.Bytes = raw
	out.MimeType = resp.Predictions[0].MimeType
	if out.MimeType == "" {
		out.MimeType = "image/png"
	}
	return out, nil
}

func (c *client) do(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	backoff := 1 * time.Second
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		resp, raw, err := c.doOnce(ctx, path, payload)
		if err == nil {
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("gemini decode error: %w", uErr)
			}
			return nil
		}
		if !httpx.IsRetryableError(err) || attempt == c.cfg.MaxRetries {
			return err
		}
		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("Gemini request retrying", "path", path, "attempt", attempt+1, "sleep", sleepFor.String(), "error", err.Error())
		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return err
		}
		backoff *= 2
	}
	return fmt.Errorf("unreachable retry loop")
}

func (c *client) doOnce(ctx context.Context, path string, payload []byte) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode != http.StatusOK {
		return resp, raw, &httpx.StatusError{Service: "gemini", StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}
