package openai

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/lecturenotes-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, baseURL string) Client {
	t.Helper()
	temp := 0.2
	c, err := NewClient(logger.Nop(), Config{
		APIKey:      "sk-test",
		BaseURL:     baseURL,
		Model:       "gpt-test",
		ImageModel:  "gpt-image-1",
		Timeout:     5 * time.Second,
		MaxRetries:  2,
		Temperature: &temp,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestGenerateTextDropsRejectedTemperature(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		if n == 1 {
			if !strings.Contains(string(body), `"temperature"`) {
				t.Errorf("expected temperature on first call")
			}
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"Unsupported parameter: 'temperature' is not supported with this model."}}`))
			return
		}
		if strings.Contains(string(body), `"temperature"`) {
			t.Errorf("expected temperature to be omitted on retry")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"output": []any{map[string]any{
				"type": "message", "role": "assistant",
				"content": []any{map[string]any{"type": "output_text", "text": `{"title":"x"}`}},
			}},
		})
	}))
	defer srv.Close()

	got, err := newTestClient(t, srv.URL).GenerateText(t.Context(), "sys", "user")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if got != `{"title":"x"}` {
		t.Fatalf("unexpected text: got=%q", got)
	}
	if calls.Load() != 2 {
		t.Fatalf("unexpected call count: got=%d want=2", calls.Load())
	}
}

func TestGenerateTextRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"output":[{"type":"message","role":"assistant","content":[{"type":"output_text","text":"ok"}]}]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(t, srv.URL).GenerateText(t.Context(), "sys", "user")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if got != "ok" {
		t.Fatalf("unexpected text: got=%q want=%q", got, "ok")
	}
}

func TestGenerateImageDecodesB64(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/images/generations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []any{map[string]any{"b64_json": base64.StdEncoding.EncodeToString(png)}},
		})
	}))
	defer srv.Close()

	img, err := newTestClient(t, srv.URL).GenerateImage(t.Context(), "a cell diagram")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if string(img.Bytes) != string(png) || img.MimeType != "image/png" {
		t.Fatalf("unexpected image: bytes=%v mime=%s", img.Bytes, img.MimeType)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(logger.Nop(), Config{}); err == nil {
		t.Fatalf("expected missing key error")
	}
}
