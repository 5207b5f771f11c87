package app

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/theme"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/transcript"
	"github.com/yungbote/lecturenotes-backend/internal/platform/logger"
)

func clearNotesEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "NOTES_LLM_PROVIDER", "NOTES_IMAGE_PROVIDER", "NOTES_DEFAULT_THEME", "CORS_ALLOW_ORIGINS",
		"NOTES_ILLUSTRATIONS_ENABLED", "ILLUSTRATION_GCS_BUCKET_NAME", "REDIS_ADDR",
		"NOTES_GENERATION_TIMEOUT_SECONDS", "NOTES_CAPTURE_SCALE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearNotesEnv(t)
	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ProviderGemini, cfg.LLMProvider)
	assert.Equal(t, ProviderGemini, cfg.IllustrationProvider)
	assert.Equal(t, theme.Dark, cfg.InitialTheme)
	assert.True(t, cfg.IllustrationsEnabled)
	assert.False(t, cfg.BucketEnabled)
	assert.Equal(t, 2.0, cfg.CaptureScale)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoadConfigOverrides(t *testing.T) {
	clearNotesEnv(t)
	t.Setenv("NOTES_LLM_PROVIDER", "OpenAI")
	t.Setenv("NOTES_IMAGE_PROVIDER", "gemini")
	t.Setenv("NOTES_DEFAULT_THEME", "light")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.test, ,https://b.test")
	t.Setenv("NOTES_GENERATION_TIMEOUT_SECONDS", "30")
	t.Setenv("ILLUSTRATION_GCS_BUCKET_NAME", "notes-bucket")

	cfg := LoadConfig()
	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, ProviderGemini, cfg.IllustrationProvider)
	assert.Equal(t, theme.Light, cfg.InitialTheme)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.GenerationTimeout)
	assert.True(t, cfg.BucketEnabled)
	assert.Equal(t, "notes-bucket", cfg.Bucket.Name)
}

func TestNewWithConfigWiresPipeline(t *testing.T) {
	clearNotesEnv(t)
	cfg := LoadConfig()
	cfg.Gemini.APIKey = "test-key"

	a, err := NewWithConfig(t.Context(), logger.Nop(), cfg)
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Services.Flow)
	require.NotNil(t, a.Services.Enricher)
	assert.Nil(t, a.Clients.Redis)
	assert.Nil(t, a.Clients.Bucket)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notes", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"input"`)
}

func TestNewWithConfigWithoutIllustrations(t *testing.T) {
	clearNotesEnv(t)
	cfg := LoadConfig()
	cfg.IllustrationsEnabled = false
	cfg.Gemini.APIKey = "test-key"

	a, err := NewWithConfig(t.Context(), logger.Nop(), cfg)
	require.NoError(t, err)
	defer a.Close()
	assert.Nil(t, a.Services.Enricher)
	assert.Nil(t, a.Clients.Images)
}

func TestNewWithConfigRequiresProviderKey(t *testing.T) {
	clearNotesEnv(t)
	cfg := LoadConfig()
	cfg.LLMProvider = ProviderOpenAI
	cfg.OpenAI.APIKey = ""

	_, err := NewWithConfig(t.Context(), logger.Nop(), cfg)
	require.Error(t, err)

	cfg.LLMProvider = "claude"
	cfg.Gemini.APIKey = "test-key"
	_, err = NewWithConfig(t.Context(), logger.Nop(), cfg)
	require.ErrorContains(t, err, "unknown model provider")
}

func TestServerWiringTreatsPathsAsText(t *testing.T) {
	clearNotesEnv(t)
	path := filepath.Join(t.TempDir(), "server.env")
	require.NoError(t, os.WriteFile(path, []byte("SECRET=1"), 0o600))

	cfg := LoadConfig()
	cfg.Gemini.APIKey = "test-key"
	a, err := NewWithConfig(t.Context(), logger.Nop(), cfg)
	require.NoError(t, err)
	defer a.Close()

	got, err := a.Services.Transcripts.Fetch(t.Context(), path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	_, err = a.Services.Transcripts.Fetch(t.Context(), "file://"+path)
	if !errors.Is(err, transcript.ErrLocalSource) {
		t.Fatalf("got=%v want=%v", err, transcript.ErrLocalSource)
	}
}

func TestLocalSourcesReadFiles(t *testing.T) {
	clearNotesEnv(t)
	path := filepath.Join(t.TempDir(), "lecture.txt")
	require.NoError(t, os.WriteFile(path, []byte("Vectors add tip to tail."), 0o600))

	cfg := LoadConfig()
	cfg.Gemini.APIKey = "test-key"
	cfg.LocalSources = true
	a, err := NewWithConfig(t.Context(), logger.Nop(), cfg)
	require.NoError(t, err)
	defer a.Close()

	got, err := a.Services.Transcripts.Fetch(t.Context(), path)
	require.NoError(t, err)
	assert.Equal(t, "Vectors add tip to tail.", got)
}
