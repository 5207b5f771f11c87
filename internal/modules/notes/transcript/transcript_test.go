package transcript

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/lecturenotes-backend/internal/platform/logger"
)

func newRouter(t *testing.T) *Router {
	t.Helper()
	r, err := NewRouter(logger.Nop(), nil)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return r
}

func TestRouterInline(t *testing.T) {
	got, err := newRouter(t).Fetch(t.Context(), "  Today we cover entropy.  ")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got != "Today we cover entropy." {
		t.Fatalf("got=%q", got)
	}
}

func TestRouterEmpty(t *testing.T) {
	if _, err := newRouter(t).Fetch(t.Context(), "   "); !errors.Is(err, ErrEmpty) {
		t.Fatalf("got=%v want=%v", err, ErrEmpty)
	}
}

func TestRouterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lecture.txt")
	if err := os.WriteFile(path, []byte("Heat flows from hot to cold.\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	r, err := NewRouter(logger.Nop(), nil, WithFiles())
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	for _, ref := range []string{path, "file://" + path} {
		got, err := r.Fetch(t.Context(), ref)
		if err != nil {
			t.Fatalf("Fetch(%q): %v", ref, err)
		}
		if got != "Heat flows from hot to cold." {
			t.Fatalf("got=%q", got)
		}
	}
}

func TestRouterWithoutFilesNeverReadsDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(path, []byte("do not leak"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := newRouter(t)

	got, err := r.Fetch(t.Context(), path)
	if err != nil {
		t.Fatalf("Fetch(path): %v", err)
	}
	if got != path {
		t.Fatalf("path ref got=%q want=%q", got, path)
	}

	if _, err := r.Fetch(t.Context(), "file://"+path); !errors.Is(err, ErrLocalSource) {
		t.Fatalf("file ref got=%v want=%v", err, ErrLocalSource)
	}
}

func TestPublicClientRefusesLoopback(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte("internal metadata"))
	}))
	defer srv.Close()

	r, err := NewRouter(logger.Nop(), PublicClient(5*time.Second))
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	if _, err := r.Fetch(t.Context(), srv.URL); !errors.Is(err, ErrPrivateTarget) {
		t.Fatalf("got=%v want=%v", err, ErrPrivateTarget)
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Fatalf("server calls got=%d want=0", n)
	}
}

func TestIsPublic(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1":       false,
		"10.1.2.3":        false,
		"172.16.0.1":      false,
		"192.168.1.1":     false,
		"169.254.169.254": false,
		"100.64.0.1":      false,
		"0.0.0.0":         false,
		"::1":             false,
		"fe80::1":         false,
		"fd00::1":         false,
		"::ffff:10.0.0.1": false,
		"8.8.8.8":         true,
		"2606:4700::1111": true,
	}
	for in, want := range cases {
		if got := isPublic(netip.MustParseAddr(in)); got != want {
			t.Fatalf("isPublic(%s) got=%v want=%v", in, got, want)
		}
	}
}

func TestRouterHTTPRetriesTransientStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("WEBVTT\n\n1\n00:00:01.000 --> 00:00:03.000\nWelcome back.\n\n2\n00:00:03.000 --> 00:00:05.000\nWelcome back.\nToday: graphs.\n"))
	}))
	defer srv.Close()

	r := newRouter(t)
	r.HTTP = &HTTPSource{client: srv.Client(), maxRetries: 2}
	got, err := r.Fetch(t.Context(), srv.URL+"/captions.vtt")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got != "Welcome back.\nToday: graphs." {
		t.Fatalf("got=%q", got)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("calls got=%d want=2", n)
	}
}

func TestRouterHTTPNotFoundIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	r := newRouter(t)
	r.HTTP = &HTTPSource{client: srv.Client(), maxRetries: 3}
	if _, err := r.Fetch(t.Context(), srv.URL); err == nil {
		t.Fatalf("expected error")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("calls got=%d want=1", n)
	}
}

func TestNormalizeSRT(t *testing.T) {
	in := "1\r\n00:00:01,000 --> 00:00:02,000\r\nFirst line\r\n\r\n2\r\n00:00:02,000 --> 00:00:04,000\r\nSecond line\r\n"
	if got := Normalize(in); got != "First line\nSecond line" {
		t.Fatalf("got=%q", got)
	}
}
