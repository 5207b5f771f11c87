package transcript

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"os"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/yungbote/lecturenotes-backend/internal/platform/httpx"
	"github.com/yungbote/lecturenotes-backend/internal/platform/logger"
)

var (
	ErrEmpty         = errors.New("transcript is empty")
	ErrLocalSource   = errors.New("local transcript files are not accepted")
	ErrPrivateTarget = errors.New("transcript host resolves to a non-public address")
)

const maxTranscriptBytes = 8 << 20

// Source resolves a source reference into transcript text.
type Source interface {
	Fetch(ctx context.Context, ref string) (string, error)
}

// Router picks a source by the shape of ref: http(s) URLs are downloaded and anything else is
// taken as the transcript itself. With WithFiles, file:// URLs and existing paths are read
// from disk; without it file:// refs are rejected and paths are plain text.
type Router struct {
	log    *logger.Logger
	HTTP   Source
	File   Source
	Inline Source
}

type Option func(*Router)

// WithFiles lets the router read local files. Only trusted local callers should enable it.
func WithFiles() Option {
	return func(r *Router) { r.File = FileSource{} }
}

func NewRouter(log *logger.Logger, client *http.Client, opts ...Option) (*Router, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	r := &Router{
		log:    log.With("service", "TranscriptRouter"),
		HTTP:   NewHTTPSource(client, 3),
		Inline: InlineSource{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Router) Fetch(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrEmpty
	}
	var src Source
	kind := "inline"
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		src, kind = r.HTTP, "http"
	case r.File == nil && strings.HasPrefix(ref, "file://"):
		r.log.Warn("transcript fetch refused", "source_kind", "file")
		return "", ErrLocalSource
	case r.File != nil && (strings.HasPrefix(ref, "file://") || isFile(ref)):
		src, kind = r.File, "file"
	default:
		src = r.Inline
	}
	text, err := src.Fetch(ctx, ref)
	if err != nil {
		r.log.Warn("transcript fetch failed", "source_kind", kind, "error", err)
		return "", err
	}
	r.log.Debug("transcript fetched", "source_kind", kind, "chars", len(text))
	return text, nil
}

func isFile(ref string) bool {
	if strings.ContainsAny(ref, "\n\r") || len(ref) > 4096 {
		return false
	}
	st, err := os.Stat(ref)
	return err == nil && st.Mode().IsRegular()
}

type InlineSource struct{}

func (InlineSource) Fetch(_ context.Context, ref string) (string, error) {
	return nonEmpty(Normalize(ref))
}

type FileSource struct{}

func (FileSource) Fetch(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := strings.TrimPrefix(ref, "file://")
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(f, maxTranscriptBytes))
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	return nonEmpty(Normalize(string(raw)))
}

// PublicClient returns an HTTP client that only connects to public addresses. The check runs
// on the resolved address at dial time, so redirects and DNS rebinding are covered too.
func PublicClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   rejectNonPublic,
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: 10 * time.Second,
			MaxIdleConns:        16,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func rejectNonPublic(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return err
	}
	if !isPublic(ip) {
		return fmt.Errorf("%w: %s", ErrPrivateTarget, ip)
	}
	return nil
}

func isPublic(ip netip.Addr) bool {
	ip = ip.Unmap()
	return ip.IsValid() &&
		!ip.IsLoopback() &&
		!ip.IsPrivate() &&
		!ip.IsUnspecified() &&
		!ip.IsLinkLocalUnicast() &&
		!ip.IsLinkLocalMulticast() &&
		!ip.IsInterfaceLocalMulticast() &&
		!ip.IsMulticast() &&
		!cgnat.Contains(ip)
}

var cgnat = netip.MustParsePrefix("100.64.0.0/10")

type HTTPSource struct {
	client     *http.Client
	maxRetries int
}

func NewHTTPSource(client *http.Client, maxRetries int) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &HTTPSource{client: client, maxRetries: maxRetries}
}

func (s *HTTPSource) Fetch(ctx context.Context, ref string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		text, resp, err := s.fetchOnce(ctx, ref)
		if err == nil {
			return nonEmpty(Normalize(text))
		}
		lastErr = err
		if !httpx.IsRetryableError(err) || attempt == s.maxRetries {
			break
		}
		backoff := httpx.RetryAfterDuration(resp, time.Duration(1<<attempt)*time.Second, 10*time.Second)
		if serr := httpx.Sleep(ctx, httpx.JitterSleep(backoff)); serr != nil {
			return "", serr
		}
	}
	return "", lastErr
}

func (s *HTTPSource) fetchOnce(ctx context.Context, ref string) (string, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("Accept", "text/plain, text/vtt, application/x-subrip;q=0.9, */*;q=0.5")
	resp, err := s.client.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxTranscriptBytes))
	if err != nil {
		return "", resp, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", resp, &httpx.StatusError{Service: "transcript", StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return string(raw), resp, nil
}

func nonEmpty(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", ErrEmpty
	}
	return s, nil
}

var (
	cueTiming = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?[.,]\d{3}\s+-->\s+`)
	cueIndex  = regexp.MustCompile(`^\d+$`)
)

// Normalize strips WebVTT and SRT scaffolding (header, cue numbers, timings) and collapses
// blank lines. Plain text passes through apart from trimming.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	subtitles := len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "WEBVTT")
	if !subtitles {
		for _, l := range lines {
			if cueTiming.MatchString(strings.TrimSpace(l)) {
				subtitles = true
				break
			}
		}
	}
	if !subtitles {
		return strings.TrimSpace(text)
	}

	out := make([]string, 0, len(lines))
	for i, l := range lines {
		l = strings.TrimSpace(l)
		switch {
		case l == "":
			continue
		case i == 0 && strings.HasPrefix(l, "WEBVTT"):
			continue
		case cueTiming.MatchString(l), cueIndex.MatchString(l):
			continue
		case strings.HasPrefix(l, "NOTE "), l == "NOTE":
			continue
		}
		if n := len(out); n > 0 && out[n-1] == l {
			continue
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}
