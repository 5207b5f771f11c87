package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/lecturenotes-backend/internal/platform/ctxutil"
	"github.com/yungbote/lecturenotes-backend/internal/platform/logger"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"

	maxClientID = 128
)

// SessionFields reports extra key/value pairs describing the notes session, read once the
// request has been handled.
type SessionFields func() []interface{}

// RequestLogger tags each request with request and trace ids, echoes them back as headers and
// logs one line per request with the session fields appended. An active span's trace id wins
// over a client supplied one.
func RequestLogger(log *logger.Logger, session SessionFields) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		td := &ctxutil.TraceData{
			RequestID: clientID(c.GetHeader(headerRequestID)),
			TraceID:   traceID(c),
		}
		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), td))
		c.Set("trace_id", td.TraceID)
		c.Set("request_id", td.RequestID)
		c.Writer.Header().Set(headerTraceID, td.TraceID)
		c.Writer.Header().Set(headerRequestID, td.RequestID)

		c.Next()

		if log == nil {
			return
		}

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		fields := []interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		fields = append(fields, ctxutil.LogFields(c.Request.Context())...)
		if session != nil {
			fields = append(fields, session()...)
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			fields = append(fields, "error", errs.Last().Error())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

func traceID(c *gin.Context) string {
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return clientID(c.GetHeader(headerTraceID))
}

// clientID keeps a caller supplied id if it is short and printable, else mints a new one.
func clientID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxClientID {
		return uuid.New().String()
	}
	for _, r := range raw {
		if r < 0x21 || r > 0x7e {
			return uuid.New().String()
		}
	}
	return raw
}
