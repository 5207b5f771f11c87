package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/lecturenotes-backend/internal/http/handlers"
	httpMW "github.com/yungbote/lecturenotes-backend/internal/http/middleware"
	"github.com/yungbote/lecturenotes-backend/internal/platform/logger"
)

const serviceName = "lecturenotes-api"

type RouterConfig struct {
	Log            *logger.Logger
	AllowedOrigins []string
	Tracing        bool

	NotesHandler  *httpH.NotesHandler
	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing {
		r.Use(otelgin.Middleware(serviceName))
	}
	var session httpMW.SessionFields
	if cfg.NotesHandler != nil {
		session = cfg.NotesHandler.LogFields
	}
	r.Use(httpMW.RequestLogger(cfg.Log, session))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Notes session
		if cfg.NotesHandler != nil {
			api.GET("/notes", cfg.NotesHandler.GetSnapshot)
			api.POST("/notes/source", cfg.NotesHandler.SubmitSource)
			api.POST("/notes/mode", cfg.NotesHandler.ChooseMode)
			api.POST("/notes/reset", cfg.NotesHandler.Reset)
			api.PUT("/notes/theme", cfg.NotesHandler.SetTheme)
			api.GET("/notes/view", cfg.NotesHandler.View)
			api.GET("/notes/export", cfg.NotesHandler.Export)
		}
	}

	return r
}
