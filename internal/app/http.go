package app

import (
	"context"

	"github.com/gin-gonic/gin"

	apphttp "github.com/yungbote/lecturenotes-backend/internal/http"
	httpH "github.com/yungbote/lecturenotes-backend/internal/http/handlers"
	"github.com/yungbote/lecturenotes-backend/internal/platform/envutil"
	"github.com/yungbote/lecturenotes-backend/internal/platform/logger"
)

func wireRouterConfig(log *logger.Logger, cfg Config, clients Clients, services Services) apphttp.RouterConfig {
	checks := map[string]httpH.HealthCheck{}
	if clients.Redis != nil {
		checks["redis"] = clients.Redis.Ping
	}
	if clients.Bucket != nil {
		checks["bucket"] = func(ctx context.Context) error {
			_, err := clients.Bucket.Exists(ctx, "healthcheck")
			return err
		}
	}

	if cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	return apphttp.RouterConfig{
		Log:            log,
		AllowedOrigins: cfg.AllowedOrigins,
		Tracing:        envutil.Bool("OTEL_ENABLED", false),
		NotesHandler:   httpH.NewNotesHandler(log, services.Flow),
		HealthHandler:  httpH.NewHealthHandler(checks),
	}
}
