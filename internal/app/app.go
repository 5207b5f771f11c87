package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	apphttp "github.com/yungbote/lecturenotes-backend/internal/http"
	"github.com/yungbote/lecturenotes-backend/internal/observability"
	"github.com/yungbote/lecturenotes-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Router   *gin.Engine
	Cfg      Config
	Clients  Clients
	Services Services

	server       *apphttp.Server
	otelShutdown func(context.Context) error
}

// New wires the notes pipeline from the environment.
func New(ctx context.Context) (*App, error) {
	LoadDotEnv(nil)
	cfg := LoadConfig()

	log, err := logger.NewWithOptions(logger.Options{Mode: cfg.LogMode, FilePath: cfg.LogFilePath})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log.Info("Loading environment variables...", "provider", cfg.LLMProvider, "illustrations", cfg.IllustrationsEnabled)

	shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "lecturenotes-api",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	a, err := NewWithConfig(ctx, log, cfg)
	if err != nil {
		_ = shutdown(ctx)
		log.Sync()
		return nil, err
	}
	a.otelShutdown = shutdown
	return a, nil
}

// NewWithConfig wires the app from an explicit config and logger.
func NewWithConfig(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		return nil, err
	}
	services, err := wireServices(log, cfg, clients)
	if err != nil {
		clients.Close(log)
		return nil, err
	}
	server := apphttp.NewServer(wireRouterConfig(log, cfg, clients, services))

	return &App{
		Log:      log,
		Router:   server.Engine,
		Cfg:      cfg,
		Clients:  clients,
		Services: services,
		server:   server,
	}, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("Server listening", "addr", addr)
	return a.server.Run(ctx, addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close(a.Log)
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
		a.otelShutdown = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
