package app

import (
	"fmt"
	"net/http"

	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/enrich"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/export"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/flow"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/generator"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/illustrate"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/render"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/theme"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/transcript"
	"github.com/yungbote/lecturenotes-backend/internal/platform/logger"
)

type Services struct {
	Theme       *theme.State
	Palettes    *render.Palettes
	Transcripts *transcript.Router
	Generator   *generator.LLM
	Illustrator *illustrate.Service
	Enricher    *enrich.Enricher
	Exporter    *export.Engine
	Flow        *flow.Controller
}

func wireServices(log *logger.Logger, cfg Config, clients Clients) (Services, error) {
	log.Info("Wiring services...")
	out := Services{
		Theme:    theme.NewState(cfg.InitialTheme),
		Palettes: render.DefaultPalettes(log),
	}

	transcripts, err := newTranscriptRouter(log, cfg)
	if err != nil {
		return Services{}, fmt.Errorf("init transcript router: %w", err)
	}
	out.Transcripts = transcripts

	gen, err := generator.NewLLM(log, clients.Text, cfg.GenerationTimeout)
	if err != nil {
		return Services{}, fmt.Errorf("init generator: %w", err)
	}
	out.Generator = gen

	if clients.Images != nil {
		var host illustrate.Host = illustrate.DataURLHost{}
		if clients.Bucket != nil {
			host = illustrate.BucketHost{Bucket: clients.Bucket}
		}
		cache := illustrate.NewMemoryCache(cfg.IllustrationCacheTTL)
		if clients.Redis != nil {
			cache = illustrate.NewRedisCache(clients.Redis, cfg.IllustrationCacheTTL)
		}
		ill, err := illustrate.NewService(log, clients.Images, host, cache)
		if err != nil {
			return Services{}, fmt.Errorf("init illustrator: %w", err)
		}
		out.Illustrator = ill

		enr, err := enrich.New(log, ill, enrich.Options{
			Concurrency: cfg.IllustrationConcurrency,
			ItemTimeout: cfg.IllustrationTimeout,
		})
		if err != nil {
			return Services{}, fmt.Errorf("init enricher: %w", err)
		}
		out.Enricher = enr
	}

	capturer, err := export.NewRasterCapturer(log, export.CaptureOptions{
		Scale:           cfg.CaptureScale,
		Width:           cfg.CaptureWidth,
		RegularFontPath: cfg.FontRegular,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init capturer: %w", err)
	}
	engine, err := export.NewEngine(log, capturer, export.NewPDFEncoder(), out.Palettes)
	if err != nil {
		return Services{}, fmt.Errorf("init export engine: %w", err)
	}
	out.Exporter = engine

	deps := flow.Deps{
		Transcripts: out.Transcripts,
		Generator:   out.Generator,
		Exporter:    out.Exporter,
		Palettes:    out.Palettes,
	}
	if out.Enricher != nil {
		deps.Enricher = out.Enricher
	}
	ctrl, err := flow.NewController(log, deps, out.Theme)
	if err != nil {
		return Services{}, fmt.Errorf("init flow controller: %w", err)
	}
	out.Flow = ctrl
	return out, nil
}

func newTranscriptRouter(log *logger.Logger, cfg Config) (*transcript.Router, error) {
	if cfg.LocalSources {
		return transcript.NewRouter(log, &http.Client{Timeout: cfg.GenerationTimeout}, transcript.WithFiles())
	}
	return transcript.NewRouter(log, transcript.PublicClient(cfg.GenerationTimeout))
}
