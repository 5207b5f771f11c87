package enrich

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/lecturenotes-backend/internal/domain/notes"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/illustrate"
	"github.com/yungbote/lecturenotes-backend/internal/observability"
	"github.com/yungbote/lecturenotes-backend/internal/platform/logger"
)

const DefaultItemTimeout = 60 * time.Second

type Options struct {
	// Concurrency caps in-flight illustration requests. Zero means unlimited.
	Concurrency int
	ItemTimeout time.Duration
}

type Report struct {
	Requested int
	Resolved  int
	Failed    int
}

type Enricher struct {
	log         *logger.Logger
	illustrator illustrate.Illustrator
	opts        Options
}

func New(log *logger.Logger, illustrator illustrate.Illustrator, opts Options) (*Enricher, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if illustrator == nil {
		return nil, fmt.Errorf("illustrator required")
	}
	if opts.ItemTimeout <= 0 {
		opts.ItemTimeout = DefaultItemTimeout
	}
	return &Enricher{
		log:         log.With("service", "IllustrationEnricher"),
		illustrator: illustrator,
		opts:        opts,
	}, nil
}

func (e *Enricher) Enrich(ctx context.Context, doc notes.DigitalNotes) notes.DigitalNotes {
	out, _ := e.EnrichWithReport(ctx, doc)
	return out
}

type slot struct {
	topic, item int
	description string
}

// EnrichWithReport resolves every ImageIdea concurrently. Each result is written back at the
// placeholder's own position in a copy of doc; doc itself is left untouched. A failed item
// keeps its ImageIdea and never fails the document.
func (e *Enricher) EnrichWithReport(ctx context.Context, doc notes.DigitalNotes) (notes.DigitalNotes, Report) {
	out := doc.Clone()

	var slots []slot
	for ti, topic := range out.KeyTopics {
		for ii, item := range topic.Content {
			idea, ok := item.(notes.ImageIdea)
			if !ok || idea.Description == "" {
				continue
			}
			slots = append(slots, slot{topic: ti, item: ii, description: idea.Description})
		}
	}
	report := Report{Requested: len(slots)}
	if len(slots) == 0 {
		return out, report
	}

	ctx, span := observability.Tracer().Start(ctx, "notes.enrich")
	defer span.End()

	// Each goroutine owns exactly one slot, so writes never overlap.
	results := make([]string, len(slots))
	var resolved, failed int32

	g, gctx := errgroup.WithContext(ctx)
	if e.opts.Concurrency > 0 {
		g.SetLimit(e.opts.Concurrency)
	}
	for i := range slots {
		g.Go(func() error {
			s := slots[i]
			itemCtx, cancel := context.WithTimeout(gctx, e.opts.ItemTimeout)
			defer cancel()

			url, err := e.illustrator.GenerateIllustration(itemCtx, s.description)
			if err == nil && url == "" {
				err = fmt.Errorf("empty image url")
			}
			if err != nil {
				atomic.AddInt32(&failed, 1)
				ierr := notes.NewError(notes.KindIllustrationFailed, "illustration failed", err)
				e.log.Warn("illustration failed; keeping image idea",
					"topic_index", s.topic,
					"item_index", s.item,
					"error", ierr,
				)
				return nil
			}
			results[i] = url
			atomic.AddInt32(&resolved, 1)
			return nil
		})
	}
	_ = g.Wait()

	for i, s := range slots {
		if results[i] == "" {
			continue
		}
		out.KeyTopics[s.topic].Content[s.item] = notes.GeneratedImage{
			Description: s.description,
			ImageURL:    results[i],
		}
	}

	report.Resolved = int(atomic.LoadInt32(&resolved))
	report.Failed = int(atomic.LoadInt32(&failed))
	span.SetAttributes(
		attribute.Int("illustrations.requested", report.Requested),
		attribute.Int("illustrations.resolved", report.Resolved),
		attribute.Int("illustrations.failed", report.Failed),
	)
	e.log.Info("illustrations resolved", "requested", report.Requested, "resolved", report.Resolved, "failed", report.Failed)
	return out, report
}
