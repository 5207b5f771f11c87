package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/lecturenotes-backend/internal/domain/notes"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/enrich"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/export"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/generator"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/render"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/theme"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/transcript"
	"github.com/yungbote/lecturenotes-backend/internal/platform/logger"
)

type State string

const (
	StateInput      State = "input"
	StateSelecting  State = "selecting"
	StateGenerating State = "generating"
	StateViewing    State = "viewing"
)

var (
	ErrBusy              = errors.New("another operation is in progress")
	ErrInvalidTransition = errors.New("operation not allowed in the current state")
	ErrEmptySource       = errors.New("source is required")
	ErrUnknownMode       = errors.New("unknown notes mode")
	ErrNoExporter        = errors.New("export is not configured")
)

const MsgSourceUnavailable = "Could not load the lecture transcript. Check the source and try again."

type Enricher interface {
	EnrichWithReport(ctx context.Context, doc notes.DigitalNotes) (notes.DigitalNotes, enrich.Report)
}

type Exporter interface {
	Export(ctx context.Context, ambient *theme.State, tree render.VisualTree, fileBaseName string) (export.Artifact, error)
}

// Deps are the controller's collaborators. Enricher and Exporter are optional.
type Deps struct {
	Transcripts transcript.Source
	Generator   generator.Generator
	Enricher    Enricher
	Exporter    Exporter
	Palettes    *render.Palettes
	Now         func() time.Time
}

type Snapshot struct {
	State         State          `json:"state"`
	Source        string         `json:"source,omitempty"`
	Mode          notes.Mode     `json:"mode,omitempty"`
	Document      notes.Document `json:"document,omitempty"`
	ErrorMessage  string         `json:"errorMessage,omitempty"`
	Theme         theme.Theme    `json:"theme"`
	Exporting     bool           `json:"exporting"`
	Illustrations *enrich.Report `json:"illustrations,omitempty"`
}

// Controller drives one notes session through input, mode selection, generation and viewing.
type Controller struct {
	log   *logger.Logger
	deps  Deps
	theme *theme.State

	mu        sync.Mutex
	state     State
	source    string
	mode      notes.Mode
	doc       notes.Document
	errMsg    string
	report    *enrich.Report
	exporting bool
}

func NewController(log *logger.Logger, deps Deps, ambient *theme.State) (*Controller, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if deps.Transcripts == nil {
		return nil, fmt.Errorf("transcript source required")
	}
	if deps.Generator == nil {
		return nil, fmt.Errorf("generator required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if ambient == nil {
		ambient = theme.NewState(theme.Default)
	}
	return &Controller{
		log:   log.With("service", "FlowController"),
		deps:  deps,
		theme: ambient,
		state: StateInput,
	}, nil
}

// Submit records the lecture source and moves to mode selection. It is accepted from input
// and from selecting, where it replaces the previous source.
func (c *Controller) Submit(source string) error {
	source = strings.TrimSpace(source)
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateGenerating {
		return ErrBusy
	}
	if c.state != StateInput && c.state != StateSelecting {
		return ErrInvalidTransition
	}
	if source == "" {
		return ErrEmptySource
	}
	c.source = source
	c.errMsg = ""
	c.state = StateSelecting
	return nil
}

// ChooseMode starts generation in the background. The returned channel is closed once the
// controller has left the generating state. ctx bounds the whole pipeline.
func (c *Controller) ChooseMode(ctx context.Context, mode notes.Mode) (<-chan struct{}, error) {
	c.mu.Lock()
	if c.state == StateGenerating {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if c.state != StateSelecting {
		c.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	if _, ok := notes.ParseMode(string(mode)); !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	c.state = StateGenerating
	c.mode = mode
	c.errMsg = ""
	c.report = nil
	source := c.source
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		doc, report, err := c.generate(ctx, source, mode)
		c.finish(doc, report, err)
	}()
	return done, nil
}

func (c *Controller) generate(ctx context.Context, source string, mode notes.Mode) (doc notes.Document, report *enrich.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = notes.NewError(notes.KindGenerationFailed, "", fmt.Errorf("generation panicked: %v", r))
		}
	}()

	start := time.Now()
	text, err := c.deps.Transcripts.Fetch(ctx, source)
	if err != nil {
		return nil, nil, notes.NewError(notes.KindGenerationFailed, MsgSourceUnavailable, err)
	}

	doc, err = c.deps.Generator.GenerateStructuredNotes(ctx, text, mode)
	if err != nil {
		return nil, nil, err
	}

	if d, ok := doc.(notes.DigitalNotes); ok && c.deps.Enricher != nil {
		enriched, r := c.deps.Enricher.EnrichWithReport(ctx, d)
		doc, report = enriched, &r
	}
	c.log.Info("notes generated", "mode", mode, "duration", time.Since(start).String())
	return doc, report, nil
}

func (c *Controller) finish(doc notes.Document, report *enrich.Report, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.log.Warn("notes generation failed", "mode", c.mode, "error", err)
		c.state = StateInput
		c.mode = ""
		c.doc = nil
		c.errMsg = notes.UserMessage(err)
		return
	}
	c.state = StateViewing
	c.doc = doc
	c.report = report
}

// Reset returns to input and clears source, mode, document and error.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateGenerating {
		return ErrBusy
	}
	c.state = StateInput
	c.source = ""
	c.mode = ""
	c.doc = nil
	c.errMsg = ""
	c.report = nil
	return nil
}

// View renders the current document under the ambient theme.
func (c *Controller) View() (render.VisualTree, error) {
	c.mu.Lock()
	doc, state := c.doc, c.state
	c.mu.Unlock()

	if state != StateViewing || doc == nil {
		return render.VisualTree{}, ErrInvalidTransition
	}
	return c.visualTree(doc, c.theme.Selected()), nil
}

func (c *Controller) visualTree(doc notes.Document, th theme.Theme) render.VisualTree {
	opts := []render.Option{render.WithDate(c.deps.Now())}
	if c.deps.Palettes != nil {
		opts = append(opts, render.WithPalettes(c.deps.Palettes))
	}
	return render.Render(doc, th, opts...)
}

// Export produces the PDF for the document being viewed. Only one export runs at a time.
func (c *Controller) Export(ctx context.Context) (export.Artifact, error) {
	if c.deps.Exporter == nil {
		return export.Artifact{}, ErrNoExporter
	}

	c.mu.Lock()
	if c.state != StateViewing || c.doc == nil {
		c.mu.Unlock()
		return export.Artifact{}, ErrInvalidTransition
	}
	if c.exporting {
		c.mu.Unlock()
		return export.Artifact{}, ErrBusy
	}
	c.exporting = true
	doc := c.doc
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.exporting = false
		c.mu.Unlock()
	}()

	tree := c.visualTree(doc, c.theme.Selected())
	return c.deps.Exporter.Export(ctx, c.theme, tree, doc.DocumentTitle())
}

func (c *Controller) SetTheme(t theme.Theme) error {
	if _, ok := theme.Parse(string(t)); !ok {
		return fmt.Errorf("unknown theme %q", t)
	}
	c.theme.Set(t)
	return nil
}

func (c *Controller) ToggleTheme() theme.Theme {
	return c.theme.Toggle()
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	s := Snapshot{
		State:        c.state,
		Source:       c.source,
		Mode:         c.mode,
		Document:     c.doc,
		ErrorMessage: c.errMsg,
		Exporting:    c.exporting,
	}
	if c.report != nil {
		r := *c.report
		s.Illustrations = &r
	}
	c.mu.Unlock()

	s.Theme = c.theme.Selected()
	return s
}
