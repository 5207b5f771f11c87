package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/yungbote/lecturenotes-backend/internal/domain/notes"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/schema"
	"github.com/yungbote/lecturenotes-backend/internal/platform/logger"
)

// Generator turns a transcript into a validated notes document.
type Generator interface {
	GenerateStructuredNotes(ctx context.Context, transcript string, mode notes.Mode) (notes.Document, error)
}

// TextModel is any chat-style model returning raw text.
type TextModel interface {
	GenerateText(ctx context.Context, system string, user string) (string, error)
}

const DefaultTimeout = 180 * time.Second

var failureMessages = map[notes.Mode]string{
	notes.ModeDigital:  "Failed to generate digital notes. The lecture content might be inaccessible or the topic too complex. Please try a different source.",
	notes.ModePhysical: "Failed to generate physical notes layout. The lecture content might be inaccessible. Please try again.",
}

type LLM struct {
	log     *logger.Logger
	model   TextModel
	timeout time.Duration
	prompts map[notes.Mode]prompt
}

func NewLLM(log *logger.Logger, model TextModel, timeout time.Duration) (*LLM, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if model == nil {
		return nil, fmt.Errorf("text model required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	prompts, err := compilePrompts()
	if err != nil {
		return nil, err
	}
	return &LLM{
		log:     log.With("service", "NotesGenerator"),
		model:   model,
		timeout: timeout,
		prompts: prompts,
	}, nil
}

func (g *LLM) GenerateStructuredNotes(ctx context.Context, transcript string, mode notes.Mode) (notes.Document, error) {
	p, ok := g.prompts[mode]
	if !ok {
		return nil, fmt.Errorf("unknown notes mode %q", mode)
	}
	system, user, err := p.render(promptInput{Transcript: transcript})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	raw, err := g.model.GenerateText(callCtx, system, user)
	if err != nil {
		g.log.Error("notes generation failed", "mode", mode, "duration", time.Since(start).String(), "error", err)
		return nil, notes.NewError(notes.KindGenerationFailed, failureMessages[mode], err)
	}
	g.log.Debug("notes generated", "mode", mode, "duration", time.Since(start).String(), "chars", len(raw))

	return ParseOutput(raw, mode)
}

var fencedJSON = regexp.MustCompile("(?is)```[a-z]*\\s*(.*?)\\s*```")

// StripFence returns the body of the first fence, whatever its language tag, or the trimmed text
// when there is none.
func StripFence(text string) string {
	if m := fencedJSON.FindStringSubmatch(text); len(m) == 2 && strings.TrimSpace(m[1]) != "" {
		return m[1]
	}
	return strings.TrimSpace(text)
}

// ParseOutput classifies raw model text: unparseable, the error sentinel, or a document that
// then has to pass schema validation.
func ParseOutput(raw string, mode notes.Mode) (notes.Document, error) {
	var parsed any
	if err := json.Unmarshal([]byte(StripFence(raw)), &parsed); err != nil {
		return nil, notes.NewError(notes.KindInvalidGeneratorOutput, "", err)
	}
	if obj, ok := parsed.(map[string]any); ok && truthy(obj["error"]) {
		msg, _ := obj["errorMessage"].(string)
		return nil, notes.NewError(notes.KindGenerationFailed, strings.TrimSpace(msg), nil)
	}
	doc, err := schema.Validate(parsed, mode)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}
