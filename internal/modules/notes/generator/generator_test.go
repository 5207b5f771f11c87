package generator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/lecturenotes-backend/internal/domain/notes"
	"github.com/yungbote/lecturenotes-backend/internal/platform/logger"
)

type fakeModel struct {
	out        string
	err        error
	gotSystem  string
	gotUser    string
	blockUntil <-chan struct{}
}

func (f *fakeModel) GenerateText(ctx context.Context, system, user string) (string, error) {
	f.gotSystem, f.gotUser = system, user
	if f.blockUntil != nil {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-f.blockUntil:
		}
	}
	return f.out, f.err
}

const physicalJSON = `{"title":"Cells","mainSummary":"Cells are small.","sections":[{"heading":"Parts","points":["nucleus"]}]}`

func newGen(t *testing.T, m TextModel, timeout time.Duration) *LLM {
	t.Helper()
	g, err := NewLLM(logger.Nop(), m, timeout)
	if err != nil {
		t.Fatalf("NewLLM: %v", err)
	}
	return g
}

func TestGenerateStripsFence(t *testing.T) {
	m := &fakeModel{out: "Here you go:\n```json\n" + physicalJSON + "\n```\n"}
	doc, err := newGen(t, m, 0).GenerateStructuredNotes(context.Background(), "cells lecture", notes.ModePhysical)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if doc.DocumentTitle() != "Cells" || doc.Mode() != notes.ModePhysical {
		t.Fatalf("unexpected doc: %+v", doc)
	}
	if !strings.Contains(m.gotUser, "cells lecture") {
		t.Fatalf("transcript missing from prompt: %q", m.gotUser)
	}
	if !strings.Contains(m.gotSystem, `"error": true`) {
		t.Fatalf("sentinel instruction missing from system prompt")
	}
}

func TestSentinelVersusUnparseable(t *testing.T) {
	_, sentinelErr := ParseOutput(`{"error": true, "errorMessage": "Failed to access the lecture."}`, notes.ModeDigital)
	if !errors.Is(sentinelErr, notes.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", sentinelErr)
	}
	if got := notes.UserMessage(sentinelErr); got != "Failed to access the lecture." {
		t.Fatalf("unexpected message: got=%q", got)
	}

	_, parseErr := ParseOutput(`Sorry, I cannot help with that.`, notes.ModeDigital)
	if !errors.Is(parseErr, notes.ErrInvalidGeneratorOutput) {
		t.Fatalf("expected ErrInvalidGeneratorOutput, got %v", parseErr)
	}
	if notes.UserMessage(parseErr) == notes.UserMessage(sentinelErr) {
		t.Fatalf("sentinel and unparseable output must be distinguishable")
	}
}

func TestSentinelWithoutMessageUsesDefault(t *testing.T) {
	_, err := ParseOutput("```json\n{\"error\": true}\n```", notes.ModePhysical)
	if got := notes.UserMessage(err); got != notes.MsgGenerationFailed {
		t.Fatalf("unexpected message: got=%q want=%q", got, notes.MsgGenerationFailed)
	}
}

func TestSchemaFailureIsSchemaError(t *testing.T) {
	_, err := ParseOutput(`{"title":"x","summary":"y"}`, notes.ModeDigital)
	if !errors.Is(err, notes.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func TestTransportFailureIsGenerationFailed(t *testing.T) {
	cause := errors.New("connection reset")
	_, err := newGen(t, &fakeModel{err: cause}, 0).GenerateStructuredNotes(context.Background(), "t", notes.ModeDigital)
	if !errors.Is(err, notes.ErrGenerationFailed) || !errors.Is(err, cause) {
		t.Fatalf("expected wrapped generation failure, got %v", err)
	}
	if !strings.HasPrefix(notes.UserMessage(err), "Failed to generate digital notes") {
		t.Fatalf("unexpected message: %q", notes.UserMessage(err))
	}
}

func TestTimeoutIsGenerationFailed(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	_, err := newGen(t, &fakeModel{blockUntil: block}, 20*time.Millisecond).GenerateStructuredNotes(context.Background(), "t", notes.ModePhysical)
	if !errors.Is(err, notes.ErrGenerationFailed) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected timeout generation failure, got %v", err)
	}
}

func TestStripFence(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  {\"a\":1}  ", `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"text ```json {\"a\":1}```", `{"a":1}`},
		{"```JSON\n{\"a\":1}\n```", `{"a":1}`},
		{"```javascript\n{\"a\":1}\n```", `{"a":1}`},
		{"```Json {\"a\":1}```", `{"a":1}`},
	}
	for _, tc := range cases {
		if got := StripFence(tc.in); got != tc.want {
			t.Fatalf("StripFence(%q): got=%q want=%q", tc.in, got, tc.want)
		}
	}
}
