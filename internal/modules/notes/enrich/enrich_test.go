package enrich

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/lecturenotes-backend/internal/domain/notes"
	"github.com/yungbote/lecturenotes-backend/internal/platform/logger"
)

type fakeIllustrator struct {
	mu       sync.Mutex
	fail     map[string]bool
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    []string
}

func (f *fakeIllustrator) GenerateIllustration(ctx context.Context, prompt string) (string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, prompt)
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.fail[prompt] {
		return "", errors.New("model refused")
	}
	return "https://img.test/" + strings.ReplaceAll(prompt, " ", "-"), nil
}

func sampleDoc() notes.DigitalNotes {
	return notes.DigitalNotes{
		Title: "Databases",
		KeyTopics: []notes.Topic{
			{TopicTitle: "Keys", Content: []notes.ContentItem{
				notes.Bullet{Point: "primary"},
				notes.ImageIdea{Description: "two tables"},
				notes.Paragraph{Text: "joins"},
			}},
			{TopicTitle: "Indexes", Content: []notes.ContentItem{
				notes.ImageIdea{Description: "b tree"},
				notes.ImageIdea{Description: ""},
				notes.ImageIdea{Description: "hash buckets"},
			}},
		},
	}
}

func newEnricher(t *testing.T, f *fakeIllustrator, opts Options) *Enricher {
	t.Helper()
	e, err := New(logger.Nop(), f, opts)
	require.NoError(t, err)
	return e
}

func TestEnrichIsPointwise(t *testing.T) {
	in := sampleDoc()
	out, report := newEnricher(t, &fakeIllustrator{}, Options{}).EnrichWithReport(context.Background(), in)

	require.Len(t, out.KeyTopics, len(in.KeyTopics))
	for ti := range in.KeyTopics {
		require.Len(t, out.KeyTopics[ti].Content, len(in.KeyTopics[ti].Content))
		for ii, before := range in.KeyTopics[ti].Content {
			after := out.KeyTopics[ti].Content[ii]
			idea, wasIdea := before.(notes.ImageIdea)
			if !wasIdea || idea.Description == "" {
				assert.Equal(t, before, after, "topic %d item %d changed", ti, ii)
				continue
			}
			gen, ok := after.(notes.GeneratedImage)
			require.True(t, ok, "topic %d item %d not resolved", ti, ii)
			assert.Equal(t, idea.Description, gen.Description)
			assert.Equal(t, "https://img.test/"+strings.ReplaceAll(idea.Description, " ", "-"), gen.ImageURL)
		}
	}
	assert.Equal(t, Report{Requested: 3, Resolved: 3}, report)

	_, stillIdea := in.KeyTopics[0].Content[1].(notes.ImageIdea)
	assert.True(t, stillIdea, "input document was mutated")
}

func TestEnrichPerItemFallback(t *testing.T) {
	f := &fakeIllustrator{fail: map[string]bool{"b tree": true}}
	out, report := newEnricher(t, f, Options{}).EnrichWithReport(context.Background(), sampleDoc())

	assert.Equal(t, notes.ImageIdea{Description: "b tree"}, out.KeyTopics[1].Content[0])
	assert.IsType(t, notes.GeneratedImage{}, out.KeyTopics[0].Content[1])
	assert.IsType(t, notes.GeneratedImage{}, out.KeyTopics[1].Content[2])
	assert.Equal(t, Report{Requested: 3, Resolved: 2, Failed: 1}, report)
}

func TestEnrichItemTimeoutFallsBack(t *testing.T) {
	f := &fakeIllustrator{delay: time.Second}
	out, report := newEnricher(t, f, Options{ItemTimeout: 10 * time.Millisecond}).EnrichWithReport(context.Background(), sampleDoc())
	assert.Equal(t, 3, report.Failed)
	assert.Equal(t, sampleDoc(), out)
}

func TestEnrichNoPlaceholdersIsNoop(t *testing.T) {
	f := &fakeIllustrator{}
	doc := notes.DigitalNotes{Title: "x", KeyTopics: []notes.Topic{{TopicTitle: "a", Content: []notes.ContentItem{notes.Bullet{Point: "p"}}}}}
	out := newEnricher(t, f, Options{}).Enrich(context.Background(), doc)
	assert.Equal(t, doc, out)
	assert.Empty(t, f.calls)
}

func TestEnrichRespectsConcurrencyCap(t *testing.T) {
	f := &fakeIllustrator{delay: 20 * time.Millisecond}
	_, report := newEnricher(t, f, Options{Concurrency: 1}).EnrichWithReport(context.Background(), sampleDoc())
	assert.Equal(t, 3, report.Resolved)
	assert.EqualValues(t, 1, f.peak.Load())
}
