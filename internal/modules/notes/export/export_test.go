package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/lecturenotes-backend/internal/domain/notes"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/render"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/theme"
	"github.com/yungbote/lecturenotes-backend/internal/platform/logger"
)

type fakeCapturer struct {
	height  int
	err     error
	panics  bool
	seen    theme.Theme
	ambient *theme.State
	during  theme.Theme
}

func (f *fakeCapturer) Capture(ctx context.Context, tree render.VisualTree) (image.Image, error) {
	f.seen = tree.Theme
	if f.ambient != nil {
		f.during = f.ambient.Current()
	}
	if f.panics {
		panic("capture exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	img := image.NewRGBA(image.Rect(0, 0, 210, f.height))
	for y := 0; y < f.height; y++ {
		img.Set(0, y, color.RGBA{R: 255, A: 255})
	}
	return img, nil
}

type countingEncoder struct {
	pages []image.Image
	err   error
}

func (c *countingEncoder) Encode(ctx context.Context, pages []image.Image, w io.Writer) error {
	c.pages = pages
	if c.err != nil {
		return c.err
	}
	_, err := w.Write([]byte("%PDF-fake"))
	return err
}

func sampleTree() render.VisualTree {
	doc := notes.DigitalNotes{
		Title:   "Linear Algebra",
		Summary: "Vectors and matrices.",
		KeyTopics: []notes.Topic{{TopicTitle: "Vectors", Content: []notes.ContentItem{
			notes.Bullet{Point: "Vectors have magnitude and direction"},
			notes.ImageIdea{Description: "an arrow on a grid"},
		}}},
		ChartsAndGraphs: []notes.Chart{
			{Title: "Steps", Data: notes.FlowchartData{Steps: []string{"row reduce", "back substitute"}}},
			{Title: "Sizes", Data: notes.BarChartData{Bars: []notes.BarDatum{{Label: "2x2", Value: 4}, {Label: "3x3", Value: 9}}}},
		},
		PracticeQuestions: []notes.Question{{Question: "What is a basis?"}, {Question: "Define rank."}, {Question: "Is 0 an eigenvalue?"}},
	}
	return render.Render(doc, theme.Dark)
}

func newEngine(t *testing.T, c Capturer, enc Encoder) *Engine {
	t.Helper()
	e, err := NewEngine(logger.Nop(), c, enc, nil)
	require.NoError(t, err)
	return e
}

func TestPaginateBoundary(t *testing.T) {
	cases := []struct {
		h, p float64
		want []float64
	}{
		{1000, 1000, []float64{0}},
		{3000, 1000, []float64{0, -1000, -2000}},
		{3001, 1000, []float64{0, -1000, -2000, -3000}},
		{10, 1000, []float64{0}},
		{0, 1000, nil},
		{100, 0, nil},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Paginate(tc.h, tc.p), "h=%v p=%v", tc.h, tc.p)
	}

	p := PageHeightFor(1600)
	for k := 1; k <= 5; k++ {
		if got := len(Paginate(float64(k)*p, p)); got != k {
			t.Fatalf("k=%d got=%d pages", k, got)
		}
	}
}

func TestSlicePagesCoversImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 250))
	pages := slicePages(img, Paginate(250, 100), 100)
	require.Len(t, pages, 3)
	assert.Equal(t, 100, pages[0].Bounds().Dy())
	assert.Equal(t, 50, pages[2].Bounds().Dy())
}

func TestExportForcesLightAndRestores(t *testing.T) {
	ambient := theme.NewState(theme.Dark)
	c := &fakeCapturer{height: 297 * 2, ambient: ambient}
	enc := &countingEncoder{}
	art, err := newEngine(t, c, enc).Export(t.Context(), ambient, sampleTree(), "Linear Algebra  101")
	require.NoError(t, err)

	assert.Equal(t, theme.Light, c.seen)
	assert.Equal(t, theme.Light, c.during)
	assert.Equal(t, theme.Dark, ambient.Current())
	assert.False(t, ambient.Forced())

	assert.Equal(t, "Linear_Algebra_101.pdf", art.FileName)
	assert.Equal(t, ContentTypePDF, art.ContentType)
	assert.Equal(t, 2, art.Pages)
	assert.Len(t, enc.pages, 2)
}

func TestExportRestoresThemeOnCaptureFailure(t *testing.T) {
	ambient := theme.NewState(theme.Dark)
	c := &fakeCapturer{err: errors.New("canvas lost"), ambient: ambient}
	_, err := newEngine(t, c, &countingEncoder{}).Export(t.Context(), ambient, sampleTree(), "x")
	if !errors.Is(err, notes.ErrCapture) {
		t.Fatalf("got=%v want capture error", err)
	}
	if got := ambient.Current(); got != theme.Dark {
		t.Fatalf("got=%s want=%s", got, theme.Dark)
	}
}

func TestExportRestoresThemeOnPanic(t *testing.T) {
	ambient := theme.NewState(theme.Dark)
	e := newEngine(t, &fakeCapturer{panics: true, ambient: ambient}, &countingEncoder{})
	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic to propagate")
			}
		}()
		_, _ = e.Export(t.Context(), ambient, sampleTree(), "x")
	}()
	if got := ambient.Current(); got != theme.Dark {
		t.Fatalf("got=%s want=%s", got, theme.Dark)
	}
}

func TestExportEncodeFailure(t *testing.T) {
	ambient := theme.NewState(theme.Light)
	_, err := newEngine(t, &fakeCapturer{height: 10}, &countingEncoder{err: errors.New("disk full")}).
		Export(t.Context(), ambient, sampleTree(), "x")
	if !errors.Is(err, notes.ErrEncode) {
		t.Fatalf("got=%v want encode error", err)
	}
	assert.Equal(t, notes.MsgExportFailed, notes.UserMessage(err))
}

func TestExportEmptyCaptureIsCaptureError(t *testing.T) {
	_, err := newEngine(t, &fakeCapturer{height: 0}, &countingEncoder{}).
		Export(t.Context(), nil, sampleTree(), "x")
	if !errors.Is(err, notes.ErrCapture) {
		t.Fatalf("got=%v want capture error", err)
	}
}

func TestFileName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Intro to Databases", "Intro_to_Databases.pdf"},
		{"a\t \nb", "a_b.pdf"},
		{"A  B", "A_B.pdf"},
		{"I/O and C\\C++", "I-O_and_C-C++.pdf"},
		{"   ", DefaultFileName},
		{"", DefaultFileName},
	}
	for _, tc := range cases {
		if got := FileName(tc.in); got != tc.want {
			t.Fatalf("FileName(%q) got=%q want=%q", tc.in, got, tc.want)
		}
	}
}

func TestPDFEncoderWritesDocument(t *testing.T) {
	pages := []image.Image{
		image.NewRGBA(image.Rect(0, 0, 40, 56)),
		image.NewRGBA(image.Rect(0, 0, 40, 20)),
	}
	var buf bytes.Buffer
	require.NoError(t, NewPDFEncoder().Encode(t.Context(), pages, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 200)

	err := NewPDFEncoder().Encode(t.Context(), nil, &buf)
	require.Error(t, err)
}

func TestRasterCapturerRendersTree(t *testing.T) {
	c, err := NewRasterCapturer(logger.Nop(), CaptureOptions{Scale: 1, Width: 400})
	require.NoError(t, err)

	tree := render.Recolor(sampleTree(), theme.Light, nil)
	img, err := c.Capture(t.Context(), tree)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Greater(t, img.Bounds().Dy(), 200)

	r, g, b, _ := img.At(0, img.Bounds().Dy()-1).RGBA()
	assert.NotZero(t, r+g+b)
}

func TestRasterCapturerDrawsBrokenImageAsPlaceholder(t *testing.T) {
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, image.NewRGBA(image.Rect(0, 0, 8, 6))))
	good := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBuf.Bytes())

	doc := notes.DigitalNotes{Title: "t", Summary: "s", KeyTopics: []notes.Topic{{TopicTitle: "k", Content: []notes.ContentItem{
		notes.GeneratedImage{Description: "ok", ImageURL: good},
		notes.GeneratedImage{Description: "broken", ImageURL: "data:image/png;base64,!!!"},
	}}}}
	c, err := NewRasterCapturer(logger.Nop(), CaptureOptions{Scale: 1, Width: 300})
	require.NoError(t, err)
	img, err := c.Capture(t.Context(), render.Render(doc, theme.Light))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
}

func TestRasterCapturerCancelled(t *testing.T) {
	c, err := NewRasterCapturer(logger.Nop(), CaptureOptions{})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = c.Capture(ctx, sampleTree())
	if !errors.Is(err, notes.ErrCapture) {
		t.Fatalf("got=%v want capture error", err)
	}
}
