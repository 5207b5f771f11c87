package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/lecturenotes-backend/internal/domain/notes"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/render"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/theme"
	"github.com/yungbote/lecturenotes-backend/internal/observability"
	"github.com/yungbote/lecturenotes-backend/internal/platform/logger"
)

const (
	ContentTypePDF  = "application/pdf"
	DefaultFileName = "notes.pdf"
)

type Artifact struct {
	FileName    string
	ContentType string
	Pages       int
	Data        []byte
}

type Engine struct {
	log      *logger.Logger
	capturer Capturer
	encoder  Encoder
	palettes *render.Palettes
}

func NewEngine(log *logger.Logger, capturer Capturer, encoder Encoder, palettes *render.Palettes) (*Engine, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if capturer == nil {
		return nil, fmt.Errorf("capturer required")
	}
	if encoder == nil {
		encoder = NewPDFEncoder()
	}
	if palettes == nil {
		palettes = render.DefaultPalettes(log)
	}
	return &Engine{
		log:      log.With("service", "ExportEngine"),
		capturer: capturer,
		encoder:  encoder,
		palettes: palettes,
	}, nil
}

// Export captures tree under the light theme and encodes it as a paginated PDF. The ambient
// theme is forced to light for the duration and restored afterwards whatever the outcome.
// A nil ambient state is treated as a private one.
func (e *Engine) Export(ctx context.Context, ambient *theme.State, tree render.VisualTree, fileBaseName string) (Artifact, error) {
	ctx, span := observability.Tracer().Start(ctx, "notes.export")
	defer span.End()

	if ambient == nil {
		ambient = theme.NewState(tree.Theme)
	}

	var art Artifact
	err := theme.WithForced(ambient, theme.Light, func(th theme.Theme) error {
		img, err := e.capturer.Capture(ctx, render.Recolor(tree, th, e.palettes))
		if err != nil {
			return asKind(notes.KindCapture, "capture failed", err)
		}
		if img == nil || img.Bounds().Empty() {
			return notes.NewError(notes.KindCapture, "capture produced an empty image", nil)
		}

		b := img.Bounds()
		pageHeight := PageHeightFor(b.Dx())
		pages := slicePages(img, Paginate(float64(b.Dy()), pageHeight), pageHeight)
		if len(pages) == 0 {
			return notes.NewError(notes.KindEncode, "no pages to encode", nil)
		}

		var buf bytes.Buffer
		if err := e.encoder.Encode(ctx, pages, &buf); err != nil {
			return asKind(notes.KindEncode, "encode failed", err)
		}
		if buf.Len() == 0 {
			return notes.NewError(notes.KindEncode, "encoder produced no output", nil)
		}
		art = Artifact{
			FileName:    FileName(fileBaseName),
			ContentType: ContentTypePDF,
			Pages:       len(pages),
			Data:        buf.Bytes(),
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		e.log.Warn("export failed", "error", err)
		return Artifact{}, err
	}

	span.SetAttributes(
		attribute.Int("export.pages", art.Pages),
		attribute.Int("export.bytes", len(art.Data)),
	)
	e.log.Info("export complete", "file", art.FileName, "pages", art.Pages, "bytes", len(art.Data))
	return art, nil
}

func asKind(kind notes.ErrorKind, msg string, err error) error {
	var ne *notes.Error
	if errors.As(err, &ne) && ne.Kind == kind {
		return err
	}
	return notes.NewError(kind, msg, err)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// FileName derives the artifact name from a title: whitespace runs become "_", path separators
// become "-", and ".pdf" is appended. A blank title gives DefaultFileName.
func FileName(base string) string {
	if strings.TrimSpace(base) == "" {
		return DefaultFileName
	}
	base = strings.NewReplacer("/", "-", "\\", "-").Replace(base)
	return whitespaceRun.ReplaceAllString(base, "_") + ".pdf"
}
