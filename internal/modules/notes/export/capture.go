package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/yungbote/lecturenotes-backend/internal/domain/notes"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/render"
	"github.com/yungbote/lecturenotes-backend/internal/platform/logger"
)

const (
	DefaultScale = 2.0
	DefaultWidth = 800

	maxCaptureHeight = 60000
	maxImageBytes    = 20 << 20
	lineSpacing      = 1.4
)

// Capturer rasterises a visual tree into a single tall image.
type Capturer interface {
	Capture(ctx context.Context, tree render.VisualTree) (image.Image, error)
}

type CaptureOptions struct {
	// Scale multiplies every logical pixel. Zero means DefaultScale.
	Scale float64
	// Width is the logical content width. Zero means DefaultWidth.
	Width int
	// RegularFontPath optionally replaces the regular Go font.
	RegularFontPath string
	HTTPClient      *http.Client
}

// RasterCapturer paints trees with fogleman/gg onto a white canvas. Layout runs twice: once to
// measure the total height and once to draw.
type RasterCapturer struct {
	log    *logger.Logger
	scale  float64
	width  int
	fonts  *fontSet
	client *http.Client

	// font faces keep per-face glyph caches
	mu sync.Mutex
}

func NewRasterCapturer(log *logger.Logger, opts CaptureOptions) (*RasterCapturer, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.Scale <= 0 {
		opts.Scale = DefaultScale
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	fonts, err := newFontSet(opts.RegularFontPath)
	if err != nil {
		return nil, err
	}
	return &RasterCapturer{
		log:    log.With("service", "RasterCapturer"),
		scale:  opts.Scale,
		width:  opts.Width,
		fonts:  fonts,
		client: opts.HTTPClient,
	}, nil
}

func (c *RasterCapturer) Capture(ctx context.Context, tree render.VisualTree) (image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	images := c.loadImages(ctx, &tree.Root)
	if err := ctx.Err(); err != nil {
		return nil, notes.NewError(notes.KindCapture, "capture cancelled", err)
	}

	w := float64(c.width) * c.scale
	measure := &painter{dc: gg.NewContext(1, 1), scale: c.scale, fonts: c.fonts, images: images}
	h := math.Ceil(measure.node(&tree.Root, 0, 0, w))
	if h <= 0 {
		return nil, notes.NewError(notes.KindCapture, "nothing to capture", nil)
	}
	if h > maxCaptureHeight {
		return nil, notes.NewError(notes.KindCapture, fmt.Sprintf("content too tall to capture (%.0fpx)", h), nil)
	}

	dc := gg.NewContext(int(w), int(h))
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	p := &painter{dc: dc, draw: true, scale: c.scale, fonts: c.fonts, images: images}
	p.node(&tree.Root, 0, 0, w)

	if err := ctx.Err(); err != nil {
		return nil, notes.NewError(notes.KindCapture, "capture cancelled", err)
	}
	return dc.Image(), nil
}

// loadImages fetches every image node's source up front. Sources that fail to load are left
// out and drawn as placeholders.
func (c *RasterCapturer) loadImages(ctx context.Context, root *render.Node) map[string]image.Image {
	out := map[string]image.Image{}
	render.Walk(root, func(n *render.Node) bool {
		if n.Kind != render.KindImage || n.ImageURL == "" {
			return true
		}
		if _, seen := out[n.ImageURL]; seen {
			return true
		}
		img, err := c.loadImage(ctx, n.ImageURL)
		if err != nil {
			c.log.Warn("image load failed; drawing placeholder", "error", err)
			out[n.ImageURL] = nil
			return true
		}
		out[n.ImageURL] = img
		return true
	})
	return out
}

func (c *RasterCapturer) loadImage(ctx context.Context, src string) (image.Image, error) {
	var raw []byte
	switch {
	case strings.HasPrefix(src, "data:"):
		comma := strings.IndexByte(src, ',')
		if comma < 0 || !strings.Contains(src[:comma], ";base64") {
			return nil, fmt.Errorf("unsupported data url")
		}
		b, err := base64.StdEncoding.DecodeString(src[comma+1:])
		if err != nil {
			return nil, fmt.Errorf("decode data url: %w", err)
		}
		raw = b
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("image fetch status=%d", resp.StatusCode)
		}
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
		if err != nil {
			return nil, err
		}
		raw = b
	default:
		return nil, fmt.Errorf("unsupported image source")
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// painter lays out nodes top to bottom. Coordinates are device pixels. With draw unset it
// only measures.
type painter struct {
	dc     *gg.Context
	draw   bool
	scale  float64
	fonts  *fontSet
	images map[string]image.Image
}

func (p *painter) px(v float64) float64 { return v * p.scale }

func (p *painter) measuring() *painter {
	q := *p
	q.draw = false
	return &q
}

// node returns the height n occupies when laid out at (x, y) with width w.
func (p *painter) node(n *render.Node, x, y, w float64) float64 {
	st := n.Style
	switch n.Kind {
	case render.KindDocument:
		return p.box(st, x, y, w, p.px(24), 0, func(q *painter, x, y, w float64) float64 {
			return q.stack(n.Children, x, y, w, 0)
		})
	case render.KindSheet:
		return p.box(st, x, y, w, p.px(40), p.px(8), func(q *painter, x, y, w float64) float64 {
			return q.stack(n.Children, x, y, w, p.px(32))
		})
	case render.KindHeader:
		return p.stack(n.Children, x, y, w, p.px(8))
	case render.KindSection:
		return p.stack(n.Children, x, y, w, p.px(16))
	case render.KindTopic:
		return p.box(st, x, y, w, p.px(24), p.px(12), func(q *painter, x, y, w float64) float64 {
			return q.stack(n.Children, x, y, w, p.px(12))
		})
	case render.KindTitle, render.KindDate, render.KindSummary, render.KindHeading,
		render.KindParagraph, render.KindLabel, render.KindCaption:
		return p.text(n.Text, st, x, y, w)
	case render.KindStep, render.KindCard:
		return p.box(st, x, y, w, p.px(16), p.px(8), func(q *painter, x, y, w float64) float64 {
			return q.text(n.Text, st, x, y, w)
		})
	case render.KindBullet:
		return p.bullet(n, x, y, w)
	case render.KindPlaceholder, render.KindDiagram:
		return p.box(st, x, y, w, p.px(16), p.px(8), func(q *painter, x, y, w float64) float64 {
			return q.stack(n.Children, x, y, w, p.px(4))
		})
	case render.KindImage:
		return p.image(n, x, y, w)
	case render.KindChart:
		return p.box(st, x, y, w, p.px(24), p.px(12), func(q *painter, x, y, w float64) float64 {
			return q.stack(n.Children, x, y, w, p.px(12))
		})
	case render.KindFlowchart:
		return p.flowchart(n, x, y, w)
	case render.KindConnector:
		return p.connector(st, x, y, w)
	case render.KindBarChart:
		return p.stack(n.Children, x, y, w, p.px(8))
	case render.KindBar:
		return p.bar(n, x, y, w)
	case render.KindCardGrid:
		return p.grid(n, x, y, w)
	default:
		return p.stack(n.Children, x, y, w, 0)
	}
}

func (p *painter) stack(children []render.Node, x, y, w, gap float64) float64 {
	total := 0.0
	placed := false
	for i := range children {
		off := total
		if placed {
			off += gap
		}
		// empty children draw nothing
		h := p.node(&children[i], x, y+off, w)
		if h <= 0 {
			continue
		}
		total = off + h
		placed = true
	}
	return total
}

// box paints a padded, optionally rotated rectangle around body.
func (p *painter) box(st render.Style, x, y, w, pad, radius float64, body func(q *painter, x, y, w float64) float64) float64 {
	layout := func(q *painter) float64 {
		return body(q, x+pad, y+pad, w-2*pad) + 2*pad
	}
	if !p.draw {
		return layout(p)
	}
	h := layout(p.measuring())

	p.dc.Push()
	defer p.dc.Pop()
	if st.Rotation != 0 {
		p.dc.RotateAbout(gg.Radians(st.Rotation), x+w/2, y+h/2)
	}
	p.frame(st, x, y, w, h, radius)
	layout(p)
	return h
}

func (p *painter) frame(st render.Style, x, y, w, h, radius float64) {
	if st.Colors.BG != "" {
		p.dc.DrawRoundedRectangle(x, y, w, h, radius)
		p.dc.SetHexColor(st.Colors.BG)
		p.dc.Fill()
	}
	if st.Colors.Border != "" {
		p.dc.DrawRoundedRectangle(x, y, w, h, radius)
		p.dc.SetHexColor(st.Colors.Border)
		p.dc.SetLineWidth(p.px(1))
		if st.Dashed {
			p.dc.SetDash(p.px(6), p.px(4))
		}
		p.dc.Stroke()
		p.dc.SetDash()
	}
}

func (p *painter) fontSize(st render.Style) float64 {
	size := st.Size
	if size <= 0 {
		size = 16
	}
	return p.px(size)
}

func (p *painter) text(s string, st render.Style, x, y, w float64) float64 {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	size := p.fontSize(st)
	p.dc.SetFontFace(p.fonts.face(st.Font, size))
	lines := p.dc.WordWrap(s, w)
	lh := size * lineSpacing
	if p.draw {
		color := st.Colors.FG
		if color == "" {
			color = "#000000"
		}
		p.dc.SetHexColor(color)
		ax, tx := 0.0, x
		if st.Align == render.AlignCenter {
			ax, tx = 0.5, x+w/2
		}
		for i, line := range lines {
			p.dc.DrawStringAnchored(line, tx, y+float64(i)*lh+(lh-size)/2, ax, 1)
		}
	}
	return lh * float64(len(lines))
}

func (p *painter) bullet(n *render.Node, x, y, w float64) float64 {
	indent := p.px(24)
	if n.Marker != "" && p.draw {
		mst := n.Style
		mst.Align = render.AlignLeft
		p.text(n.Marker, mst, x, y, indent)
	}
	return p.text(n.Text, n.Style, x+indent, y, w-indent)
}

func (p *painter) image(n *render.Node, x, y, w float64) float64 {
	img := p.images[n.ImageURL]
	if img == nil {
		st := n.Style
		st.Dashed = true
		caption := n.Text
		if caption == "" {
			caption = "Image unavailable"
		}
		return p.box(st, x, y, w, p.px(16), p.px(8), func(q *painter, x, y, w float64) float64 {
			cst := st
			cst.Font = render.FontItalic
			cst.Size = 12
			return q.text(caption, cst, x, y, w)
		})
	}
	return p.box(n.Style, x, y, w, p.px(12), p.px(8), func(q *painter, x, y, w float64) float64 {
		b := img.Bounds()
		dw := math.Min(w, p.px(480))
		dh := dw * float64(b.Dy()) / float64(b.Dx())
		if q.draw {
			dst := image.NewRGBA(image.Rect(0, 0, int(dw), int(dh)))
			draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
			q.dc.DrawImage(dst, int(x+(w-dw)/2), int(y))
		}
		return dh + q.px(8) + q.stack(n.Children, x, y+dh+q.px(8), w, 0)
	})
}

func (p *painter) flowchart(n *render.Node, x, y, w float64) float64 {
	stepW := math.Min(w, p.px(360))
	sx := x + (w-stepW)/2
	total := 0.0
	for i := range n.Children {
		c := &n.Children[i]
		if c.Kind == render.KindConnector {
			total += p.connector(c.Style, sx, y+total, stepW)
			continue
		}
		total += p.node(c, sx, y+total, stepW)
	}
	return total
}

func (p *painter) connector(st render.Style, x, y, w float64) float64 {
	h := p.px(28)
	if p.draw {
		cx := x + w/2
		color := st.Colors.FG
		if color == "" {
			color = "#a3a3a3"
		}
		p.dc.SetHexColor(color)
		p.dc.SetLineWidth(p.px(2))
		p.dc.DrawLine(cx, y+p.px(4), cx, y+h-p.px(6))
		p.dc.Stroke()
		p.dc.MoveTo(cx-p.px(5), y+h-p.px(11))
		p.dc.LineTo(cx, y+h-p.px(4))
		p.dc.LineTo(cx+p.px(5), y+h-p.px(11))
		p.dc.Stroke()
	}
	return h
}

func (p *painter) bar(n *render.Node, x, y, w float64) float64 {
	if n.Bar == nil {
		return 0
	}
	labelW := math.Min(w/3, p.px(140))
	valueW := p.px(64)
	trackW := math.Max(0, w-labelW-valueW-p.px(16))
	barH := p.px(20)

	lst := n.Style
	lst.Align = render.AlignLeft
	textH := p.text(n.Bar.Label, lst, x, y, labelW)
	rowH := math.Max(textH, barH)

	if p.draw {
		bx := x + labelW + p.px(8)
		by := y + (rowH-barH)/2
		if n.Style.Colors.Border != "" {
			p.dc.DrawRoundedRectangle(bx, by, trackW, barH, p.px(4))
			p.dc.SetHexColor(n.Style.Colors.Border)
			p.dc.Fill()
		}
		if fw := trackW * n.Bar.Fraction; fw > 0 {
			p.dc.DrawRoundedRectangle(bx, by, fw, barH, p.px(4))
			p.dc.SetHexColor(n.Style.Colors.BG)
			p.dc.Fill()
		}
		p.text(formatValue(n.Bar.Value), lst, bx+trackW+p.px(8), y, valueW)
	}
	return rowH
}

func formatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func (p *painter) grid(n *render.Node, x, y, w float64) float64 {
	cols := n.Style.Columns
	if cols <= 0 {
		cols = 1
	}
	gap := p.px(24)
	cellW := (w - gap*float64(cols-1)) / float64(cols)
	total := 0.0
	for start := 0; start < len(n.Children); start += cols {
		if start > 0 {
			total += gap
		}
		end := min(start+cols, len(n.Children))
		rowH := 0.0
		for i := start; i < end; i++ {
			rowH = math.Max(rowH, p.measuring().node(&n.Children[i], 0, 0, cellW))
		}
		if p.draw {
			for i := start; i < end; i++ {
				cx := x + float64(i-start)*(cellW+gap)
				p.node(&n.Children[i], cx, y+total, cellW)
			}
		}
		total += rowH
	}
	return total
}
