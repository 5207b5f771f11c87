package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/go-pdf/fpdf"
)

// Encoder writes page images as a document.
type Encoder interface {
	Encode(ctx context.Context, pages []image.Image, w io.Writer) error
}

// PDFEncoder places each page image at full A4 portrait width, one image per page.
type PDFEncoder struct{}

func NewPDFEncoder() *PDFEncoder { return &PDFEncoder{} }

func (PDFEncoder) Encode(ctx context.Context, pages []image.Image, w io.Writer) error {
	if len(pages) == 0 {
		return fmt.Errorf("no pages to encode")
	}
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		b := page.Bounds()
		if b.Dx() <= 0 || b.Dy() <= 0 {
			return fmt.Errorf("page %d is empty", i+1)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, page); err != nil {
			return fmt.Errorf("encode page %d: %w", i+1, err)
		}
		name := fmt.Sprintf("page-%d", i+1)
		pdf.RegisterImageOptionsReader(name, opts, &buf)
		pdf.AddPage()
		h := A4Width * float64(b.Dy()) / float64(b.Dx())
		pdf.ImageOptions(name, 0, 0, A4Width, h, false, opts, 0, "")
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("pdf page %d: %w", i+1, err)
		}
	}
	return pdf.Output(w)
}
