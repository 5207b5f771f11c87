package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/lecturenotes-backend/internal/app"
	"github.com/yungbote/lecturenotes-backend/internal/domain/notes"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/export"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/render"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/schema"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/theme"
)

const (
	formatPDF  = "pdf"
	formatView = "view"
)

type renderOptions struct {
	in     string
	mode   string
	out    string
	theme  string
	format string
}

func newRenderCmd(opts *rootOptions) *cobra.Command {
	r := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a saved notes document without calling a model",
		Long: `Render a notes JSON document to PDF, or dump its visual tree.

Examples:
  lecturenotes render --in notes.json --mode physical --out notes.pdf
  lecturenotes render --in notes.json --format view --theme dark`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts, r)
		},
	}
	cmd.Flags().StringVarP(&r.in, "in", "i", "", "notes JSON document")
	cmd.Flags().StringVarP(&r.mode, "mode", "m", string(notes.ModeDigital), "document mode: digital or physical")
	cmd.Flags().StringVarP(&r.out, "out", "o", "", "output path (defaults to the title-derived file name, or stdout for view)")
	cmd.Flags().StringVar(&r.theme, "theme", string(theme.Default), "theme for the view format")
	cmd.Flags().StringVar(&r.format, "format", formatPDF, "output format: pdf or view")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func runRender(cmd *cobra.Command, opts *rootOptions, r *renderOptions) error {
	mode, ok := notes.ParseMode(r.mode)
	if !ok {
		return fmt.Errorf("unknown mode %q", r.mode)
	}
	th, ok := theme.Parse(r.theme)
	if !ok {
		return fmt.Errorf("unknown theme %q", r.theme)
	}
	data, err := os.ReadFile(r.in)
	if err != nil {
		return fmt.Errorf("read notes: %w", err)
	}
	doc, err := schema.DecodeDocument(data, mode)
	if err != nil {
		var ne *notes.Error
		if errors.As(err, &ne) && len(ne.Issues) > 0 {
			for _, issue := range ne.Issues {
				fmt.Fprintln(opts.errOut, issue)
			}
		}
		return err
	}

	log := opts.logger()
	defer log.Sync()
	palettes := render.DefaultPalettes(log)
	tree := render.Render(doc, th, render.WithDate(time.Now()), render.WithPalettes(palettes))

	switch r.format {
	case formatView:
		enc := json.NewEncoder(opts.out)
		if r.out != "" {
			f, err := os.Create(r.out)
			if err != nil {
				return fmt.Errorf("create view file: %w", err)
			}
			defer f.Close()
			enc = json.NewEncoder(f)
		}
		enc.SetIndent("", "  ")
		return enc.Encode(tree)
	case formatPDF:
	default:
		return fmt.Errorf("unknown format %q", r.format)
	}

	cfg := app.LoadConfig()
	capturer, err := export.NewRasterCapturer(log, export.CaptureOptions{
		Scale:           cfg.CaptureScale,
		Width:           cfg.CaptureWidth,
		RegularFontPath: cfg.FontRegular,
	})
	if err != nil {
		return err
	}
	engine, err := export.NewEngine(log, capturer, export.NewPDFEncoder(), palettes)
	if err != nil {
		return err
	}
	art, err := engine.Export(cmd.Context(), theme.NewState(th), tree, doc.DocumentTitle())
	if err != nil {
		return err
	}
	path := r.out
	if path == "" {
		path = art.FileName
	}
	return writeArtifact(opts, path, art.Data, art.Pages)
}
