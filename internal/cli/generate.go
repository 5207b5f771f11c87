package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yungbote/lecturenotes-backend/internal/app"
	"github.com/yungbote/lecturenotes-backend/internal/domain/notes"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/flow"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/theme"
)

type generateOptions struct {
	source   string
	mode     string
	out      string
	theme    string
	jsonPath string
}

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	g := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate notes from a transcript and export them as PDF",
		Long: `Generate notes from a transcript source and write the PDF.

The source may be an http(s) URL, a file path, or the transcript text itself.

Examples:
  lecturenotes generate --source lecture.vtt --mode digital
  lecturenotes generate --source https://example.com/t.txt --mode physical --out cells.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts, g)
		},
	}
	cmd.Flags().StringVarP(&g.source, "source", "s", "", "transcript URL, file path or inline text")
	cmd.Flags().StringVarP(&g.mode, "mode", "m", string(notes.ModeDigital), "notes mode: digital or physical")
	cmd.Flags().StringVarP(&g.out, "out", "o", "", "PDF output path (defaults to the title-derived file name)")
	cmd.Flags().StringVar(&g.theme, "theme", "", "theme recorded for the session: light or dark")
	cmd.Flags().StringVar(&g.jsonPath, "json", "", "also write the notes document as JSON to this path")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func runGenerate(cmd *cobra.Command, opts *rootOptions, g *generateOptions) error {
	mode, ok := notes.ParseMode(g.mode)
	if !ok {
		return fmt.Errorf("unknown mode %q", g.mode)
	}
	ctx := cmd.Context()
	log := opts.logger()
	defer log.Sync()

	cfg := app.LoadConfig()
	cfg.LocalSources = true
	a, err := app.NewWithConfig(ctx, log, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	ctrl := a.Services.Flow

	if g.theme != "" {
		t, ok := theme.Parse(g.theme)
		if !ok {
			return fmt.Errorf("unknown theme %q", g.theme)
		}
		_ = ctrl.SetTheme(t)
	}

	if err := ctrl.Submit(g.source); err != nil {
		return err
	}
	opts.infof("generating %s notes...", mode)
	done, err := ctrl.ChooseMode(ctx, mode)
	if err != nil {
		return err
	}
	<-done

	snap := ctrl.Snapshot()
	if snap.State != flow.StateViewing {
		return fmt.Errorf("%s", snap.ErrorMessage)
	}
	if snap.Illustrations != nil {
		opts.infof("illustrations: %d resolved, %d failed", snap.Illustrations.Resolved, snap.Illustrations.Failed)
	}

	if g.jsonPath != "" {
		data, err := json.MarshalIndent(snap.Document, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(g.jsonPath, data, 0o644); err != nil {
			return fmt.Errorf("write notes json: %w", err)
		}
	}

	art, err := ctrl.Export(ctx)
	if err != nil {
		return err
	}
	path := g.out
	if path == "" {
		path = art.FileName
	}
	return writeArtifact(opts, path, art.Data, art.Pages)
}

func writeArtifact(opts *rootOptions, path string, data []byte, pages int) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	opts.okf("wrote %s (%d pages)", path, pages)
	return nil
}
