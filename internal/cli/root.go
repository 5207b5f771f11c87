package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yungbote/lecturenotes-backend/internal/app"
	"github.com/yungbote/lecturenotes-backend/internal/platform/logger"
)

type rootOptions struct {
	verbose bool
	out     io.Writer
	errOut  io.Writer
}

func (o *rootOptions) logger() *logger.Logger {
	if !o.verbose {
		return logger.Nop()
	}
	log, err := logger.New("development")
	if err != nil {
		return logger.Nop()
	}
	return log
}

func (o *rootOptions) okf(format string, args ...any) {
	fmt.Fprintln(o.out, color.GreenString(format, args...))
}

func (o *rootOptions) infof(format string, args ...any) {
	fmt.Fprintln(o.out, color.CyanString(format, args...))
}

// NewRootCmd builds the lecturenotes command tree writing to out and errOut.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &rootOptions{out: out, errOut: errOut}
	root := &cobra.Command{
		Use:   "lecturenotes",
		Short: "Turn lecture transcripts into structured notes",
		Long: `lecturenotes generates structured study notes from a lecture transcript.

Digital notes carry key topics, charts and practice questions and are
illustrated with generated images. Physical notes are a notebook-style
layout meant for copying by hand. Either can be exported as a paginated
PDF.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.LoadDotEnv(nil)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline progress to stderr")

	root.AddCommand(
		newServeCmd(opts),
		newGenerateCmd(opts),
		newRenderCmd(opts),
		newIllustrationsCmd(opts),
	)
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute(ctx context.Context) {
	cmd := NewRootCmd(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}
