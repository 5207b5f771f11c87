package cli

import (
	"github.com/spf13/cobra"

	"github.com/yungbote/lecturenotes-backend/internal/app"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the notes HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			opts.infof("listening on :%s", a.Cfg.Port)
			return a.Run(cmd.Context())
		},
	}
}
