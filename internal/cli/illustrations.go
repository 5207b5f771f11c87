package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/illustrate"
	"github.com/yungbote/lecturenotes-backend/internal/platform/gcp"
)

func newIllustrationsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "illustrations",
		Short: "Inspect hosted illustrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List illustrations stored in the configured bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ok := gcp.BucketConfigFromEnv()
			if !ok {
				return fmt.Errorf("no illustration bucket configured")
			}
			log := opts.logger()
			defer log.Sync()
			bucket, err := gcp.NewBucketService(cmd.Context(), log, cfg)
			if err != nil {
				return err
			}
			defer bucket.Close()

			keys, err := bucket.ListKeys(cmd.Context(), illustrate.ObjectPrefix)
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintf(opts.out, "%s\t%s\n", k, bucket.GetPublicURL(k))
			}
			opts.okf("%d illustrations", len(keys))
			return nil
		},
	})
	return cmd
}
