package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

func newFeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "feed <build>",
		Short: "Aggregate one build into a feed entry",
		Long:  `Collect the artifacts of the given CI build, overlay them onto the most recent published release, and print the resulting entry as JSON.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := LoadConfig(*configPath)
			if err != nil {
				return err
			}

			aggregator, _ := buildComponents(cfg)

			logger.Debug("aggregating", "build", args[0])
			entry, err := aggregator.Run(ctx, args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entry)
		},
	}
}
