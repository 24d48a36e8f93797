package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/funcfeed/funcfeed/pkg/buildinfo"
)

// Execute runs the funcfeed CLI and returns an error if any command fails.
//
// The root command wires the --verbose and --config persistent flags and
// attaches a logger to the context for all subcommands.
func Execute(ctx context.Context) error {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:          "funcfeed",
		Short:        "Funcfeed aggregates CI artifacts into a release feed",
		Long:         `Funcfeed collects build-artifact metadata from CI, queries package registries for the newest template versions, and produces updated release-feed entries.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "funcfeed.toml", "path to the TOML configuration file")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newFeedCmd(&configPath))
	root.AddCommand(newPackagesCmd(&configPath))
	root.AddCommand(newCompletionCmd())

	return root.ExecuteContext(ctx)
}
