package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

func newPackagesCmd(configPath *string) *cobra.Command {
	var prerelease bool

	cmd := &cobra.Command{
		Use:   "packages",
		Short: "Report the newest package versions per registry",
		Long:  `Query every configured registry for the newest published version of each configured package and print the reports as JSON.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(*configPath)
			if err != nil {
				return err
			}

			_, probe := buildComponents(cfg)

			reports, err := probe.Collect(cmd.Context(), prerelease)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(reports)
		},
	}

	cmd.Flags().BoolVar(&prerelease, "pre-release", false, "also report the newest prerelease versions")
	return cmd
}
