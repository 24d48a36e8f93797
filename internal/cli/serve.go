package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/funcfeed/funcfeed/internal/server"
	"github.com/funcfeed/funcfeed/pkg/ci"
	"github.com/funcfeed/funcfeed/pkg/feed"
	"github.com/funcfeed/funcfeed/pkg/memo"
	"github.com/funcfeed/funcfeed/pkg/registry"
)

// shutdownGrace is how long in-flight requests get to finish on shutdown.
const shutdownGrace = 10 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Long:  `Serve the aggregation and registry endpoints over HTTP until interrupted.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := LoadConfig(*configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.Addr = listen
			}

			aggregator, probe := buildComponents(cfg)
			srv := server.New(cfg.Server.Addr, logger, aggregator, probe)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down", "grace", shutdownGrace)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (overrides server.addr from config)")
	return cmd
}

// buildComponents wires the shared memoization store into the CI collector
// and builds the aggregator and registry probe from config.
func buildComponents(cfg Config) (*feed.Aggregator, *registry.Probe) {
	collector := newCollector(cfg)

	aggregator := feed.NewAggregator(collector, feed.Config{
		ProjectName:                cfg.CI.Project,
		FeedURL:                    cfg.Feed.URL,
		CDNRoot:                    cfg.Feed.CDNRoot,
		ItemTemplateURLTemplate:    cfg.Feed.ItemTemplateURLTemplate,
		ProjectTemplateURLTemplate: cfg.Feed.ProjectTemplateURLTemplate,
	})

	probe := registry.NewProbe(cfg.Registry.Sources, cfg.Registry.Packages)
	return aggregator, probe
}

func newCollector(cfg Config) *ci.Collector {
	return ci.NewCollector(ci.Config{
		BaseURL:        cfg.CI.BaseURL,
		Account:        cfg.CI.Account,
		Token:          cfg.CI.Token(),
		TemplatePrefix: cfg.CI.TemplatePrefix,
	}, memo.NewStore(memo.DefaultOptions()))
}
