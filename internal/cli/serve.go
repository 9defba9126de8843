package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackrecipe/internal/server"
	"github.com/matzehuels/stackrecipe/pkg/config"
	"github.com/matzehuels/stackrecipe/pkg/pipeline"
)

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		envFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the resolution API over HTTP",
		Long: `Run the HTTP API. Configuration comes from the environment and an optional
.env file:

  STACKRECIPE_ADDR         listen address (default :8080)
  STACKRECIPE_CACHE        file, lru, redis or none (default file)
  STACKRECIPE_CACHE_TTL    cache entry lifetime (default 24h)
  STACKRECIPE_REDIS_URL    redis://host:6379/0 when STACKRECIPE_CACHE=redis
  STACKRECIPE_MONGO_URI    store locks in MongoDB instead of memory
  STACKRECIPE_MONGO_DB     MongoDB database (default stackrecipe)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			cc, err := cfg.OpenCache(ctx)
			if err != nil {
				return err
			}
			st, err := cfg.OpenStore(ctx)
			if err != nil {
				cc.Close()
				return err
			}
			defer st.Close(context.WithoutCancel(ctx))

			runner := pipeline.NewRunner(cc, nil, c.Logger)
			runner.TTL = cfg.Cache.TTL
			defer runner.Close()

			c.Logger.Info("starting server", "addr", cfg.Addr, "cache", cfg.Cache.Backend, "mongo", cfg.Mongo.URI != "")
			return server.New(runner, st, c.Logger).ListenAndServe(ctx, cfg.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides STACKRECIPE_ADDR)")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	return cmd
}
