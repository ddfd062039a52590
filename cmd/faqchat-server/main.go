package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"faqchat/internal/config"
	"faqchat/internal/db"
	"faqchat/internal/logging"
	"faqchat/internal/server"
	"faqchat/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("faqchat-server failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()

	root := &cobra.Command{
		Use:           "faqchat-server",
		Short:         "FAQ chat backend: fuzzy question search over a websocket",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Setup(cfg.LogLevel, cfg.LogFormat)
		},
	}
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&cfg.DatabaseDriver, "db-driver", cfg.DatabaseDriver, "database driver: postgres or sqlite3")
	root.PersistentFlags().StringVar(&cfg.DatabaseURL, "db-url", cfg.DatabaseURL, "database connection string; empty keeps the catalogue in memory")

	root.AddCommand(newServeCmd(&cfg), newMigrateCmd(&cfg), newSeedCmd(&cfg), newExportCmd(&cfg))
	return root
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat websocket, the HTTP API and pictures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, *cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.Port, "port", cfg.Port, "HTTP port")
	cmd.Flags().StringVar(&cfg.SeedFile, "seed-file", cfg.SeedFile, "YAML catalogue applied on start")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	s, err := server.NewServer(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		<-egCtx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	eg.Go(func() error {
		log.Info().Str("addr", httpServer.Addr).Msg("faqchat server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	return eg.Wait()
}

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.New(cmd.Context(), cfg.DatabaseDriver, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer database.Close()
			if err := database.RunMigrations(cmd.Context()); err != nil {
				return err
			}
			log.Info().Msg("database migrations completed")
			return nil
		},
	}
}

func newSeedCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Load a YAML catalogue into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DatabaseURL == "" {
				return errors.New("seed needs a database: set DB_URL or --db-url")
			}
			c := *cfg
			c.SeedFile = ""
			catalog, database, err := server.OpenCatalog(cmd.Context(), c)
			if err != nil {
				return err
			}
			defer database.Close()

			n, err := server.SeedFrom(cmd.Context(), catalog, args[0])
			if err != nil {
				return err
			}
			log.Info().Int("questions", n).Str("file", args[0]).Msg("catalogue seeded")
			return nil
		},
	}
}

func newExportCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write the database catalogue to a YAML seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DatabaseURL == "" {
				return errors.New("export needs a database: set DB_URL or --db-url")
			}
			c := *cfg
			c.SeedFile = ""
			catalog, database, err := server.OpenCatalog(cmd.Context(), c)
			if err != nil {
				return err
			}
			defer database.Close()

			seed, err := store.Export(cmd.Context(), catalog)
			if err != nil {
				return err
			}
			if err := store.WriteSeedFile(args[0], seed); err != nil {
				return err
			}
			log.Info().Int("groups", len(seed.Groups)).Str("file", args[0]).Msg("catalogue exported")
			return nil
		},
	}
}
