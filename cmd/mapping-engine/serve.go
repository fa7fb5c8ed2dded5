package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/omarluq/mapping-engine/cmd/mapping-engine/di"
	"github.com/omarluq/mapping-engine/internal/adminapi"
	"github.com/omarluq/mapping-engine/internal/engineconfig"
)

var (
	logLevel  string
	logPretty bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mapping engine's admin server and rehydration sources",
	Long: `Start the Mapping Service, its bound rule and SSM rehydration sources, and
the read-only admin HTTP server that exposes engine health and per-mapping
state.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error) - overrides config")
	serveCmd.Flags().BoolVar(&logPretty, "pretty", false, "use human-readable console logging instead of JSON")
}

func runServe(_ *cobra.Command, _ []string) error {
	container, err := di.NewContainer(resolveConfigPath())
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize services")
		return err
	}

	cfgSvc := di.MustInvoke[*di.ConfigService](container)
	cfg := cfgSvc.Config

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logPretty {
		cfg.Logging.Pretty = true
	}

	logger := setupLogger(cfg.Logging)
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger

	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	cfgSvc.StartWatching(watchCtx)

	adminSvc, err := di.Invoke[*di.AdminServerService](container)
	if err != nil {
		log.Error().Err(err).Msg("failed to create admin server")
		return err
	}

	// Force the optional rehydration sources to initialize (and start their
	// background loops) even though nothing else in the dependency graph
	// requires them.
	if _, err := di.Invoke[*di.RuleProviderService](container); err != nil {
		log.Error().Err(err).Msg("failed to create rule provider sources")
		return err
	}
	if _, err := di.Invoke[*di.AWSSSMService](container); err != nil {
		log.Error().Err(err).Msg("failed to create aws ssm source")
		return err
	}

	return runWithGracefulShutdown(adminSvc.Server, container, cfg.Server.ListenAddr)
}

// setupLogger builds the zerolog root logger from the engine's logging
// config.
func setupLogger(cfg engineconfig.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.EffectiveLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	output := os.Stdout
	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	if cfg.Pretty || isatty.IsTerminal(output.Fd()) {
		logger = logger.Output(zerolog.ConsoleWriter{Out: output})
	}
	return logger
}

// runWithGracefulShutdown handles signal-based graceful shutdown of the
// admin server and the DI container's owned services.
func runWithGracefulShutdown(server *adminapi.Server, container *di.Container, listenAddr string) error {
	done := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info().Msg("shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("admin server shutdown error")
		}
		if err := container.ShutdownWithContext(ctx); err != nil {
			log.Error().Err(err).Msg("service shutdown error")
		}

		close(done)
	}()

	log.Info().Str("listen", listenAddr).Msg("starting mapping-engine")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("admin server error")
		return err
	}

	<-done
	log.Info().Msg("mapping-engine stopped")

	return nil
}
