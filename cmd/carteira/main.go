package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/carteiralab/carteira/internal/common"
	"github.com/carteiralab/carteira/internal/fx"
	"github.com/carteiralab/carteira/internal/market"
	"github.com/carteiralab/carteira/internal/storage"
	marketsync "github.com/carteiralab/carteira/internal/sync"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// configPaths is a custom flag type that allows multiple -config flags.
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles configPaths
	refreshNow  = flag.Bool("refresh", false, "Run one forced refresh cycle and exit")
	showVersion = flag.Bool("version", false, "Print version information")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("carteira version %s\n", version)
		os.Exit(0)
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		for _, path := range []string{"carteira.toml", "docker/carteira.toml"} {
			if _, err := os.Stat(path); err == nil {
				configFiles = append(configFiles, path)
				break
			}
		}
	}

	cfg, err := common.LoadConfig(configFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := common.NewLoggerFromConfig(cfg.Logging)
	logger.Info().
		Str("version", version).
		Str("environment", cfg.Environment).
		Str("config_files", fmt.Sprintf("%v", configFiles)).
		Msg("starting carteira")

	store, err := storage.NewStorageManager(logger, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open storage")
		os.Exit(1)
	}
	client := market.NewClient(&cfg.Clients.Yahoo, logger)
	fxCache := fx.NewCache(&cfg.Clients.FX, client, logger)
	client.SetRater(fxCache)

	orch := marketsync.NewOrchestrator(store.Assets(), client, logger)
	scheduler := marketsync.NewScheduler(orch, &cfg.Sync, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *refreshNow {
		started := scheduler.TriggerIfDue(ctx, true, true)
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("storage shutdown failed")
		}
		if !started {
			logger.Warn().Msg("refresh not started, sync is disabled")
			os.Exit(1)
		}
		return
	}

	scheduler.Start(ctx)
	logger.Info().
		Bool("enabled", cfg.Sync.Enabled).
		Str("interval", cfg.Sync.GetInterval().String()).
		Msg("market sync scheduler ready")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutdown signal received")

	cancel()
	scheduler.Stop()

	if err := store.Close(); err != nil {
		logger.Error().Err(err).Msg("storage shutdown failed")
	}
}
