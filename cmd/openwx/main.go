package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/i474232898/openwx/internal/bootstrap"
	"github.com/i474232898/openwx/internal/config"
	"github.com/i474232898/openwx/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "openwx",
		Short:         "Weather dashboard core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newWeatherCmd())
	root.AddCommand(newForecastCmd())
	root.AddCommand(newFavoritesCmd())
	return root
}

// loadApp reads configuration and wires the core with a logger at the configured level.
func loadApp(ctx context.Context, log func(cfg *config.AppConfig) (*logger.Logger, error)) (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	l, err := log(cfg)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(ctx, cfg, l, bootstrap.Options{})
}

func stderrLogger(cfg *config.AppConfig) (*logger.Logger, error) {
	return logger.New(cfg.LogLevel), nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// commandTimeout bounds one-shot CLI commands.
const commandTimeout = 30 * time.Second
