package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/openwx/internal/api/http"
)

func newServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the core and expose the command API over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			app, err := loadApp(ctx, stderrLogger)
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					app.Log.Warnw("error during close", "err", err)
				}
			}()

			if err := app.Start(ctx); err != nil {
				return err
			}

			server := httpapi.NewApp(app.Config.LogLevel == "debug")
			httpapi.RegisterRoutes(server, httpapi.Deps{
				Service:   app.Service,
				Bus:       app.Bus,
				Dashboard: app.Dashboard,
				Refresher: app.Scheduler,
				Log:       app.Log,
			})

			addr := app.Config.ListenAddr
			if listen != "" {
				addr = listen
			}

			errCh := make(chan error, 1)
			go func() {
				app.Log.Infow("http api listening", "addr", addr)
				errCh <- server.Listen(addr)
			}()

			select {
			case <-ctx.Done():
			case err := <-errCh:
				return err
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.ShutdownWithContext(shutdownCtx); err != nil {
				app.Log.Warnw("error during shutdown", "err", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "override OPENWX_LISTEN_ADDR")
	return cmd
}
