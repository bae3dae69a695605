package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/i474232898/openwx/internal/config"
	"github.com/i474232898/openwx/internal/logger"
	"github.com/i474232898/openwx/internal/session"
	"github.com/i474232898/openwx/internal/surface"
	"github.com/i474232898/openwx/internal/ui/widget"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the core with the terminal companion widget",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			var logFile *os.File
			fileLogger := func(cfg *config.AppConfig) (*logger.Logger, error) {
				if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
					return nil, fmt.Errorf("create data dir: %w", err)
				}
				f, err := os.OpenFile(filepath.Join(cfg.DataDir, "openwx.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
				if err != nil {
					return nil, fmt.Errorf("open log file: %w", err)
				}
				logFile = f
				return logger.NewWriter(cfg.LogLevel, f), nil
			}

			app, err := loadApp(ctx, fileLogger)
			if err != nil {
				return err
			}
			defer func() {
				_ = app.Close()
				if logFile != nil {
					_ = logFile.Close()
				}
			}()

			w := surface.NewWidget(app.Bus, app.Log)
			defer w.Close()

			p := tea.NewProgram(widget.New(w), tea.WithContext(ctx))
			w.OnUpdate(func(v session.View) { p.Send(widget.ViewMsg(v)) })
			w.Start(ctx)

			if err := app.Start(ctx); err != nil {
				return err
			}

			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return err
			}
			return nil
		},
	}
}
