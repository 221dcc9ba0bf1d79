package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foodlink/donation-coordinator/internal/container"
	httpapi "github.com/foodlink/donation-coordinator/internal/interfaces/http"
	"github.com/foodlink/donation-coordinator/pkg/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and notification relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger.Info("Starting donation coordinator",
			zap.String("version", httpapi.Version),
			zap.Int("port", cfg.Server.Port))

		c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
		if err != nil {
			return err
		}
		if err := c.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := c.Close(); err != nil {
				logger.Error("Shutdown finished with errors", zap.Error(err))
			}
		}()

		server := httpapi.NewServer(httpapi.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}, httpapi.Services{
			Lifecycle: c.LifecycleService(),
			Directory: c.DirectoryService(),
			Inbox:     c.InboxService(),
			Health:    c.HealthSummary,
		}, utils.NewKVLogger(logger.Named("http")))

		if err := server.Start(ctx); err != nil {
			return err
		}

		logger.Info("Donation coordinator stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
