package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/fitpress"
	"github.com/eringen/fitpress/log"
	"github.com/eringen/fitpress/views"
)

var serveCMD = &cobra.Command{
	Use:   "serve",
	Short: "run the web server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app := fitpress.New(cfg, views.Default(cfg))
		if err := app.Setup(ctx); err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() { errCh <- app.Start() }()

		select {
		case err := <-errCh:
			_ = app.Close()
			return err
		case <-ctx.Done():
		}

		log.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Shutdown(shutdownCtx); err != nil {
			log.Logger.Error("shutdown", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	rootCMD.AddCommand(serveCMD)
}
