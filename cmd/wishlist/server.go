package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"wishlist/internal/server"
	"wishlist/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the item store HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := store.Open(ctx, cfg.StoreOptions(), logger)
		if err != nil {
			return fmt.Errorf("open %s store: %w", cfg.Backend, err)
		}
		defer func() {
			if err := st.Close(); err != nil {
				logger.Warn("Failed to close store", zap.Error(err))
			}
		}()

		srv := server.NewServer(st, logger)
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start(cfg.Addr) }()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("Goodbye!")
		return nil
	},
}
