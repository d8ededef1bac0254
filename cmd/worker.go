/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/recipebox/webapp/config"
	"github.com/recipebox/webapp/internal/logging"
	"github.com/recipebox/webapp/internal/mq"
	"github.com/recipebox/webapp/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// workerCmd consumes image release events and deletes the stored objects.
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Deletes released recipe images",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := logging.New(cfg.Log, cfg.Env == "dev")
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		objects, err := storage.NewFromConfig(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		queue, err := mq.NewFromConfig(ctx, cfg.MQ)
		if err != nil {
			return fmt.Errorf("mq: %w", err)
		}
		if queue == nil {
			return errors.New("MQ_BACKEND is required to run the worker")
		}
		defer func() { _ = queue.Close() }()

		logger.Info("image worker started",
			zap.String("backend", cfg.MQ.Backend),
			zap.String("channel", cfg.MQ.ImageChannel),
		)
		err = queue.Subscribe(ctx, cfg.MQ.ImageChannel, mq.ImageJanitor(objects, logger))
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
