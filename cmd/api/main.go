package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/eskrenkovic/turn-tracker/internal/config"
	"github.com/eskrenkovic/turn-tracker/internal/env"
	"github.com/eskrenkovic/turn-tracker/internal/modules/core"
	"github.com/eskrenkovic/turn-tracker/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "turn-tracker",
		Short:         "Turn tracker for two-player play-by-cloud games",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newVAPIDKeysCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	var configDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if err := env.LoadFiles(
				path.Join(configDir, "config.local.env"),
				path.Join(configDir, "config.env"),
			); err != nil {
				return err
			}

			config, err := config.Load()
			if err != nil {
				return err
			}

			srv, err := server.NewHTTPServer(config)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			errs := make(chan error, 1)
			go func() {
				errs <- srv.Start()
			}()

			select {
			case err = <-errs:
			case <-ctx.Done():
				config.Logger.Info("shutting down", zap.String("reason", ctx.Err().Error()))
			}

			if stopErr := srv.Stop(); stopErr != nil {
				return stopErr
			}

			return err
		},
	}

	cmd.Flags().StringVar(&configDir, "config-dir", ".", "Directory containing config.env and config.local.env")
	return cmd
}

func newVAPIDKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "vapid-keys",
		Short: "Generate a VAPID key pair for web push",
		RunE: func(cmd *cobra.Command, args []string) error {
			publicKey, privateKey, err := core.GenerateVAPIDKeys()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "VAPID_PUBLIC_KEY=%s\nVAPID_PRIVATE_KEY=%s\n", publicKey, privateKey)
			return nil
		},
	}
}
