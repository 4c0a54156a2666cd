package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/trackivity/web-bff/internal/config"
	"github.com/trackivity/web-bff/internal/di"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "trackivity-bff",
	Short:         "Trackivity web gateway: sessions, auth gating, and backend proxying",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "environment file to load before reading configuration")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnvFile(envFile); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := di.InitializeApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	return application.Run(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
