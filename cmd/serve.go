package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"clipforge/internal/app"
	"clipforge/pkg/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduled-publish dispatcher",
	Long: `Run in the foreground, periodically dispatching publish attempts whose
scheduled time has come due.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := config.Load()
	service, err := app.BuildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = service.Close() }()

	scheduler := service.Scheduler()
	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	defer scheduler.Stop()

	// Catch up immediately on anything that came due while offline.
	scheduler.Sweep(ctx)

	slog.Info("scheduled-publish dispatcher running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		slog.Info("shutting down")
	case <-ctx.Done():
	}
	return nil
}
