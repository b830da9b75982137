package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/askyc/askyc-go/internal/observability"
	"github.com/askyc/askyc-go/internal/server"
)

var printConfig bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay",
	Long: `Serves POST /api/stream and forwards each request to <backend_url>/stream,
streaming the answer back as it arrives.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&printConfig, "print-config", false, "print the effective config and exit")
}

func runServe(cmd *cobra.Command, args []string) error {
	if printConfig {
		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}

	ctx := cmd.Context()
	tp, err := observability.Setup(ctx, cfg.TelemetryURL)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	return server.New(cfg, logger).Start(ctx)
}
