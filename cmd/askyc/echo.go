package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/askyc/askyc-go/internal/backend/echo"
	"github.com/askyc/askyc-go/internal/server"
	"github.com/askyc/askyc-go/internal/sources"
)

var (
	echoAddr    string
	echoDelay   time.Duration
	echoSources []string
)

var echoCmd = &cobra.Command{
	Use:   "echo-backend",
	Short: "Run a local backend that echoes the last question",
	Long: `Serves POST /stream, answering with "Echo: <question>" word by word.
Each --source title=url is sent back in a trailing data-sources chunk.

Example:
  askyc echo-backend --source "Startup School=https://example.com/ss"`,
	RunE: runEcho,
}

func init() {
	echoCmd.Flags().StringVar(&echoAddr, "addr", ":8000", "listen address")
	echoCmd.Flags().DurationVar(&echoDelay, "delay", 50*time.Millisecond, "pause between words")
	echoCmd.Flags().StringArrayVar(&echoSources, "source", nil, "source as title=url, repeatable")
}

func runEcho(cmd *cobra.Command, args []string) error {
	list, err := parseSources(echoSources)
	if err != nil {
		return err
	}
	b := echo.New(echo.WithSources(list), echo.WithDelay(echoDelay), echo.WithLogger(logger.Named("echo")))
	srv := &http.Server{Addr: echoAddr, Handler: b.Handler(), ReadHeaderTimeout: 10 * time.Second}
	logger.Info("echo backend listening", zap.String("address", echoAddr), zap.Int("sources", len(list)))
	return server.Run(cmd.Context(), srv)
}

func parseSources(raw []string) ([]sources.Source, error) {
	var out []sources.Source
	for _, r := range raw {
		title, url, ok := strings.Cut(r, "=")
		if !ok || title == "" {
			return nil, fmt.Errorf("invalid source %q, want title=url", r)
		}
		out = append(out, sources.Source{Title: title, URL: url})
	}
	return out, nil
}
