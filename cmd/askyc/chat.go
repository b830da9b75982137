package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/askyc/askyc-go/internal/catalog"
	"github.com/askyc/askyc-go/internal/chat"
	"github.com/askyc/askyc-go/internal/client"
)

var (
	relayURL  string
	model     string
	webSearch bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Chat with the backend through the relay",
	Long: `Without arguments, reads one question per line from stdin until EOF.
With arguments, asks them as a single question and exits.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&relayURL, "relay", "", "relay base URL (default derived from address)")
	chatCmd.Flags().StringVar(&model, "model", "", "model identifier (default: first configured model)")
	chatCmd.Flags().BoolVar(&webSearch, "web-search", false, "ask the backend to search the web")
}

func runChat(cmd *cobra.Command, args []string) error {
	base := relayURL
	if base == "" {
		base = localURL(cfg.Address)
	}
	cat := catalog.New(cfg.Models)
	if model != "" {
		if _, ok := cat.Lookup(model); !ok {
			return fmt.Errorf("unknown model %q", model)
		}
	}

	session := chat.NewSession(client.New(base, nil), cat, logger.Named("chat"))
	out := chat.NewTerminal(cmd.OutOrStdout())
	opts := chat.Options{Model: model, WebSearch: webSearch}

	if len(args) > 0 {
		_, err := session.Send(cmd.Context(), strings.Join(args, " "), opts, out)
		return err
	}

	in := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(cmd.ErrOrStderr(), "> ")
		if !in.Scan() {
			break
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		if _, err := session.Send(cmd.Context(), line, opts, out); err != nil {
			var se *client.StatusError
			if errors.As(err, &se) {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", se)
				continue
			}
			if cmd.Context().Err() != nil {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
		}
	}
	if err := in.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// localURL turns a listen address such as ":3000" into a dialable URL.
func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
