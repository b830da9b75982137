package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/askyc/askyc-go/internal/catalog"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the configured models",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := catalog.New(cfg.Models)
		def := cat.Default().Identifier
		for _, m := range cat.Models() {
			marker := " "
			if m.Identifier == def {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %-24s %s\n", marker, m.Identifier, m.DisplayName)
		}
		return nil
	},
}
