package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tarkovmcp/tarkovmcp/internal/output"
	"github.com/tarkovmcp/tarkovmcp/internal/tools"
)

var (
	toolsListOutput   string
	toolsListCategory string
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Inspect the MCP tool catalog",
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every tool with its parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(toolsListOutput)
		if err != nil {
			return err
		}

		// Listing never touches the upstream, so no client is needed.
		registry := tools.NewRegistry(nil, nil)
		catalog := registry.Catalog()

		category := strings.ToLower(strings.TrimSpace(toolsListCategory))
		if category != "" {
			filtered := catalog[:0]
			for _, info := range catalog {
				if info.Category == category {
					filtered = append(filtered, info)
				}
			}
			catalog = filtered
		}

		rendered, err := output.FormatTools(format, catalog)
		if err != nil {
			return err
		}
		sink, err := commandSink(cmd, "tools", format.Extension())
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		_, err = fmt.Fprint(sink.writer, ensureTrailingNewline(rendered))
		return err
	},
}

func ensureTrailingNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	toolsCmd.AddCommand(toolsListCmd)

	toolsListCmd.Flags().StringVar(&toolsListOutput, "output-format", "table", "output format: table, json, yaml, markdown")
	toolsListCmd.Flags().StringVar(&toolsListCategory, "category", "", "only list tools in this category")
	addOutputFlags(toolsListCmd)
}
