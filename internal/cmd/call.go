package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	errwrap "github.com/tarkovmcp/tarkovmcp/internal/errors"
	"github.com/tarkovmcp/tarkovmcp/internal/observability"
	"github.com/tarkovmcp/tarkovmcp/internal/tools"
)

var (
	callArgs     []string
	callArgsJSON string
)

var callCmd = &cobra.Command{
	Use:   "call <tool>",
	Short: "Call one tool and print its Markdown result",
	Long: `Call a tool outside MCP. Arguments are passed as --arg key=value pairs
(values are decoded as JSON when possible, otherwise taken as strings) or as a
single --args-json object.

Examples:
  tarkov-mcp call search_items --arg name=ledx
  tarkov-mcp call get_trader_items --arg trader_name=Prapor --arg trader_level=2
  tarkov-mcp call compare_items --args-json '{"item_names":["ledx","gpu"]}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arguments, err := parseToolArgs(callArgsJSON, callArgs)
		if err != nil {
			return errwrap.NewInvalidInputError(err.Error())
		}

		cfg, err := loadConfig(cmd.Context(), nil)
		if err != nil {
			return err
		}

		client, closeStore, err := newClient(cmd.Context(), cfg, observability.CLILogger)
		if err != nil {
			return err
		}
		defer closeStore()

		registry := tools.NewRegistry(client, observability.CLILogger)
		result, err := registry.Call(cmd.Context(), args[0], arguments)
		if err != nil {
			if errors.Is(err, tools.ErrUnknownTool) {
				return errwrap.NewNotFoundError(fmt.Sprintf("unknown tool %q (see 'tools list')", args[0]))
			}
			return err
		}

		text := tools.ResultText(result)
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), text); err != nil {
			return err
		}
		if result.IsError {
			return fmt.Errorf("tool %s returned an error", args[0])
		}
		return nil
	},
}

// parseToolArgs merges a JSON object with key=value pairs; pairs win.
func parseToolArgs(raw string, pairs []string) (map[string]any, error) {
	arguments := map[string]any{}
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &arguments); err != nil {
			return nil, fmt.Errorf("--args-json must be a JSON object: %w", err)
		}
	}

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q must be key=value", pair)
		}
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			arguments[key] = decoded
		} else {
			arguments[key] = value
		}
	}
	return arguments, nil
}

func init() {
	rootCmd.AddCommand(callCmd)

	callCmd.Flags().StringArrayVar(&callArgs, "arg", nil, "tool argument as key=value (repeatable)")
	callCmd.Flags().StringVar(&callArgsJSON, "args-json", "", "tool arguments as a JSON object")
}
