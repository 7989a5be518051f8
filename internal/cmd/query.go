package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tarkovmcp/tarkovmcp/internal/core/gateway"
	"github.com/tarkovmcp/tarkovmcp/internal/core/tarkov"
	errwrap "github.com/tarkovmcp/tarkovmcp/internal/errors"
	"github.com/tarkovmcp/tarkovmcp/internal/observability"
	"github.com/tarkovmcp/tarkovmcp/internal/output"
)

var (
	queryVars     []string
	queryVarsJSON string
	queryOutput   string
)

var queryCmd = &cobra.Command{
	Use:   "query <file|->",
	Short: "Run a raw GraphQL query through the rate-limited gateway",
	Long: `Run a GraphQL document read from a file (or stdin with '-') and print
the data object. Raw queries share the rate limit but bypass the response cache.

Examples:
  echo 'query Maps { maps { name } }' | tarkov-mcp query -
  tarkov-mcp query item.graphql --var id=5c0530ee86f774697952d952 --output-format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(queryOutput)
		if err != nil {
			return err
		}
		if format == output.FormatTable || format == output.FormatMarkdown {
			format = output.FormatJSON
		}

		document, err := readDocument(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}

		vars, err := parseToolArgs(queryVarsJSON, queryVars)
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

		q := tarkov.Query{
			Name:     gateway.OperationName(document),
			Class:    tarkov.CacheNone,
			Document: document,
		}
		if q.Name == "" {
			q.Name = "anonymous"
		}

		observability.CLILogger.Debug("Running raw query",
			zap.String("operation", q.Name),
			zap.Int("variables", len(vars)))

		data, err := client.Run(cmd.Context(), q, vars)
		if err != nil {
			return errwrap.EnsureEnvelope(err)
		}

		rendered, err := output.Encode(format, data)
		if err != nil {
			return err
		}
		sink, err := commandSink(cmd, q.Name, format.Extension())
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		_, err = fmt.Fprint(sink.writer, ensureTrailingNewline(rendered))
		return err
	},
}

func readDocument(stdin io.Reader, source string) (string, error) {
	var (
		raw []byte
		err error
	)
	if source == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(source)
	}
	if err != nil {
		return "", fmt.Errorf("read query: %w", err)
	}

	document := strings.TrimSpace(string(raw))
	if document == "" {
		return "", errwrap.NewInvalidInputError("query document is empty")
	}
	return document, nil
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringArrayVar(&queryVars, "var", nil, "query variable as key=value (repeatable)")
	queryCmd.Flags().StringVar(&queryVarsJSON, "vars-json", "", "query variables as a JSON object")
	queryCmd.Flags().StringVar(&queryOutput, "output-format", "json", "output format: json or yaml")
	addOutputFlags(queryCmd)
}
