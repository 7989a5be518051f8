package cmd

import (
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tarkovmcp/tarkovmcp/internal/core/store"
	"github.com/tarkovmcp/tarkovmcp/internal/observability"
	"github.com/tarkovmcp/tarkovmcp/internal/output"
)

var (
	cacheListOutput    string
	cacheListOperation string
	cacheListAll       bool
	cacheListLimit     int
	cachePurgeExpired  bool
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and purge the response cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached upstream responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(cacheListOutput)
		if err != nil {
			return err
		}

		cfg, err := loadConfig(cmd.Context(), nil)
		if err != nil {
			return err
		}
		db, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		entries, err := db.ListCachedResponses(cmd.Context(), store.CacheQuery{
			Operation:      strings.TrimSpace(cacheListOperation),
			IncludeExpired: cacheListAll,
			Limit:          cacheListLimit,
		})
		if err != nil {
			return err
		}

		sink, err := commandSink(cmd, "cache.list", format.Extension())
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		if format == output.FormatTable && len(entries) == 0 {
			lines := []string{"Response Cache", "", "(no cached responses)"}
			_, err = fmt.Fprint(sink.writer, ascii.DrawBox(strings.Join(lines, "\n"), 0))
			return err
		}

		rendered, err := output.FormatCacheEntries(format, entries)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(sink.writer, ensureTrailingNewline(rendered))
		return err
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete cached responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Context(), nil)
		if err != nil {
			return err
		}
		db, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		removed, err := db.PurgeCachedResponses(cmd.Context(), cachePurgeExpired)
		if err != nil {
			return err
		}

		scope := "all"
		if cachePurgeExpired {
			scope = "expired"
		}
		observability.CLILogger.Debug("Cache purged", zap.String("scope", scope), zap.Int64("removed", removed))

		lines := []string{
			"Response Cache",
			"",
			fmt.Sprintf("Purged %d %s entr%s", removed, scope, pluralSuffix(removed, "y", "ies")),
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), ascii.DrawBox(strings.Join(lines, "\n"), 0))
		return err
	},
}

func pluralSuffix(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cachePurgeCmd)

	cacheListCmd.Flags().StringVar(&cacheListOutput, "output-format", string(output.FormatTable), "output format: table, json, yaml, markdown")
	cacheListCmd.Flags().StringVar(&cacheListOperation, "operation", "", "only list entries for this GraphQL operation")
	cacheListCmd.Flags().BoolVar(&cacheListAll, "all", false, "include expired entries")
	cacheListCmd.Flags().IntVar(&cacheListLimit, "limit", 0, "maximum entries to list (0 for no limit)")
	addOutputFlags(cacheListCmd)

	cachePurgeCmd.Flags().BoolVar(&cachePurgeExpired, "expired", false, "only delete expired entries")
}
