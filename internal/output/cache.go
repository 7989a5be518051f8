package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/tarkovmcp/tarkovmcp/internal/core/store"
)

// FormatCacheEntries renders response cache rows.
func FormatCacheEntries(format Format, entries []store.CacheEntry) (string, error) {
	if entries == nil {
		entries = []store.CacheEntry{}
	}
	switch format {
	case FormatJSON, FormatYAML:
		return Encode(format, entries)
	case FormatMarkdown:
		var sb strings.Builder
		sb.WriteString("| Operation | Variables | Bytes | Hits | Expires | Key |\n")
		sb.WriteString("|-----------|-----------|-------|------|---------|-----|\n")
		for _, e := range entries {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %s | %s |\n",
				escapeMarkdownCell(e.Operation),
				escapeMarkdownCell(variablesLabel(e.Variables)),
				e.Bytes,
				e.Hits,
				expiryLabel(e),
				shortKey(e.Key),
			))
		}
		return sb.String(), nil
	default:
		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Operation", "Variables", "Bytes", "Hits", "Expires", "Key"})
		total := 0
		for _, e := range entries {
			total += e.Bytes
			t.AppendRow(table.Row{e.Operation, variablesLabel(e.Variables), e.Bytes, e.Hits, expiryLabel(e), shortKey(e.Key)})
		}
		t.AppendFooter(table.Row{fmt.Sprintf("%d entries", len(entries)), "", total, "", "", ""})
		return t.Render(), nil
	}
}

func variablesLabel(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" || raw == "{}" {
		return "-"
	}
	return raw
}

func expiryLabel(e store.CacheEntry) string {
	label := e.ExpiresAt.UTC().Format(time.RFC3339)
	if e.Expired {
		label += " (expired)"
	}
	return label
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
