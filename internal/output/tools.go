package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/tarkovmcp/tarkovmcp/internal/tools"
)

// FormatTools renders the tool catalog.
func FormatTools(format Format, catalog []tools.Info) (string, error) {
	switch format {
	case FormatJSON, FormatYAML:
		return Encode(format, catalog)
	case FormatMarkdown:
		return toolsMarkdown(catalog), nil
	default:
		return toolsTable(catalog), nil
	}
}

func toolsTable(catalog []tools.Info) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Category", "Tool", "Parameters", "Description"})
	for _, info := range catalog {
		t.AppendRow(table.Row{info.Category, info.Name, paramSummary(info.Params), info.Description})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d tools", len(catalog)), "", ""})
	return t.Render()
}

func toolsMarkdown(catalog []tools.Info) string {
	var sb strings.Builder
	sb.WriteString("| Category | Tool | Parameters | Description |\n")
	sb.WriteString("|----------|------|------------|-------------|\n")
	for _, info := range catalog {
		sb.WriteString(fmt.Sprintf("| %s | `%s` | %s | %s |\n",
			escapeMarkdownCell(info.Category),
			info.Name,
			escapeMarkdownCell(paramSummary(info.Params)),
			escapeMarkdownCell(info.Description),
		))
	}
	return sb.String()
}

// paramSummary lists parameters as name:type, marking required ones with *.
func paramSummary(params []tools.Param) string {
	if len(params) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(params))
	for _, p := range params {
		part := p.Name
		if p.Type != "" {
			part += ":" + p.Type
		}
		if p.Required {
			part += "*"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}
