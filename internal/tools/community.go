package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tarkovmcp/tarkovmcp/internal/core/tarkov"
)

func communityTools() []Tool {
	return []Tool{
		{
			Category: CategoryCommunity,
			Definition: mcp.NewTool("get_goon_reports",
				mcp.WithDescription("Get recent goon squad sighting reports from the community"),
				mcp.WithNumber("limit", mcp.Description("Maximum number of reports to return"), mcp.DefaultNumber(10), mcp.Min(1), mcp.Max(100)),
			),
			run: goonReports,
		},
	}
}

func goonReports(ctx context.Context, api API, req mcp.CallToolRequest) (string, error) {
	limit, err := boundedInt(req, "limit", 10, 1, 100)
	if err != nil {
		return "", err
	}

	reports, err := api.GoonReports(ctx, limit)
	if err != nil {
		return "", failed("getting goon reports", err)
	}
	if len(reports) == 0 {
		return "No goon squad reports found", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Recent Goon Squad Reports (%d reports)\n\n", len(reports))
	for _, report := range reports {
		fmt.Fprintf(&b, "## %s\n", nameOr(report, "Unknown Map", "map", "name"))
		fmt.Fprintf(&b, "**Time:** %s\n\n", reportTime(tarkov.Str(report, "timestamp")))
		b.WriteString("---\n\n")
	}
	b.WriteString("\n💡 **Note:** Goon squads are roaming boss groups that can appear on various maps. ")
	b.WriteString("These reports are community-driven and may not be 100% accurate.\n")
	return b.String(), nil
}
