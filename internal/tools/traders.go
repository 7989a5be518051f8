package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tarkovmcp/tarkovmcp/internal/core/tarkov"
)

func traderTools() []Tool {
	return []Tool{
		{
			Category: CategoryTraders,
			Definition: mcp.NewTool("get_traders",
				mcp.WithDescription("Get information about all traders"),
			),
			run: traders,
		},
		{
			Category: CategoryTraders,
			Definition: mcp.NewTool("get_trader_details",
				mcp.WithDescription("Get detailed information about a specific trader"),
				mcp.WithString("trader_name", mcp.Required(), mcp.Description("Name of the trader to get details for")),
			),
			run: traderDetails,
		},
		{
			Category: CategoryTraders,
			Definition: mcp.NewTool("get_trader_items",
				mcp.WithDescription("Get items sold by a specific trader"),
				mcp.WithString("trader_name", mcp.Required(), mcp.Description("Name of the trader")),
				mcp.WithNumber("trader_level", mcp.Description("Trader level (1-4)"), mcp.Min(1), mcp.Max(4)),
			),
			run: traderItems,
		},
	}
}

func traders(ctx context.Context, api API, _ mcp.CallToolRequest) (string, error) {
	all, err := api.Traders(ctx)
	if err != nil {
		return "", failed("getting traders", err)
	}
	if len(all) == 0 {
		return "No traders found", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Available Traders (%d found)\n\n", len(all))
	for _, trader := range all {
		fmt.Fprintf(&b, "## %s\n", nameOr(trader, "Unknown", "name"))
		if desc := tarkov.Str(trader, "description"); desc != "" {
			fmt.Fprintf(&b, "**Description:** %s\n", desc)
		}
		if reset := tarkov.Str(trader, "resetTime"); reset != "" {
			fmt.Fprintf(&b, "**Reset Time:** %s\n", reset)
		}
		fmt.Fprintf(&b, "**Accepts:** %s\n", nameOr(trader, "Unknown", "currency", "name"))
		if levels := tarkov.List(trader, "levels"); len(levels) > 0 {
			fmt.Fprintf(&b, "**Loyalty Levels:** %d\n", len(levels))
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func traderDetails(ctx context.Context, api API, req mcp.CallToolRequest) (string, error) {
	name, err := requiredString(req, "trader_name")
	if err != nil {
		return "", err
	}
	trader, err := api.TraderByName(ctx, name)
	if errors.Is(err, tarkov.ErrNotFound) {
		return fmt.Sprintf("No trader found with name: %s", name), nil
	}
	if err != nil {
		return "", failed("getting trader details", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", nameOr(trader, name, "name"))
	if desc := tarkov.Str(trader, "description"); desc != "" {
		fmt.Fprintf(&b, "**Description:** %s\n\n", desc)
	}

	b.WriteString("## Trader Information\n")
	if reset := tarkov.Str(trader, "resetTime"); reset != "" {
		fmt.Fprintf(&b, "• **Reset Time:** %s\n", reset)
	}
	fmt.Fprintf(&b, "• **Accepts:** %s\n", nameOr(trader, "Unknown", "currency", "name"))
	if discount, ok := tarkov.Num(trader, "discount"); ok && discount != 0 {
		fmt.Fprintf(&b, "• **Discount:** %s\n", signedPercent(discount*100))
	}

	if levels := tarkov.List(trader, "levels"); len(levels) > 0 {
		b.WriteString("\n## Loyalty Levels\n")
		for _, level := range levels {
			fmt.Fprintf(&b, "### Level %d\n", intOr(level, 0, "level"))
			if v, ok := tarkov.Num(level, "requiredPlayerLevel"); ok {
				fmt.Fprintf(&b, "• **Required Player Level:** %.0f\n", v)
			}
			if v, ok := tarkov.Num(level, "requiredReputation"); ok {
				fmt.Fprintf(&b, "• **Required Reputation:** %.2f\n", v)
			}
			if v, ok := tarkov.Num(level, "requiredCommerce"); ok {
				fmt.Fprintf(&b, "• **Required Commerce:** %s\n", roubles(v))
			}
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

func traderItems(ctx context.Context, api API, req mcp.CallToolRequest) (string, error) {
	name, err := requiredString(req, "trader_name")
	if err != nil {
		return "", err
	}
	level, err := intArg(req, "trader_level", 0)
	if err != nil {
		return "", err
	}
	if level < 0 || level > 4 {
		return "", invalidArgument("'trader_level' must be between 1 and 4")
	}
	levelText := ""
	if level > 0 {
		levelText = fmt.Sprintf(" (Level %d)", level)
	}

	offers, err := api.TraderItems(ctx, name, level)
	if errors.Is(err, tarkov.ErrNotFound) {
		return fmt.Sprintf("No trader found with name: %s", name), nil
	}
	if err != nil {
		return "", failed("getting trader items", err)
	}
	if len(offers) == 0 {
		return fmt.Sprintf("No items found for trader %s%s", name, levelText), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s Items%s\n\n", name, levelText)
	fmt.Fprintf(&b, "Found %d items:\n\n", len(offers))
	for _, offer := range offers {
		price, _ := tarkov.Num(offer, "price")
		fmt.Fprintf(&b, "• **%s**\n", itemLabel(tarkov.Obj(offer, "item")))
		fmt.Fprintf(&b, "  - Price: %s %s\n", grouped(int64(price)), nameOr(offer, "RUB", "currency"))
		fmt.Fprintf(&b, "  - Min Level: %d\n", intOr(offer, 1, "minTraderLevel"))
		if limit, ok := tarkov.Num(offer, "buyLimit"); ok && limit > 0 {
			fmt.Fprintf(&b, "  - Buy Limit: %.0f\n", limit)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}
