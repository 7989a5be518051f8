package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tarkovmcp/tarkovmcp/internal/core/tarkov"
)

func marketTools() []Tool {
	return []Tool{
		{
			Category: CategoryMarket,
			Definition: mcp.NewTool("get_flea_market_data",
				mcp.WithDescription("Get current flea market data and prices"),
				mcp.WithNumber("limit", mcp.Description("Maximum number of items to return"), mcp.DefaultNumber(50), mcp.Min(1), mcp.Max(500)),
			),
			run: fleaMarket,
		},
		{
			Category: CategoryMarket,
			Definition: mcp.NewTool("get_barter_trades",
				mcp.WithDescription("Get available barter trades from traders"),
				mcp.WithNumber("limit", mcp.Description("Maximum number of barters to return"), mcp.DefaultNumber(30), mcp.Min(1), mcp.Max(200)),
			),
			run: barterTrades,
		},
		{
			Category: CategoryMarket,
			Definition: mcp.NewTool("calculate_barter_profit",
				mcp.WithDescription("Calculate profit/loss for a specific barter trade"),
				mcp.WithString("barter_id", mcp.Required(), mcp.Description("ID of the barter trade to analyze")),
			),
			run: barterProfit,
		},
		{
			Category: CategoryMarket,
			Definition: mcp.NewTool("get_ammo_data",
				mcp.WithDescription("Get ammunition statistics and prices"),
				mcp.WithString("caliber", mcp.Description("Filter by ammunition caliber (e.g. '5.56x45mm', '7.62x39mm')")),
				mcp.WithNumber("limit", mcp.Description("Maximum number of ammo types to return"), mcp.DefaultNumber(50), mcp.Min(1), mcp.Max(500)),
			),
			run: ammoData,
		},
		{
			Category: CategoryMarket,
			Definition: mcp.NewTool("get_hideout_modules",
				mcp.WithDescription("Get hideout modules and their construction requirements"),
			),
			run: hideoutModules,
		},
		{
			Category: CategoryMarket,
			Definition: mcp.NewTool("get_crafts",
				mcp.WithDescription("Get hideout crafting recipes with cost and profit"),
				mcp.WithNumber("limit", mcp.Description("Maximum number of crafts to return"), mcp.DefaultNumber(50), mcp.Min(1), mcp.Max(500)),
				mcp.WithString("station", mcp.Description("Filter by station name (partial match)")),
			),
			run: crafts,
		},
	}
}

func fleaMarket(ctx context.Context, api API, req mcp.CallToolRequest) (string, error) {
	limit, err := boundedInt(req, "limit", 50, 1, 500)
	if err != nil {
		return "", err
	}

	items, err := api.FleaMarket(ctx, limit)
	if err != nil {
		return "", failed("getting flea market data", err)
	}

	priced := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if avg, _ := tarkov.Num(item, "avg24hPrice"); avg > 0 {
			priced = append(priced, item)
		}
	}
	if len(priced) == 0 {
		return "No flea market data available", nil
	}
	sort.SliceStable(priced, func(i, j int) bool {
		a, _ := tarkov.Num(priced[i], "avg24hPrice")
		b, _ := tarkov.Num(priced[j], "avg24hPrice")
		return a > b
	})

	var b strings.Builder
	fmt.Fprintf(&b, "# Flea Market Data (Top %d items)\n\n", len(priced))
	for _, item := range priced {
		avg, _ := tarkov.Num(item, "avg24hPrice")
		fmt.Fprintf(&b, "## %s (%s)\n", tarkov.Str(item, "name"), tarkov.Str(item, "shortName"))
		fmt.Fprintf(&b, "• **Average (24h):** %s\n", roubles(avg))
		low, _ := tarkov.Num(item, "low24hPrice")
		high, _ := tarkov.Num(item, "high24hPrice")
		if low > 0 && high > 0 {
			fmt.Fprintf(&b, "• **Range (24h):** %s - %s\n", roubles(low), roubles(high))
		}
		if change, _ := tarkov.Num(item, "changeLast48hPercent"); change != 0 {
			fmt.Fprintf(&b, "• **48h Change:** %s %s\n", signedPercent(change), trend(change))
		}
		if fee, _ := tarkov.Num(item, "fleaMarketFee"); fee > 0 {
			fmt.Fprintf(&b, "• **Listing Fee:** %s\n", roubles(fee))
		}
		fmt.Fprintf(&b, "• **ID:** %s\n\n", tarkov.Str(item, "id"))
	}
	return b.String(), nil
}

func writeBarterItems(b *strings.Builder, title string, entries []map[string]any) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(b, "\n**%s:**\n", title)
	for _, entry := range entries {
		count := intOr(entry, 1, "count")
		fmt.Fprintf(b, "• %dx %s", count, nameOr(entry, "Unknown", "item", "name"))
		if avg, _ := tarkov.Num(entry, "item", "avg24hPrice"); avg > 0 {
			fmt.Fprintf(b, " (%s)", roubles(avg*float64(count)))
		}
		b.WriteString("\n")
	}
}

func barterTrades(ctx context.Context, api API, req mcp.CallToolRequest) (string, error) {
	limit, err := boundedInt(req, "limit", 30, 1, 200)
	if err != nil {
		return "", err
	}

	barters, err := api.Barters(ctx, limit)
	if err != nil {
		return "", failed("getting barter trades", err)
	}
	if len(barters) == 0 {
		return "No barter trades available", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Available Barter Trades (%d found)\n\n", len(barters))
	for _, barter := range barters {
		fmt.Fprintf(&b, "## Trader: %s (Level %d)\n", nameOr(barter, "Unknown", "trader", "name"), intOr(barter, 1, "level"))
		fmt.Fprintf(&b, "**Barter ID:** %s\n", tarkov.Str(barter, "id"))

		required := tarkov.List(barter, "requiredItems")
		rewards := tarkov.List(barter, "rewardItems")
		writeBarterItems(&b, "Required Items", required)
		writeBarterItems(&b, "Reward Items", rewards)

		if cost := itemsValue(required); cost > 0 {
			profit := itemsValue(rewards) - cost
			indicator := "💸"
			if profit > 0 {
				indicator = "💰"
			}
			fmt.Fprintf(&b, "\n**Estimated Profit:** %s (%s) %s\n", roubles(profit), signedPercent(profit/cost*100), indicator)
		}
		if task := tarkov.Str(barter, "taskUnlock", "name"); task != "" {
			fmt.Fprintf(&b, "\n**Requires Quest:** %s\n", task)
		}
		b.WriteString("\n---\n\n")
	}
	return b.String(), nil
}

func barterProfit(ctx context.Context, api API, req mcp.CallToolRequest) (string, error) {
	id, err := requiredString(req, "barter_id")
	if err != nil {
		return "", err
	}

	barters, err := api.Barters(ctx, 0)
	if err != nil {
		return "", failed("calculating barter profit", err)
	}
	var barter map[string]any
	for _, candidate := range barters {
		if tarkov.Str(candidate, "id") == id {
			barter = candidate
			break
		}
	}
	if barter == nil {
		return fmt.Sprintf("No barter found with ID: %s", id), nil
	}

	var b strings.Builder
	b.WriteString("# Barter Profit Analysis\n\n")
	fmt.Fprintf(&b, "**Trader:** %s\n", nameOr(barter, "Unknown", "trader", "name"))
	fmt.Fprintf(&b, "**Barter ID:** %s\n\n", id)

	required := tarkov.List(barter, "requiredItems")
	rewards := tarkov.List(barter, "rewardItems")

	b.WriteString("## Required Items (Cost)\n")
	for _, entry := range required {
		price, _ := tarkov.Num(entry, "item", "avg24hPrice")
		count := intOr(entry, 1, "count")
		fmt.Fprintf(&b, "• %dx %s: %s\n", count, nameOr(entry, "Unknown", "item", "name"), roubles(price*float64(count)))
	}
	cost := itemsValue(required)
	fmt.Fprintf(&b, "\n**Total Cost:** %s\n\n", roubles(cost))

	b.WriteString("## Reward Items (Value)\n")
	for _, entry := range rewards {
		price, _ := tarkov.Num(entry, "item", "avg24hPrice")
		count := intOr(entry, 1, "count")
		fmt.Fprintf(&b, "• %dx %s: %s\n", count, nameOr(entry, "Unknown", "item", "name"), roubles(price*float64(count)))
	}
	value := itemsValue(rewards)
	fmt.Fprintf(&b, "\n**Total Value:** %s\n\n", roubles(value))

	if cost <= 0 {
		b.WriteString("## Analysis\n")
		b.WriteString("⚠️ Cannot calculate profit - missing price data for required items\n")
		return b.String(), nil
	}

	profit := value - cost
	b.WriteString("## Profit Analysis\n")
	fmt.Fprintf(&b, "• **Profit/Loss:** %s\n", roubles(profit))
	fmt.Fprintf(&b, "• **Return on Investment:** %s\n", signedPercent(profit/cost*100))
	switch {
	case profit > 0:
		b.WriteString("• **Status:** 💰 Profitable\n")
	case profit == 0:
		b.WriteString("• **Status:** ⚖️ Break Even\n")
	default:
		b.WriteString("• **Status:** 💸 Loss\n")
	}

	b.WriteString("\n## Additional Considerations\n")
	if task := tarkov.Str(barter, "taskUnlock", "name"); task != "" {
		fmt.Fprintf(&b, "• **Quest Required:** %s\n", task)
	}
	fmt.Fprintf(&b, "• **Trader Level Required:** %d\n", intOr(barter, 1, "level"))
	return b.String(), nil
}

func ammoData(ctx context.Context, api API, req mcp.CallToolRequest) (string, error) {
	caliber := optionalString(req, "caliber")
	limit, err := boundedInt(req, "limit", 50, 1, 500)
	if err != nil {
		return "", err
	}

	ammo, err := api.Ammo(ctx, caliber)
	if err != nil {
		return "", failed("getting ammo data", err)
	}
	suffix := ""
	if caliber != "" {
		suffix = " for " + caliber
	}
	if len(ammo) == 0 {
		return "No ammo data found" + suffix, nil
	}

	sort.SliceStable(ammo, func(i, j int) bool {
		ci, cj := tarkov.Str(ammo[i], "caliber"), tarkov.Str(ammo[j], "caliber")
		if ci != cj {
			return ci < cj
		}
		di, _ := tarkov.Num(ammo[i], "damage")
		dj, _ := tarkov.Num(ammo[j], "damage")
		return di > dj
	})
	if len(ammo) > limit {
		ammo = ammo[:limit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Ammo Data%s\n\n", suffix)
	current := ""
	for i, round := range ammo {
		cal := nameOr(round, "Unknown", "caliber")
		if i == 0 || cal != current {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "## %s\n", cal)
			current = cal
		}
		damage, _ := tarkov.Num(round, "damage")
		fmt.Fprintf(&b, "• **%s**\n", nameOr(round, "Unknown", "item", "name"))
		fmt.Fprintf(&b, "  - Damage: %s\n", numberOr(round, "0", "damage"))
		fmt.Fprintf(&b, "  - Penetration: %s\n", numberOr(round, "0", "penetrationPower"))
		fmt.Fprintf(&b, "  - Armor Damage: %s%%\n", numberOr(round, "0", "armorDamage"))
		if price, _ := tarkov.Num(round, "item", "avg24hPrice"); price > 0 {
			fmt.Fprintf(&b, "  - Price: %s\n", roubles(price))
			if damage > 0 {
				fmt.Fprintf(&b, "  - Damage/₽: %.3f\n", damage/price)
			}
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func hideoutModules(ctx context.Context, api API, _ mcp.CallToolRequest) (string, error) {
	stations, err := api.HideoutModules(ctx)
	if err != nil {
		return "", failed("getting hideout modules", err)
	}
	if len(stations) == 0 {
		return "No hideout modules found", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Hideout Modules (%d found)\n\n", len(stations))
	for _, station := range stations {
		fmt.Fprintf(&b, "## %s\n", nameOr(station, "Unknown", "name"))
		fmt.Fprintf(&b, "**ID:** %s\n", nameOr(station, "N/A", "id"))

		levels := tarkov.List(station, "levels")
		if len(levels) > 0 {
			fmt.Fprintf(&b, "**Levels:** %d\n", len(levels))
		}
		for _, level := range levels {
			seconds, _ := tarkov.Num(level, "constructionTime")
			fmt.Fprintf(&b, "\n### Level %d (%s)\n", intOr(level, 0, "level"), duration(seconds))
			for _, req := range tarkov.List(level, "itemRequirements") {
				fmt.Fprintf(&b, "• %dx %s\n", intOr(req, 1, "count"), nameOr(req, "Unknown", "item", "name"))
			}
			for _, req := range tarkov.List(level, "stationLevelRequirements") {
				fmt.Fprintf(&b, "• %s Level %d\n", nameOr(req, "Unknown", "station", "name"), intOr(req, 1, "level"))
			}
			for _, req := range tarkov.List(level, "traderRequirements") {
				fmt.Fprintf(&b, "• %s Level %d\n", nameOr(req, "Unknown", "trader", "name"), intOr(req, 1, "level"))
			}
		}
		b.WriteString("\n---\n\n")
	}
	return b.String(), nil
}

func crafts(ctx context.Context, api API, req mcp.CallToolRequest) (string, error) {
	limit, err := boundedInt(req, "limit", 50, 1, 500)
	if err != nil {
		return "", err
	}
	station := optionalString(req, "station")

	recipes, err := api.Crafts(ctx, station, limit)
	if err != nil {
		return "", failed("retrieving crafts", err)
	}
	if len(recipes) == 0 {
		return "No crafts found.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Crafting Recipes (%d found)\n\n", len(recipes))
	for _, craft := range recipes {
		seconds, _ := tarkov.Num(craft, "duration")
		fmt.Fprintf(&b, "## %s Level %d\n", nameOr(craft, "Unknown Station", "station", "name"), intOr(craft, 0, "level"))
		fmt.Fprintf(&b, "**Duration:** %s\n", duration(seconds))

		required := tarkov.List(craft, "requiredItems")
		rewards := tarkov.List(craft, "rewardItems")
		writeCraftItems(&b, "Required Items", required)
		cost := itemsValue(required)
		if cost > 0 {
			fmt.Fprintf(&b, "**Total Cost:** %s\n", roubles(cost))
		}
		writeCraftItems(&b, "Reward Items", rewards)
		if value := itemsValue(rewards); value > 0 {
			fmt.Fprintf(&b, "**Total Value:** %s\n", roubles(value))
			if cost > 0 {
				profit := value - cost
				fmt.Fprintf(&b, "**Profit:** %s (%s)\n", roubles(profit), signedPercent(profit/cost*100))
			}
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func writeCraftItems(b *strings.Builder, title string, entries []map[string]any) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(b, "\n**%s:**\n", title)
	for _, entry := range entries {
		count := intOr(entry, 1, "count")
		name := nameOr(entry, "Unknown Item", "item", "name")
		if price, _ := tarkov.Num(entry, "item", "avg24hPrice"); price > 0 {
			fmt.Fprintf(b, "- %dx %s (%s each = %s)\n", count, name, roubles(price), roubles(price*float64(count)))
			continue
		}
		fmt.Fprintf(b, "- %dx %s\n", count, name)
	}
}
