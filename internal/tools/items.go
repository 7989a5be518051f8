package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tarkovmcp/tarkovmcp/internal/core/engine"
	"github.com/tarkovmcp/tarkovmcp/internal/core/tarkov"
)

func itemTools() []Tool {
	return []Tool{
		{
			Category: CategoryItems,
			Definition: mcp.NewTool("search_items",
				mcp.WithDescription("Search for Tarkov items by name or type"),
				mcp.WithString("name", mcp.Description("Item name to search for (partial matches allowed)")),
				mcp.WithString("item_type", mcp.Description("Item type to filter by (e.g. 'gun', 'ammo', 'armor', 'barter')")),
				mcp.WithNumber("limit", mcp.Description("Maximum number of results to return"), mcp.DefaultNumber(20), mcp.Min(1), mcp.Max(100)),
			),
			run: searchItems,
		},
		{
			Category: CategoryItems,
			Definition: mcp.NewTool("get_item_details",
				mcp.WithDescription("Get detailed information about a specific item by ID"),
				mcp.WithString("item_id", mcp.Required(), mcp.Description("The unique ID of the item")),
			),
			run: itemDetails,
		},
		{
			Category: CategoryItems,
			Definition: mcp.NewTool("get_item_prices",
				mcp.WithDescription("Get current market prices for multiple items"),
				mcp.WithArray("item_names", mcp.Required(), mcp.Description("List of item names to get prices for"), mcp.Items(map[string]any{"type": "string"})),
			),
			run: itemPrices,
		},
		{
			Category: CategoryItems,
			Definition: mcp.NewTool("compare_items",
				mcp.WithDescription("Compare stats and prices between multiple items"),
				mcp.WithArray("item_ids", mcp.Required(), mcp.Description("List of item IDs to compare"), mcp.Items(map[string]any{"type": "string"})),
			),
			run: compareItems,
		},
	}
}

func searchItems(ctx context.Context, api API, req mcp.CallToolRequest) (string, error) {
	name := optionalString(req, "name")
	itemType := optionalString(req, "item_type")
	if name == "" && itemType == "" {
		return "", invalidArgument("Either 'name' or 'item_type' must be provided")
	}
	limit, err := boundedInt(req, "limit", 20, 1, 100)
	if err != nil {
		return "", err
	}

	items, err := api.SearchItems(ctx, name, itemType, limit)
	if err != nil {
		return "", failed("searching items", err)
	}
	if len(items) == 0 {
		return "No items found matching the search criteria", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d items:\n\n", len(items))
	for _, item := range items {
		fmt.Fprintf(&b, "• **%s** (%s)", tarkov.Str(item, "name"), tarkov.Str(item, "shortName"))
		if avg, ok := tarkov.Num(item, "avg24hPrice"); ok && avg > 0 {
			fmt.Fprintf(&b, " (%s)", roubles(avg))
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "  ID: %s\n", tarkov.Str(item, "id"))
		if types := tarkov.Strings(item, "types"); len(types) > 0 {
			fmt.Fprintf(&b, "  Types: %s\n", strings.Join(types, ", "))
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func itemDetails(ctx context.Context, api API, req mcp.CallToolRequest) (string, error) {
	id, err := requiredString(req, "item_id")
	if err != nil {
		return "", err
	}

	item, err := api.ItemByID(ctx, id)
	if errors.Is(err, tarkov.ErrNotFound) {
		return fmt.Sprintf("No item found with ID: %s", id), nil
	}
	if err != nil {
		return "", failed("getting item details", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s (%s)\n\n", tarkov.Str(item, "name"), tarkov.Str(item, "shortName"))
	if desc := tarkov.Str(item, "description"); desc != "" {
		fmt.Fprintf(&b, "**Description:** %s\n\n", desc)
	}

	b.WriteString("## Properties\n")
	fmt.Fprintf(&b, "• **ID:** %s\n", tarkov.Str(item, "id"))
	fmt.Fprintf(&b, "• **Weight:** %s kg\n", numberOr(item, "N/A", "weight"))
	fmt.Fprintf(&b, "• **Size:** %sx%s slots\n", numberOr(item, "N/A", "width"), numberOr(item, "N/A", "height"))
	basePrice, _ := tarkov.Num(item, "basePrice")
	fmt.Fprintf(&b, "• **Base Price:** %s\n", roubles(basePrice))
	if types := tarkov.Strings(item, "types"); len(types) > 0 {
		fmt.Fprintf(&b, "• **Types:** %s\n", strings.Join(types, ", "))
	}
	if category := tarkov.Str(item, "category", "name"); category != "" {
		fmt.Fprintf(&b, "• **Category:** %s\n", category)
	}

	writeItemProperties(&b, tarkov.Obj(item, "properties"))

	if avg, ok := tarkov.Num(item, "avg24hPrice"); ok && avg > 0 {
		b.WriteString("\n## Market Prices\n")
		fmt.Fprintf(&b, "• **24h Average:** %s\n", roubles(avg))
		if low, ok := tarkov.Num(item, "low24hPrice"); ok && low > 0 {
			fmt.Fprintf(&b, "• **24h Low:** %s\n", roubles(low))
		}
		if high, ok := tarkov.Num(item, "high24hPrice"); ok && high > 0 {
			fmt.Fprintf(&b, "• **24h High:** %s\n", roubles(high))
		}
		if change, ok := tarkov.Num(item, "changeLast48h"); ok && change != 0 {
			pct, _ := tarkov.Num(item, "changeLast48hPercent")
			fmt.Fprintf(&b, "• **48h Change:** %s (%s)\n", roubles(change), signedPercent(pct))
		}
	}

	writeVendorPrices(&b, "Sell Prices", tarkov.List(item, "sellFor"))
	writeVendorPrices(&b, "Buy Prices", tarkov.List(item, "buyFor"))

	if tasks := tarkov.List(item, "usedInTasks"); len(tasks) > 0 {
		b.WriteString("\n## Used in Quests\n")
		for _, task := range tasks {
			fmt.Fprintf(&b, "• **%s**\n", tarkov.Str(task, "name"))
		}
	}

	if wiki := tarkov.Str(item, "wikiLink"); wiki != "" {
		fmt.Fprintf(&b, "\n**Wiki:** %s\n", wiki)
	}
	return b.String(), nil
}

func writeVendorPrices(b *strings.Builder, title string, offers []map[string]any) {
	if len(offers) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n", title)
	for _, offer := range offers {
		price, _ := tarkov.Num(offer, "priceRUB")
		fmt.Fprintf(b, "• **%s:** %s\n", nameOr(offer, "Unknown", "vendor", "name"), roubles(price))
	}
}

func writeItemProperties(b *strings.Builder, props map[string]any) {
	if props == nil {
		return
	}
	switch tarkov.Str(props, "__typename") {
	case "ItemPropertiesAmmo":
		b.WriteString("\n## Ballistics\n")
		fmt.Fprintf(b, "• **Caliber:** %s\n", nameOr(props, "N/A", "caliber"))
		fmt.Fprintf(b, "• **Damage:** %s\n", numberOr(props, "N/A", "damage"))
		fmt.Fprintf(b, "• **Penetration:** %s\n", numberOr(props, "N/A", "penetrationPower"))
		fmt.Fprintf(b, "• **Armor Damage:** %s%%\n", numberOr(props, "N/A", "armorDamage"))
		fmt.Fprintf(b, "• **Initial Speed:** %s m/s\n", numberOr(props, "N/A", "initialSpeed"))
	case "ItemPropertiesWeapon":
		b.WriteString("\n## Weapon Stats\n")
		fmt.Fprintf(b, "• **Caliber:** %s\n", nameOr(props, "N/A", "caliber"))
		fmt.Fprintf(b, "• **Ergonomics:** %s\n", numberOr(props, "N/A", "ergonomics"))
		fmt.Fprintf(b, "• **Fire Rate:** %s rpm\n", numberOr(props, "N/A", "fireRate"))
		fmt.Fprintf(b, "• **Recoil:** %s vertical, %s horizontal\n", numberOr(props, "N/A", "recoilVertical"), numberOr(props, "N/A", "recoilHorizontal"))
	case "ItemPropertiesArmor":
		b.WriteString("\n## Armor\n")
		fmt.Fprintf(b, "• **Class:** %s\n", numberOr(props, "N/A", "class"))
		fmt.Fprintf(b, "• **Durability:** %s\n", numberOr(props, "N/A", "durability"))
		if material := tarkov.Str(props, "material", "name"); material != "" {
			fmt.Fprintf(b, "• **Material:** %s\n", material)
		}
		if zones := tarkov.Strings(props, "zones"); len(zones) > 0 {
			fmt.Fprintf(b, "• **Zones:** %s\n", strings.Join(zones, ", "))
		}
	}
}

func itemPrices(ctx context.Context, api API, req mcp.CallToolRequest) (string, error) {
	names := stringList(req, "item_names")
	if len(names) == 0 {
		return "", invalidArgument("'item_names' list is required")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Item Prices (%d requested)\n\n", len(names))
	for _, name := range names {
		items, err := api.SearchItems(ctx, name, "", 1)
		if err != nil {
			return "", failed("getting item prices", err)
		}
		if len(items) == 0 {
			fmt.Fprintf(&b, "• **%s**: Not found\n\n", name)
			continue
		}
		item := items[0]
		fmt.Fprintf(&b, "• **%s**\n", nameOr(item, name, "name"))
		avg, _ := tarkov.Num(item, "avg24hPrice")
		if avg <= 0 {
			b.WriteString("  - No price data available\n\n")
			continue
		}
		fmt.Fprintf(&b, "  - Average: %s\n", roubles(avg))
		low, _ := tarkov.Num(item, "low24hPrice")
		high, _ := tarkov.Num(item, "high24hPrice")
		if low > 0 && high > 0 {
			fmt.Fprintf(&b, "  - Range: %s - %s\n", roubles(low), roubles(high))
		}
		if change, _ := tarkov.Num(item, "changeLast48hPercent"); change != 0 {
			fmt.Fprintf(&b, "  - 48h Change: %s %s\n", signedPercent(change), trend(change))
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func compareItems(ctx context.Context, api API, req mcp.CallToolRequest) (string, error) {
	ids := stringList(req, "item_ids")
	if len(ids) < 2 {
		return "", invalidArgument("At least 2 item IDs are required for comparison")
	}

	type entry struct {
		id   string
		item map[string]any
	}
	lookups := engine.Lookup(ctx, &engine.Orchestrator{}, ids, api.ItemByID)
	entries := make([]entry, 0, len(lookups))
	for _, lookup := range lookups {
		if lookup.Err != nil && !errors.Is(lookup.Err, tarkov.ErrNotFound) {
			return "", failed("comparing items", lookup.Err)
		}
		entries = append(entries, entry{id: lookup.Key, item: lookup.Value})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Item Comparison (%d items)\n\n", len(entries))
	b.WriteString("## Basic Information\n")
	b.WriteString("| Item | Weight | Size | Base Price |\n")
	b.WriteString("|------|--------|------|------------|\n")
	for _, e := range entries {
		if e.item == nil {
			fmt.Fprintf(&b, "| %s | Error: Not found | - | - |\n", cell(e.id))
			continue
		}
		basePrice, _ := tarkov.Num(e.item, "basePrice")
		fmt.Fprintf(&b, "| %s | %skg | %sx%s | %s |\n",
			cell(nameOr(e.item, "Unknown", "name")),
			numberOr(e.item, "0", "weight"),
			numberOr(e.item, "0", "width"),
			numberOr(e.item, "0", "height"),
			roubles(basePrice))
	}

	b.WriteString("\n## Market Prices\n")
	b.WriteString("| Item | 24h Average | 24h Low | 24h High | 48h Change |\n")
	b.WriteString("|------|-------------|---------|----------|------------|\n")
	var priced []map[string]any
	for _, e := range entries {
		if e.item == nil {
			continue
		}
		change, _ := tarkov.Num(e.item, "changeLast48hPercent")
		changeText := "0%"
		if change != 0 {
			changeText = signedPercent(change)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			cell(nameOr(e.item, "Unknown", "name")),
			priceOrNA(e.item, "avg24hPrice"),
			priceOrNA(e.item, "low24hPrice"),
			priceOrNA(e.item, "high24hPrice"),
			changeText)
		if avg, _ := tarkov.Num(e.item, "avg24hPrice"); avg > 0 {
			priced = append(priced, e.item)
		}
	}

	if len(priced) > 1 {
		b.WriteString("\n## Value Analysis\n")
		b.WriteString("### Price per Inventory Slot\n")
		var (
			best      map[string]any
			bestValue float64
		)
		for _, item := range priced {
			perSlot := pricePerSlot(item)
			fmt.Fprintf(&b, "• **%s**: %s per slot\n", nameOr(item, "Unknown", "name"), roubles(perSlot))
			if best == nil || perSlot > bestValue {
				best, bestValue = item, perSlot
			}
		}
		fmt.Fprintf(&b, "\n**Best Value:** %s\n", nameOr(best, "Unknown", "name"))
	}
	return b.String(), nil
}

func pricePerSlot(item map[string]any) float64 {
	avg, _ := tarkov.Num(item, "avg24hPrice")
	slots := intOr(item, 1, "width") * intOr(item, 1, "height")
	if slots <= 0 {
		return 0
	}
	return avg / float64(slots)
}
