package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tarkovmcp/tarkovmcp/internal/core/tarkov"
)

func mapTools() []Tool {
	return []Tool{
		{
			Category: CategoryMaps,
			Definition: mcp.NewTool("get_maps",
				mcp.WithDescription("Get information about all Tarkov maps"),
			),
			run: maps,
		},
		{
			Category: CategoryMaps,
			Definition: mcp.NewTool("get_map_details",
				mcp.WithDescription("Get detailed information about a specific map"),
				mcp.WithString("map_name", mcp.Required(), mcp.Description("Name of the map to get details for")),
			),
			run: mapDetails,
		},
		{
			Category: CategoryMaps,
			Definition: mcp.NewTool("get_map_spawns",
				mcp.WithDescription("Get boss and player spawn information for a map"),
				mcp.WithString("map_name", mcp.Required(), mcp.Description("Name of the map to get spawn information for")),
			),
			run: mapSpawns,
		},
	}
}

func bossNames(m map[string]any) []string {
	var names []string
	for _, boss := range tarkov.List(m, "bosses") {
		if name := tarkov.Str(boss, "boss", "name"); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func maps(ctx context.Context, api API, _ mcp.CallToolRequest) (string, error) {
	all, err := api.Maps(ctx)
	if err != nil {
		return "", failed("getting maps", err)
	}
	if len(all) == 0 {
		return "No maps found", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Available Maps (%d found)\n\n", len(all))
	for _, m := range all {
		fmt.Fprintf(&b, "## %s\n", nameOr(m, "Unknown", "name"))
		if desc := tarkov.Str(m, "description"); desc != "" {
			fmt.Fprintf(&b, "**Description:** %s\n", desc)
		}
		if minutes, ok := tarkov.Num(m, "raidDuration"); ok && minutes > 0 {
			fmt.Fprintf(&b, "**Raid Duration:** %.0f minutes\n", minutes)
		}
		if players := tarkov.Str(m, "players"); players != "" {
			fmt.Fprintf(&b, "**Players:** %s\n", players)
		}
		if bosses := bossNames(m); len(bosses) > 0 {
			fmt.Fprintf(&b, "**Bosses:** %s\n", strings.Join(bosses, ", "))
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func lookupMap(ctx context.Context, api API, req mcp.CallToolRequest, action string) (map[string]any, string, error) {
	name, err := requiredString(req, "map_name")
	if err != nil {
		return nil, "", err
	}
	m, err := api.MapByName(ctx, name)
	if errors.Is(err, tarkov.ErrNotFound) {
		return nil, fmt.Sprintf("No map found with name: %s", name), nil
	}
	if err != nil {
		return nil, "", failed(action, err)
	}
	return m, "", nil
}

func mapDetails(ctx context.Context, api API, req mcp.CallToolRequest) (string, error) {
	m, missing, err := lookupMap(ctx, api, req, "getting map details")
	if err != nil || m == nil {
		return missing, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", nameOr(m, "Unknown", "name"))
	if desc := tarkov.Str(m, "description"); desc != "" {
		fmt.Fprintf(&b, "**Description:** %s\n\n", desc)
	}

	b.WriteString("## Map Information\n")
	if minutes, ok := tarkov.Num(m, "raidDuration"); ok && minutes > 0 {
		fmt.Fprintf(&b, "• **Raid Duration:** %.0f minutes\n", minutes)
	}
	if players := tarkov.Str(m, "players"); players != "" {
		fmt.Fprintf(&b, "• **Players:** %s\n", players)
	}
	if enemies := tarkov.Strings(m, "enemies"); len(enemies) > 0 {
		fmt.Fprintf(&b, "• **Enemies:** %s\n", strings.Join(enemies, ", "))
	}
	if wiki := tarkov.Str(m, "wiki"); wiki != "" {
		fmt.Fprintf(&b, "• **Wiki:** %s\n", wiki)
	}

	if extracts := tarkov.List(m, "extracts"); len(extracts) > 0 {
		b.WriteString("\n## Extraction Points\n")
		for _, extract := range extracts {
			fmt.Fprintf(&b, "• **%s**\n", nameOr(extract, "Unknown", "name"))
			if faction := tarkov.Str(extract, "faction"); faction != "" {
				fmt.Fprintf(&b, "  - Faction: %s\n", faction)
			}
		}
	}

	if bosses := tarkov.List(m, "bosses"); len(bosses) > 0 {
		b.WriteString("\n## Bosses\n")
		for _, boss := range bosses {
			chance, _ := tarkov.Num(boss, "spawnChance")
			fmt.Fprintf(&b, "• **%s** (%s spawn chance)\n", nameOr(boss, "Unknown", "boss", "name"), percentChance(chance))
			var locations []string
			for _, loc := range tarkov.List(boss, "spawnLocations") {
				locations = append(locations, tarkov.Str(loc, "name"))
			}
			if len(locations) > 0 {
				fmt.Fprintf(&b, "  - Locations: %s\n", strings.Join(locations, ", "))
			}
			if escorts := tarkov.List(boss, "escorts"); len(escorts) > 0 {
				fmt.Fprintf(&b, "  - Escorts: %d\n", len(escorts))
			}
		}
	}
	return b.String(), nil
}

func mapSpawns(ctx context.Context, api API, req mcp.CallToolRequest) (string, error) {
	m, missing, err := lookupMap(ctx, api, req, "getting map spawns")
	if err != nil || m == nil {
		return missing, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Spawn Information for %s\n\n", nameOr(m, "Unknown", "name"))

	bosses := tarkov.List(m, "bosses")
	if len(bosses) == 0 {
		b.WriteString("No boss spawn information available for this map.\n")
	} else {
		b.WriteString("## Boss Spawns\n")
		for _, boss := range bosses {
			chance, _ := tarkov.Num(boss, "spawnChance")
			fmt.Fprintf(&b, "### %s (%s chance)\n", nameOr(boss, "Unknown", "boss", "name"), percentChance(chance))
			for _, loc := range tarkov.List(boss, "spawnLocations") {
				locChance, _ := tarkov.Num(loc, "chance")
				fmt.Fprintf(&b, "• **%s** - %s chance\n", nameOr(loc, "Unknown", "name"), percentChance(locChance))
			}
			if escorts := tarkov.List(boss, "escorts"); len(escorts) > 0 {
				b.WriteString("**Escorts:**\n")
				for _, escort := range escorts {
					lo, hi := escortRange(tarkov.List(escort, "amount"))
					fmt.Fprintf(&b, "• %s: %d-%d\n", nameOr(escort, "Unknown", "boss", "name"), lo, hi)
				}
			}
			b.WriteString("\n")
		}
	}

	if spawns := tarkov.List(m, "spawns"); len(spawns) > 0 {
		b.WriteString("## Player Spawns\n")
		b.WriteString("| Zone | Sides | Categories |\n")
		b.WriteString("|------|-------|------------|\n")
		for _, spawn := range spawns {
			fmt.Fprintf(&b, "| %s | %s | %s |\n",
				cell(nameOr(spawn, "Unknown", "zoneName")),
				cell(strings.Join(tarkov.Strings(spawn, "sides"), ", ")),
				cell(strings.Join(tarkov.Strings(spawn, "categories"), ", ")))
		}
	}
	return b.String(), nil
}

// escortRange returns the smallest and largest escort counts with a chance.
func escortRange(amounts []map[string]any) (int, int) {
	lo, hi := -1, 0
	for _, amount := range amounts {
		count := intOr(amount, 0, "count")
		if lo < 0 || count < lo {
			lo = count
		}
		if count > hi {
			hi = count
		}
	}
	if lo < 0 {
		lo = 0
	}
	return lo, hi
}
