package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tarkovmcp/tarkovmcp/internal/core/tarkov"
)

func questTools() []Tool {
	return []Tool{
		{
			Category: CategoryQuests,
			Definition: mcp.NewTool("get_quests",
				mcp.WithDescription("Get quests, optionally filtered by trader"),
				mcp.WithString("trader", mcp.Description("Filter quests by trader name")),
			),
			run: quests,
		},
		{
			Category: CategoryQuests,
			Definition: mcp.NewTool("get_quest_details",
				mcp.WithDescription("Get detailed information about a specific quest"),
				mcp.WithString("quest_id", mcp.Required(), mcp.Description("ID of the quest to get details for")),
			),
			run: questDetails,
		},
		{
			Category: CategoryQuests,
			Definition: mcp.NewTool("search_quests",
				mcp.WithDescription("Search quests by name"),
				mcp.WithString("query", mcp.Required(), mcp.Description("Search term for quest name")),
				mcp.WithNumber("limit", mcp.Description("Maximum number of results to return"), mcp.DefaultNumber(20), mcp.Min(1), mcp.Max(100)),
			),
			run: searchQuests,
		},
		{
			Category: CategoryQuests,
			Definition: mcp.NewTool("get_quest_items",
				mcp.WithDescription("Get items that only exist for quests"),
				mcp.WithNumber("limit", mcp.Description("Maximum number of items to return"), mcp.DefaultNumber(50), mcp.Min(1), mcp.Max(500)),
			),
			run: questItems,
		},
	}
}

func writeQuestLine(b *strings.Builder, quest map[string]any) {
	fmt.Fprintf(b, "• **%s**", nameOr(quest, "Unknown", "name"))
	if lvl, ok := tarkov.Num(quest, "minPlayerLevel"); ok && lvl > 0 {
		fmt.Fprintf(b, " (Level %.0f+)", lvl)
	}
	if tarkov.Bool(quest, "kappaRequired") {
		b.WriteString(" [Kappa]")
	}
	b.WriteString("\n")
	fmt.Fprintf(b, "  ID: %s\n", tarkov.Str(quest, "id"))
	if mapName := tarkov.Str(quest, "map", "name"); mapName != "" {
		fmt.Fprintf(b, "  Map: %s\n", mapName)
	}
	if xp, ok := tarkov.Num(quest, "experience"); ok && xp > 0 {
		fmt.Fprintf(b, "  XP: %s\n", grouped(int64(xp)))
	}
	b.WriteString("\n")
}

func quests(ctx context.Context, api API, req mcp.CallToolRequest) (string, error) {
	trader := optionalString(req, "trader")
	traderText := ""
	if trader != "" {
		traderText = " from " + trader
	}

	all, err := api.Quests(ctx, trader)
	if err != nil {
		return "", failed("getting quests", err)
	}
	if len(all) == 0 {
		return "No quests found" + traderText, nil
	}

	// group by trader, keeping upstream order within each group
	var order []string
	groups := map[string][]map[string]any{}
	for _, quest := range all {
		name := nameOr(quest, "Unknown", "trader", "name")
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name] = append(groups[name], quest)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Available Quests%s (%d found)\n\n", traderText, len(all))
	for _, name := range order {
		fmt.Fprintf(&b, "## %s (%d quests)\n", name, len(groups[name]))
		for _, quest := range groups[name] {
			writeQuestLine(&b, quest)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func questDetails(ctx context.Context, api API, req mcp.CallToolRequest) (string, error) {
	id, err := requiredString(req, "quest_id")
	if err != nil {
		return "", err
	}
	quest, err := api.QuestByID(ctx, id)
	if errors.Is(err, tarkov.ErrNotFound) {
		return fmt.Sprintf("No quest found with ID: %s", id), nil
	}
	if err != nil {
		return "", failed("getting quest details", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", nameOr(quest, "Unknown", "name"))
	fmt.Fprintf(&b, "**Trader:** %s\n", nameOr(quest, "Unknown", "trader", "name"))
	fmt.Fprintf(&b, "**ID:** %s\n", tarkov.Str(quest, "id"))
	if lvl, ok := tarkov.Num(quest, "minPlayerLevel"); ok && lvl > 0 {
		fmt.Fprintf(&b, "**Minimum Level:** %.0f\n", lvl)
	}
	if xp, ok := tarkov.Num(quest, "experience"); ok && xp > 0 {
		fmt.Fprintf(&b, "**Experience Reward:** %s XP\n", grouped(int64(xp)))
	}
	if mapName := tarkov.Str(quest, "map", "name"); mapName != "" {
		fmt.Fprintf(&b, "**Map:** %s\n", mapName)
	}
	if tarkov.Bool(quest, "kappaRequired") {
		b.WriteString("**Required for Kappa:** Yes\n")
	}
	if tarkov.Bool(quest, "lightkeeperRequired") {
		b.WriteString("**Required for Lightkeeper:** Yes\n")
	}
	b.WriteString("\n")

	if reqs := tarkov.List(quest, "taskRequirements"); len(reqs) > 0 {
		b.WriteString("## Prerequisites\n")
		for _, r := range reqs {
			fmt.Fprintf(&b, "• Complete: **%s**\n", nameOr(r, "Unknown", "task", "name"))
		}
		b.WriteString("\n")
	}

	if objectives := tarkov.List(quest, "objectives"); len(objectives) > 0 {
		b.WriteString("## Objectives\n")
		for i, obj := range objectives {
			fmt.Fprintf(&b, "%d. %s\n", i+1, nameOr(obj, "Unknown objective", "description"))
			if tarkov.Bool(obj, "optional") {
				b.WriteString("   *(Optional)*\n")
			}
			var mapNames []string
			for _, m := range tarkov.List(obj, "maps") {
				mapNames = append(mapNames, tarkov.Str(m, "name"))
			}
			if len(mapNames) > 0 {
				fmt.Fprintf(&b, "   Maps: %s\n", strings.Join(mapNames, ", "))
			}
		}
		b.WriteString("\n")
	}

	rewards := tarkov.Obj(quest, "finishRewards")
	items := tarkov.List(rewards, "items")
	standings := tarkov.List(rewards, "traderStanding")
	if len(items) > 0 || len(standings) > 0 {
		b.WriteString("## Rewards\n")
		if len(items) > 0 {
			b.WriteString("### Items\n")
			for _, entry := range items {
				fmt.Fprintf(&b, "• %dx %s\n", intOr(entry, 1, "count"), nameOr(entry, "Unknown", "item", "name"))
			}
		}
		if len(standings) > 0 {
			b.WriteString("### Trader Reputation\n")
			for _, standing := range standings {
				value, _ := tarkov.Num(standing, "standing")
				fmt.Fprintf(&b, "• %s: %+.2f\n", nameOr(standing, "Unknown", "trader", "name"), value)
			}
		}
	}

	if wiki := tarkov.Str(quest, "wikiLink"); wiki != "" {
		fmt.Fprintf(&b, "\n**Wiki:** %s\n", wiki)
	}
	return b.String(), nil
}

func searchQuests(ctx context.Context, api API, req mcp.CallToolRequest) (string, error) {
	query, err := requiredString(req, "query")
	if err != nil {
		return "", err
	}
	limit, err := boundedInt(req, "limit", 20, 1, 100)
	if err != nil {
		return "", err
	}

	found, err := api.SearchQuests(ctx, query, limit)
	if err != nil {
		return "", failed("searching quests", err)
	}
	if len(found) == 0 {
		return fmt.Sprintf("No quests found matching: %s", query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Quest Search Results for '%s' (%d found)\n\n", query, len(found))
	for _, quest := range found {
		writeQuestLine(&b, quest)
		fmt.Fprintf(&b, "  Trader: %s\n\n", nameOr(quest, "Unknown", "trader", "name"))
	}
	return b.String(), nil
}

func questItems(ctx context.Context, api API, req mcp.CallToolRequest) (string, error) {
	limit, err := boundedInt(req, "limit", 50, 1, 500)
	if err != nil {
		return "", err
	}

	items, err := api.QuestItems(ctx, limit)
	if err != nil {
		return "", failed("getting quest items", err)
	}
	if len(items) == 0 {
		return "No quest items found", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Quest Items (%d found)\n\n", len(items))
	for _, item := range items {
		fmt.Fprintf(&b, "• **%s**\n", itemLabel(item))
		fmt.Fprintf(&b, "  ID: %s\n", tarkov.Str(item, "id"))
		if desc := tarkov.Str(item, "description"); desc != "" {
			fmt.Fprintf(&b, "  %s\n", desc)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}
