package tarkov

import (
	"context"
	"errors"
	"strings"

	"github.com/tarkovmcp/tarkovmcp/internal/core/gateway"
)

// SearchItems finds items by name and optional item type.
func (c *Client) SearchItems(ctx context.Context, name, itemType string, limit int) ([]map[string]any, error) {
	vars := map[string]any{}
	if name = strings.TrimSpace(name); name != "" {
		vars["name"] = name
	}
	if itemType = strings.TrimSpace(itemType); itemType != "" {
		vars["type"] = itemType
	}
	if limit > 0 {
		vars["limit"] = limit
	}
	return c.list(ctx, QuerySearchItems, vars)
}

// ItemByID returns one item with prices and properties.
func (c *Client) ItemByID(ctx context.Context, id string) (map[string]any, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("item id is required")
	}
	item, err := c.object(ctx, QueryItemByID, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, notFound("item", id)
	}
	return item, nil
}

// FleaMarket returns flea market price data for up to limit items.
func (c *Client) FleaMarket(ctx context.Context, limit int) ([]map[string]any, error) {
	return c.list(ctx, QueryFleaMarket, limitVars(limit))
}

// Barters returns trader barter offers.
func (c *Client) Barters(ctx context.Context, limit int) ([]map[string]any, error) {
	return c.list(ctx, QueryBarters, limitVars(limit))
}

// Maps returns every map.
func (c *Client) Maps(ctx context.Context) ([]map[string]any, error) {
	return c.list(ctx, QueryMaps, nil)
}

// MapByName returns the map whose name or normalized name matches.
func (c *Client) MapByName(ctx context.Context, name string) (map[string]any, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("map name is required")
	}
	maps, err := c.list(ctx, QueryMapByName, map[string]any{"name": []string{name}})
	if err != nil {
		return nil, err
	}
	for _, m := range maps {
		if matchesName(m, name) {
			return m, nil
		}
	}
	if len(maps) > 0 {
		return maps[0], nil
	}
	return nil, notFound("map", name)
}

// Traders returns every trader with loyalty levels.
func (c *Client) Traders(ctx context.Context) ([]map[string]any, error) {
	return c.list(ctx, QueryTraders, nil)
}

// TraderByName returns one trader, matched case-insensitively.
func (c *Client) TraderByName(ctx context.Context, name string) (map[string]any, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("trader name is required")
	}
	traders, err := c.Traders(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range traders {
		if matchesName(t, name) {
			return t, nil
		}
	}
	return nil, notFound("trader", name)
}

// TraderItems returns a trader's cash offers unlocked at or below level.
// A non-positive level returns every offer.
func (c *Client) TraderItems(ctx context.Context, trader string, level int) ([]map[string]any, error) {
	trader = strings.TrimSpace(trader)
	if trader == "" {
		return nil, errors.New("trader name is required")
	}
	traders, err := c.list(ctx, QueryTraderItems, nil)
	if err != nil {
		return nil, err
	}
	for _, t := range traders {
		if !matchesName(t, trader) {
			continue
		}
		offers := List(t, "cashOffers")
		if level <= 0 {
			return offers, nil
		}
		out := make([]map[string]any, 0, len(offers))
		for _, offer := range offers {
			if minLevel, ok := Num(offer, "minTraderLevel"); !ok || int(minLevel) <= level {
				out = append(out, offer)
			}
		}
		return out, nil
	}
	return nil, notFound("trader", trader)
}

// Quests returns every quest, optionally only those given by trader.
func (c *Client) Quests(ctx context.Context, trader string) ([]map[string]any, error) {
	tasks, err := c.list(ctx, QueryQuests, nil)
	if err != nil {
		return nil, err
	}
	trader = strings.TrimSpace(trader)
	if trader == "" {
		return tasks, nil
	}
	out := make([]map[string]any, 0, len(tasks))
	for _, task := range tasks {
		if matchesName(Obj(task, "trader"), trader) {
			out = append(out, task)
		}
	}
	return out, nil
}

// QuestByID returns one quest with objectives and rewards.
func (c *Client) QuestByID(ctx context.Context, id string) (map[string]any, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("quest id is required")
	}
	task, err := c.object(ctx, QueryQuestByID, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, notFound("quest", id)
	}
	return task, nil
}

// SearchQuests returns quests whose name contains the query.
func (c *Client) SearchQuests(ctx context.Context, query string, limit int) ([]map[string]any, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search query is required")
	}
	tasks, err := c.list(ctx, QueryQuests, nil)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0)
	for _, task := range tasks {
		if containsFold(Str(task, "name"), query) {
			out = append(out, task)
		}
	}
	return truncate(out, limit), nil
}

// Ammo returns ammunition stats, optionally filtered by caliber.
func (c *Client) Ammo(ctx context.Context, caliber string) ([]map[string]any, error) {
	ammo, err := c.list(ctx, QueryAmmo, nil)
	if err != nil {
		return nil, err
	}
	caliber = strings.TrimSpace(caliber)
	if caliber == "" {
		return ammo, nil
	}
	out := make([]map[string]any, 0, len(ammo))
	for _, round := range ammo {
		if containsFold(Str(round, "caliber"), caliber) {
			out = append(out, round)
		}
	}
	return out, nil
}

// HideoutModules returns every hideout station and its levels.
func (c *Client) HideoutModules(ctx context.Context) ([]map[string]any, error) {
	return c.list(ctx, QueryHideoutModules, nil)
}

// Crafts returns hideout crafts, optionally only those made at station.
func (c *Client) Crafts(ctx context.Context, station string, limit int) ([]map[string]any, error) {
	station = strings.TrimSpace(station)
	if station == "" {
		return c.list(ctx, QueryCrafts, limitVars(limit))
	}
	// the upstream limit applies before the station filter, so fetch all
	crafts, err := c.list(ctx, QueryCrafts, nil)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0)
	for _, craft := range crafts {
		if containsFold(Str(craft, "station", "name"), station) {
			out = append(out, craft)
		}
	}
	return truncate(out, limit), nil
}

// QuestItems returns quest-only items.
func (c *Client) QuestItems(ctx context.Context, limit int) ([]map[string]any, error) {
	items, err := c.list(ctx, QueryQuestItems, nil)
	if err != nil {
		return nil, err
	}
	return truncate(items, limit), nil
}

// GoonReports returns recent community sightings of the Goons. Never cached.
func (c *Client) GoonReports(ctx context.Context, limit int) ([]map[string]any, error) {
	return c.list(ctx, QueryGoonReports, limitVars(limit))
}

func limitVars(limit int) map[string]any {
	if limit <= 0 {
		return nil
	}
	return map[string]any{"limit": limit}
}

func truncate(items []map[string]any, limit int) []map[string]any {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// Ping sends a trivial query through the limiter and gateway. It reports
// whether the upstream answered with a GraphQL payload.
func (c *Client) Ping(ctx context.Context) error {
	data, err := c.Run(ctx, QueryPing, nil)
	if err != nil {
		return err
	}
	if _, ok := data[QueryPing.Field]; !ok {
		return &gateway.Error{
			Kind:      gateway.KindUpstream,
			Operation: QueryPing.Name,
			Query:     QueryPing.Document,
			Err:       &gateway.MalformedResponseError{Err: errors.New("missing __typename")},
		}
	}
	return nil
}

// CheckHealth lets the client serve as a readiness checker.
func (c *Client) CheckHealth(ctx context.Context) error {
	return c.Ping(ctx)
}
