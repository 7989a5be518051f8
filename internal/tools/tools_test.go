package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tarkovmcp/tarkovmcp/internal/core/gateway"
	"github.com/tarkovmcp/tarkovmcp/internal/core/tarkov"
)

type fakeAPI struct {
	items     []map[string]any
	byID      map[string]map[string]any
	barters   []map[string]any
	ammo      []map[string]any
	maps      []map[string]any
	traders   []map[string]any
	offers    []map[string]any
	quests    []map[string]any
	crafts    []map[string]any
	reports   []map[string]any
	err       error
	panics    bool
	lastLimit int
	searched  []string
}

func (f *fakeAPI) check() error {
	if f.panics {
		panic("boom")
	}
	return f.err
}

func (f *fakeAPI) SearchItems(_ context.Context, name, _ string, limit int) ([]map[string]any, error) {
	f.lastLimit = limit
	f.searched = append(f.searched, name)
	if err := f.check(); err != nil {
		return nil, err
	}
	var out []map[string]any
	for _, item := range f.items {
		if strings.Contains(strings.ToLower(tarkov.Str(item, "name")), strings.ToLower(name)) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeAPI) ItemByID(_ context.Context, id string) (map[string]any, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	item, ok := f.byID[id]
	if !ok {
		return nil, tarkov.ErrNotFound
	}
	return item, nil
}

func (f *fakeAPI) FleaMarket(_ context.Context, limit int) ([]map[string]any, error) {
	f.lastLimit = limit
	return f.items, f.check()
}

func (f *fakeAPI) Barters(_ context.Context, limit int) ([]map[string]any, error) {
	f.lastLimit = limit
	return f.barters, f.check()
}

func (f *fakeAPI) Maps(context.Context) ([]map[string]any, error) { return f.maps, f.check() }

func (f *fakeAPI) MapByName(_ context.Context, name string) (map[string]any, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	for _, m := range f.maps {
		if strings.EqualFold(tarkov.Str(m, "name"), name) {
			return m, nil
		}
	}
	return nil, tarkov.ErrNotFound
}

func (f *fakeAPI) Traders(context.Context) ([]map[string]any, error) { return f.traders, f.check() }

func (f *fakeAPI) TraderByName(_ context.Context, name string) (map[string]any, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	for _, t := range f.traders {
		if strings.EqualFold(tarkov.Str(t, "name"), name) {
			return t, nil
		}
	}
	return nil, tarkov.ErrNotFound
}

func (f *fakeAPI) TraderItems(_ context.Context, _ string, level int) ([]map[string]any, error) {
	f.lastLimit = level
	return f.offers, f.check()
}

func (f *fakeAPI) Quests(context.Context, string) ([]map[string]any, error) {
	return f.quests, f.check()
}

func (f *fakeAPI) QuestByID(_ context.Context, id string) (map[string]any, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	for _, q := range f.quests {
		if tarkov.Str(q, "id") == id {
			return q, nil
		}
	}
	return nil, tarkov.ErrNotFound
}

func (f *fakeAPI) SearchQuests(_ context.Context, _ string, limit int) ([]map[string]any, error) {
	f.lastLimit = limit
	return f.quests, f.check()
}

func (f *fakeAPI) Ammo(context.Context, string) ([]map[string]any, error) { return f.ammo, f.check() }

func (f *fakeAPI) HideoutModules(context.Context) ([]map[string]any, error) { return nil, f.check() }

func (f *fakeAPI) Crafts(_ context.Context, _ string, limit int) ([]map[string]any, error) {
	f.lastLimit = limit
	return f.crafts, f.check()
}

func (f *fakeAPI) QuestItems(_ context.Context, limit int) ([]map[string]any, error) {
	f.lastLimit = limit
	return nil, f.check()
}

func (f *fakeAPI) GoonReports(_ context.Context, limit int) ([]map[string]any, error) {
	f.lastLimit = limit
	return f.reports, f.check()
}

func objects(t *testing.T, raw string) []map[string]any {
	t.Helper()
	var decoded any
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	return tarkov.Objects(decoded)
}

func call(t *testing.T, api API, name string, args map[string]any) (string, bool) {
	t.Helper()
	result, err := NewRegistry(api, nil).Call(context.Background(), name, args)
	require.NoError(t, err)
	require.NotNil(t, result)
	return ResultText(result), result.IsError
}

func TestRegistryCatalog(t *testing.T) {
	reg := NewRegistry(&fakeAPI{}, nil)
	tools := reg.Tools()
	require.Len(t, tools, 21)

	seen := map[string]bool{}
	for _, tool := range tools {
		require.False(t, seen[tool.Name()], tool.Name())
		seen[tool.Name()] = true
		require.NotEmpty(t, tool.Definition.Description, tool.Name())
		require.NotEmpty(t, tool.Category, tool.Name())
	}

	for _, name := range []string{
		"search_items", "get_item_details", "get_item_prices", "compare_items",
		"get_flea_market_data", "get_barter_trades", "calculate_barter_profit", "get_ammo_data",
		"get_hideout_modules", "get_crafts", "get_maps", "get_map_details", "get_map_spawns",
		"get_traders", "get_trader_details", "get_trader_items", "get_quests", "get_quest_details",
		"search_quests", "get_quest_items", "get_goon_reports",
	} {
		_, ok := reg.Lookup(name)
		require.True(t, ok, name)
	}
}

func TestCallUnknownTool(t *testing.T) {
	_, err := NewRegistry(&fakeAPI{}, nil).Call(context.Background(), "get_weather", nil)
	require.ErrorIs(t, err, ErrUnknownTool)
}

func TestSearchItems(t *testing.T) {
	api := &fakeAPI{items: objects(t, `[
		{"id":"5c0530ee86f774697952d952","name":"LEDX Skin Transilluminator","shortName":"LEDX","avg24hPrice":1234567,"types":["barter"]}
	]`)}

	text, isErr := call(t, api, "search_items", map[string]any{"name": "ledx"})
	require.False(t, isErr)
	require.Contains(t, text, "Found 1 items")
	require.Contains(t, text, "**LEDX Skin Transilluminator** (LEDX) (₽1,234,567)")
	require.Contains(t, text, "Types: barter")
	require.Equal(t, 20, api.lastLimit)

	text, isErr = call(t, api, "search_items", map[string]any{"name": "salewa"})
	require.False(t, isErr)
	require.Equal(t, "No items found matching the search criteria", text)
}

func TestSearchItemsValidatesArguments(t *testing.T) {
	text, isErr := call(t, &fakeAPI{}, "search_items", map[string]any{})
	require.True(t, isErr)
	require.Equal(t, "Error: Either 'name' or 'item_type' must be provided", text)

	text, isErr = call(t, &fakeAPI{}, "search_items", map[string]any{"name": "ledx", "limit": float64(500)})
	require.True(t, isErr)
	require.Contains(t, text, "'limit' must be between 1 and 100")
}

func TestGatewayFailureBecomesToolError(t *testing.T) {
	api := &fakeAPI{err: &gateway.Error{
		Kind:      gateway.KindUpstream,
		Operation: "SearchItems",
		Err:       gateway.QueryErrors{{Message: "Syntax Error"}},
	}}

	text, isErr := call(t, api, "search_items", map[string]any{"name": "ledx"})
	require.True(t, isErr)
	require.True(t, strings.HasPrefix(text, "Error searching items: upstream_failure"), text)
	require.Contains(t, text, "Syntax Error")
}

func TestHandlerRecoversFromPanic(t *testing.T) {
	text, isErr := call(t, &fakeAPI{panics: true}, "get_maps", nil)
	require.True(t, isErr)
	require.Equal(t, "Error running get_maps: internal error", text)
}

func TestItemDetails(t *testing.T) {
	api := &fakeAPI{byID: map[string]map[string]any{
		"a": objects(t, `[{"id":"a","name":"Salewa first aid kit","shortName":"Salewa","weight":0.6,"width":1,"height":2,
			"basePrice":21000,"avg24hPrice":30000,"low24hPrice":25000,"high24hPrice":35000,
			"sellFor":[{"vendor":{"name":"Therapist"},"priceRUB":12000}],
			"properties":null,"wikiLink":"https://escapefromtarkov.fandom.com/wiki/Salewa"}]`)[0],
	}}

	text, isErr := call(t, api, "get_item_details", map[string]any{"item_id": "a"})
	require.False(t, isErr)
	require.Contains(t, text, "# Salewa first aid kit (Salewa)")
	require.Contains(t, text, "• **Size:** 1x2 slots")
	require.Contains(t, text, "• **Base Price:** ₽21,000")
	require.Contains(t, text, "• **Therapist:** ₽12,000")

	text, isErr = call(t, api, "get_item_details", map[string]any{"item_id": "zzz"})
	require.False(t, isErr)
	require.Equal(t, "No item found with ID: zzz", text)

	text, isErr = call(t, api, "get_item_details", map[string]any{})
	require.True(t, isErr)
	require.Equal(t, "Error: 'item_id' is required", text)
}

func TestItemPricesAcceptsArrayAndCommaList(t *testing.T) {
	api := &fakeAPI{items: objects(t, `[{"name":"Bitcoin","avg24hPrice":300000,"low24hPrice":290000,"high24hPrice":310000,"changeLast48hPercent":2.5}]`)}

	text, isErr := call(t, api, "get_item_prices", map[string]any{"item_names": []any{"bitcoin", "roler"}})
	require.False(t, isErr)
	require.Contains(t, text, "# Item Prices (2 requested)")
	require.Contains(t, text, "  - Range: ₽290,000 - ₽310,000")
	require.Contains(t, text, "  - 48h Change: +2.5% 📈")
	require.Contains(t, text, "• **roler**: Not found")

	_, isErr = call(t, api, "get_item_prices", map[string]any{"item_names": "bitcoin, roler"})
	require.False(t, isErr)
	require.Equal(t, []string{"bitcoin", "roler", "bitcoin", "roler"}, api.searched)
}

func TestCompareItems(t *testing.T) {
	api := &fakeAPI{byID: map[string]map[string]any{
		"gpu":  {"name": "Graphics card", "avg24hPrice": float64(400000), "width": float64(2), "height": float64(1)},
		"ledx": {"name": "LEDX", "avg24hPrice": float64(300000), "width": float64(1), "height": float64(1)},
	}}

	text, isErr := call(t, api, "compare_items", map[string]any{"item_ids": []any{"gpu", "ledx", "nope"}})
	require.False(t, isErr)
	require.Contains(t, text, "# Item Comparison (3 items)")
	require.Contains(t, text, "| nope | Error: Not found | - | - |")
	require.Contains(t, text, "• **Graphics card**: ₽200,000 per slot")
	require.Contains(t, text, "**Best Value:** LEDX")

	text, isErr = call(t, api, "compare_items", map[string]any{"item_ids": []any{"gpu"}})
	require.True(t, isErr)
	require.Contains(t, text, "At least 2 item IDs")
}

func TestBarterProfit(t *testing.T) {
	api := &fakeAPI{barters: objects(t, `[{
		"id":"b1","level":2,"trader":{"name":"Mechanic"},
		"requiredItems":[{"count":2,"item":{"name":"Bolts","avg24hPrice":10000}}],
		"rewardItems":[{"count":1,"item":{"name":"Tetriz","avg24hPrice":30000}}]
	}]`)}

	text, isErr := call(t, api, "calculate_barter_profit", map[string]any{"barter_id": "b1"})
	require.False(t, isErr)
	require.Contains(t, text, "**Total Cost:** ₽20,000")
	require.Contains(t, text, "**Total Value:** ₽30,000")
	require.Contains(t, text, "• **Profit/Loss:** ₽10,000")
	require.Contains(t, text, "• **Return on Investment:** +50.0%")
	require.Contains(t, text, "💰 Profitable")
	require.Contains(t, text, "• **Trader Level Required:** 2")

	text, _ = call(t, api, "calculate_barter_profit", map[string]any{"barter_id": "b9"})
	require.Equal(t, "No barter found with ID: b9", text)
}

func TestAmmoGroupsByCaliber(t *testing.T) {
	api := &fakeAPI{ammo: objects(t, `[
		{"caliber":"Caliber556x45NATO","damage":40,"penetrationPower":57,"armorDamage":49,"item":{"name":"M995","avg24hPrice":1000}},
		{"caliber":"Caliber762x39","damage":47,"penetrationPower":47,"item":{"name":"BP gzh"}},
		{"caliber":"Caliber556x45NATO","damage":54,"penetrationPower":23,"item":{"name":"M855"}}
	]`)}

	text, isErr := call(t, api, "get_ammo_data", map[string]any{"limit": float64(10)})
	require.False(t, isErr)
	require.Equal(t, 1, strings.Count(text, "## Caliber556x45NATO"))
	require.Less(t, strings.Index(text, "M855"), strings.Index(text, "M995"))
	require.Contains(t, text, "  - Damage/₽: 0.040")
}

func TestMapDetailsAndSpawns(t *testing.T) {
	api := &fakeAPI{maps: objects(t, `[{
		"name":"Customs","raidDuration":40,"players":"8-12","enemies":["Reshala"],
		"extracts":[{"name":"ZB-1011","faction":"pmc"}],
		"bosses":[{"boss":{"name":"Reshala"},"spawnChance":0.38,
			"spawnLocations":[{"name":"Dorms","chance":0.5}],
			"escorts":[{"boss":{"name":"Guard"},"amount":[{"count":2,"chance":0.5},{"count":4,"chance":0.5}]}]}],
		"spawns":[{"zoneName":"ZoneCustoms","sides":["pmc"],"categories":["player"]}]
	}]`)}

	text, isErr := call(t, api, "get_map_details", map[string]any{"map_name": "customs"})
	require.False(t, isErr)
	require.Contains(t, text, "• **Raid Duration:** 40 minutes")
	require.Contains(t, text, "• **Reshala** (38% spawn chance)")

	text, isErr = call(t, api, "get_map_spawns", map[string]any{"map_name": "customs"})
	require.False(t, isErr)
	require.Contains(t, text, "• **Dorms** - 50% chance")
	require.Contains(t, text, "• Guard: 2-4")
	require.Contains(t, text, "| ZoneCustoms | pmc | player |")

	text, isErr = call(t, api, "get_map_details", map[string]any{"map_name": "Tarkov"})
	require.False(t, isErr)
	require.Equal(t, "No map found with name: Tarkov", text)
}

func TestTraderItemsValidatesLevel(t *testing.T) {
	text, isErr := call(t, &fakeAPI{}, "get_trader_items", map[string]any{"trader_name": "Prapor", "trader_level": float64(7)})
	require.True(t, isErr)
	require.Contains(t, text, "'trader_level' must be between 1 and 4")

	api := &fakeAPI{offers: objects(t, `[{"minTraderLevel":1,"price":1500,"currency":"RUB","item":{"name":"PM 9x18PM pistol","shortName":"PM"}}]`)}
	text, isErr = call(t, api, "get_trader_items", map[string]any{"trader_name": "Prapor", "trader_level": "2"})
	require.False(t, isErr)
	require.Equal(t, 2, api.lastLimit)
	require.Contains(t, text, "# Prapor Items (Level 2)")
	require.Contains(t, text, "  - Price: 1,500 RUB")
}

func TestQuestsGroupByTrader(t *testing.T) {
	api := &fakeAPI{quests: objects(t, `[
		{"id":"1","name":"Debut","trader":{"name":"Prapor"},"minPlayerLevel":1,"experience":1700},
		{"id":"2","name":"Shortage","trader":{"name":"Therapist"},"kappaRequired":true},
		{"id":"3","name":"Background check","trader":{"name":"Prapor"}}
	]`)}

	text, isErr := call(t, api, "get_quests", nil)
	require.False(t, isErr)
	require.Contains(t, text, "# Available Quests (3 found)")
	require.Contains(t, text, "## Prapor (2 quests)")
	require.Contains(t, text, "• **Shortage** [Kappa]")
	require.Contains(t, text, "  XP: 1,700")
}

func TestGoonReports(t *testing.T) {
	api := &fakeAPI{reports: objects(t, `[{"map":{"name":"Woods"},"timestamp":"1700000000000"}]`)}

	text, isErr := call(t, api, "get_goon_reports", nil)
	require.False(t, isErr)
	require.Equal(t, 10, api.lastLimit)
	require.Contains(t, text, "## Woods")
	require.Contains(t, text, "**Time:** 2023-11-14 22:13 UTC")
}

func TestRoubles(t *testing.T) {
	require.Equal(t, "₽0", roubles(0))
	require.Equal(t, "₽999", roubles(999))
	require.Equal(t, "₽1,000", roubles(1000))
	require.Equal(t, "₽1,234,567", roubles(1234566.6))
	require.Equal(t, "₽-12,500", roubles(-12500))
}

func TestCatalogDescribesParameters(t *testing.T) {
	catalog := NewRegistry(&fakeAPI{}, nil).Catalog()
	require.Len(t, catalog, 21)

	var traderItems Info
	for _, info := range catalog {
		if info.Name == "get_trader_items" {
			traderItems = info
		}
	}
	require.Equal(t, "traders", traderItems.Category)
	require.Equal(t, []Param{
		{Name: "trader_name", Type: "string", Description: "Name of the trader", Required: true},
		{Name: "trader_level", Type: "number", Description: "Trader level (1-4)"},
	}, traderItems.Params)
}
