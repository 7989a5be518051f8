package tarkov

// CacheClass selects the response cache TTL for a query.
type CacheClass string

const (
	CacheNone   CacheClass = "none"
	CacheItems  CacheClass = "items"
	CachePrices CacheClass = "prices"
	CacheStatic CacheClass = "static"
)

// Query is one named GraphQL document and the top-level field it returns.
type Query struct {
	Name     string
	Field    string
	Class    CacheClass
	Document string
}

const itemPriceFields = `
      avg24hPrice
      low24hPrice
      high24hPrice
      lastLowPrice
      changeLast48h
      changeLast48hPercent
      fleaMarketFee
      updated`

const vendorPriceFields = `
        vendor { name normalizedName }
        price
        currency
        priceRUB`

var (
	QuerySearchItems = Query{
		Name:  "SearchItems",
		Field: "items",
		Class: CacheItems,
		Document: `query SearchItems($name: String, $type: ItemType, $limit: Int) {
  items(name: $name, type: $type, limit: $limit) {
    id
    name
    shortName
    normalizedName
    types
    basePrice
    width
    height
    weight` + itemPriceFields + `
    wikiLink
    iconLink
  }
}`,
	}

	QueryItemByID = Query{
		Name:  "GetItem",
		Field: "item",
		Class: CacheItems,
		Document: `query GetItem($id: ID) {
  item(id: $id) {
    id
    name
    shortName
    normalizedName
    description
    types
    basePrice
    width
    height
    weight` + itemPriceFields + `
    wikiLink
    iconLink
    category { id name normalizedName }
    sellFor {` + vendorPriceFields + `
    }
    buyFor {` + vendorPriceFields + `
    }
    usedInTasks { id name }
    properties {
      __typename
      ... on ItemPropertiesAmmo {
        caliber
        damage
        armorDamage
        penetrationPower
        fragmentationChance
        initialSpeed
        tracer
      }
      ... on ItemPropertiesWeapon {
        caliber
        ergonomics
        fireRate
        recoilVertical
        recoilHorizontal
        effectiveDistance
      }
      ... on ItemPropertiesArmor {
        class
        durability
        material { name }
        zones
      }
    }
  }
}`,
	}

	QueryFleaMarket = Query{
		Name:  "GetFleaMarket",
		Field: "items",
		Class: CachePrices,
		Document: `query GetFleaMarket($limit: Int) {
  items(limit: $limit) {
    id
    name
    shortName
    types` + itemPriceFields + `
  }
}`,
	}

	QueryBarters = Query{
		Name:  "GetBarters",
		Field: "barters",
		Class: CachePrices,
		Document: `query GetBarters($limit: Int) {
  barters(limit: $limit) {
    id
    level
    trader { name normalizedName }
    taskUnlock { id name }
    requiredItems {
      count
      item { id name shortName avg24hPrice lastLowPrice }
    }
    rewardItems {
      count
      item { id name shortName avg24hPrice lastLowPrice }
    }
  }
}`,
	}

	QueryMaps = Query{
		Name:  "GetMaps",
		Field: "maps",
		Class: CacheStatic,
		Document: `query GetMaps {
  maps {
    id
    name
    normalizedName
    description
    wiki
    raidDuration
    players
    enemies
    bosses {
      boss { name }
      spawnChance
      spawnLocations { name chance }
    }
  }
}`,
	}

	QueryMapByName = Query{
		Name:  "GetMap",
		Field: "maps",
		Class: CacheStatic,
		Document: `query GetMap($name: [String]) {
  maps(name: $name) {
    id
    name
    normalizedName
    description
    wiki
    raidDuration
    players
    enemies
    bosses {
      boss { name }
      spawnChance
      spawnLocations { name chance }
      escorts {
        boss { name }
        amount { count chance }
      }
    }
    extracts { id name faction }
    spawns { zoneName sides categories }
  }
}`,
	}

	QueryTraders = Query{
		Name:  "GetTraders",
		Field: "traders",
		Class: CacheStatic,
		Document: `query GetTraders {
  traders {
    id
    name
    normalizedName
    description
    resetTime
    currency { name }
    discount
    levels {
      level
      requiredPlayerLevel
      requiredReputation
      requiredCommerce
      payRate
    }
  }
}`,
	}

	QueryTraderItems = Query{
		Name:  "GetTraderItems",
		Field: "traders",
		Class: CachePrices,
		Document: `query GetTraderItems {
  traders {
    id
    name
    normalizedName
    cashOffers {
      minTraderLevel
      price
      currency
      priceRUB
      buyLimit
      item { id name shortName }
    }
  }
}`,
	}

	QueryQuests = Query{
		Name:  "GetQuests",
		Field: "tasks",
		Class: CacheStatic,
		Document: `query GetQuests {
  tasks {
    id
    name
    normalizedName
    trader { name normalizedName }
    map { name }
    experience
    minPlayerLevel
    kappaRequired
    lightkeeperRequired
    wikiLink
  }
}`,
	}

	QueryQuestByID = Query{
		Name:  "GetQuest",
		Field: "task",
		Class: CacheStatic,
		Document: `query GetQuest($id: ID!) {
  task(id: $id) {
    id
    name
    normalizedName
    trader { name normalizedName }
    map { name }
    experience
    minPlayerLevel
    kappaRequired
    lightkeeperRequired
    wikiLink
    taskRequirements {
      status
      task { id name }
    }
    objectives {
      id
      type
      description
      optional
      maps { name }
    }
    finishRewards {
      items {
        count
        item { id name shortName }
      }
      traderStanding {
        standing
        trader { name }
      }
    }
  }
}`,
	}

	QueryAmmo = Query{
		Name:  "GetAmmo",
		Field: "ammo",
		Class: CacheItems,
		Document: `query GetAmmo {
  ammo {
    item { id name shortName avg24hPrice }
    caliber
    damage
    armorDamage
    penetrationPower
    fragmentationChance
    ricochetChance
    initialSpeed
    projectileCount
    tracer
  }
}`,
	}

	QueryHideoutModules = Query{
		Name:  "GetHideoutModules",
		Field: "hideoutStations",
		Class: CacheStatic,
		Document: `query GetHideoutModules {
  hideoutStations {
    id
    name
    normalizedName
    levels {
      level
      constructionTime
      description
      itemRequirements {
        count
        item { id name shortName }
      }
      stationLevelRequirements {
        level
        station { name }
      }
      traderRequirements {
        level
        trader { name }
      }
    }
  }
}`,
	}

	QueryCrafts = Query{
		Name:  "GetCrafts",
		Field: "crafts",
		Class: CachePrices,
		Document: `query GetCrafts($limit: Int) {
  crafts(limit: $limit) {
    id
    level
    duration
    station { name normalizedName }
    taskUnlock { name }
    requiredItems {
      count
      item { id name shortName avg24hPrice }
    }
    rewardItems {
      count
      item { id name shortName avg24hPrice }
    }
  }
}`,
	}

	QueryQuestItems = Query{
		Name:  "GetQuestItems",
		Field: "questItems",
		Class: CacheStatic,
		Document: `query GetQuestItems {
  questItems {
    id
    name
    shortName
    description
  }
}`,
	}

	QueryGoonReports = Query{
		Name:  "GetGoonReports",
		Field: "goonReports",
		Class: CacheNone,
		Document: `query GetGoonReports($limit: Int) {
  goonReports(limit: $limit) {
    map { name normalizedName }
    timestamp
  }
}`,
	}

	// QueryPing is the cheapest document the upstream accepts; used for
	// readiness and doctor probes.
	QueryPing = Query{
		Name:     "Ping",
		Field:    "__typename",
		Class:    CacheNone,
		Document: `query Ping { __typename }`,
	}
)

// Queries lists every document the client sends, keyed by operation name.
func Queries() map[string]Query {
	all := []Query{
		QuerySearchItems, QueryItemByID, QueryFleaMarket, QueryBarters,
		QueryMaps, QueryMapByName, QueryTraders, QueryTraderItems,
		QueryQuests, QueryQuestByID, QueryAmmo, QueryHideoutModules,
		QueryCrafts, QueryQuestItems, QueryGoonReports, QueryPing,
	}
	out := make(map[string]Query, len(all))
	for _, q := range all {
		out[q.Name] = q
	}
	return out
}
