package roles

type SearchTarget int

const (
	SearchNone SearchTarget = iota
	SearchCooperativeName
	SearchShopName
	SearchCustomerName
)

type Scope int

const (
	ScopeAll Scope = iota
	ScopeOwnShop
	ScopeOwnCooperative
)

// Capabilities decides which filters, summaries and actions a role gets.
type Capabilities struct {
	Search             SearchTarget `json:"search"`
	Scope              Scope        `json:"scope"`
	WoredaFilter       bool         `json:"woreda_filter"`
	CooperativeFilter  bool         `json:"cooperative_filter"`
	ShopFilter         bool         `json:"shop_filter"`
	DateRange          bool         `json:"date_range"`
	Summary            bool         `json:"summary"`
	CreateTransaction  bool         `json:"create_transaction"`
	GroupByCooperative bool         `json:"group_by_cooperative"`

	// Reference data the view needs from the backend.
	NeedsCooperatives bool `json:"-"`
	NeedsShops        bool `json:"-"`
	NeedsWoredas      bool `json:"-"`
	NeedsCurrentShop  bool `json:"-"`

	// Cooperatives are restricted to the viewer's own woreda.
	OwnWoredaOnly bool `json:"-"`
}

func For(r Role) Capabilities {
	switch r {
	case TradeBureau, SubCityOffice:
		return Capabilities{
			Search:             SearchCooperativeName,
			Scope:              ScopeAll,
			WoredaFilter:       true,
			CooperativeFilter:  true,
			GroupByCooperative: true,
			NeedsCooperatives:  true,
			NeedsShops:         true,
			NeedsWoredas:       true,
		}
	case WoredaOffice:
		return Capabilities{
			Search:             SearchCooperativeName,
			Scope:              ScopeAll,
			CooperativeFilter:  true,
			GroupByCooperative: true,
			NeedsCooperatives:  true,
			NeedsShops:         true,
			OwnWoredaOnly:      true,
		}
	case RetailerCooperative:
		return Capabilities{
			Search:     SearchShopName,
			Scope:      ScopeOwnCooperative,
			ShopFilter: true,
			DateRange:  true,
			Summary:    true,
			NeedsShops: true,
		}
	case RetailerCooperativeShop:
		return Capabilities{
			Search:            SearchCustomerName,
			Scope:             ScopeOwnShop,
			DateRange:         true,
			Summary:           true,
			CreateTransaction: true,
			NeedsCurrentShop:  true,
		}
	default:
		return Capabilities{}
	}
}
