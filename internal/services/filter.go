package services

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"retail-dashboard/internal/models"
	"retail-dashboard/internal/roles"
)

// All is the unset value for the equality filters.
const All = "all"

const dateLayout = "2006-01-02"

type Filter struct {
	Search      string
	Commodity   string
	Status      string
	Cooperative string
	Shop        string
	Woreda      string
	Start       *time.Time
	End         *time.Time

	// Location sets the day boundaries of Start and End. Nil means UTC.
	Location *time.Location
}

func DefaultFilter() Filter {
	return Filter{
		Commodity:   All,
		Status:      All,
		Cooperative: All,
		Shop:        All,
		Woreda:      All,
	}
}

func isSet(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, All)
}

func (f Filter) Active() bool {
	return strings.TrimSpace(f.Search) != "" ||
		isSet(f.Commodity) || isSet(f.Status) || isSet(f.Cooperative) ||
		isSet(f.Shop) || isSet(f.Woreda) ||
		f.Start != nil || f.End != nil
}

// Restrict clears the predicates the role has no control for.
func (f Filter) Restrict(caps roles.Capabilities) Filter {
	if caps.Search == roles.SearchNone {
		f.Search = ""
	}
	if !caps.CooperativeFilter {
		f.Cooperative = All
	}
	if !caps.ShopFilter {
		f.Shop = All
	}
	if !caps.WoredaFilter {
		f.Woreda = All
	}
	return f
}

func (f Filter) location() *time.Location {
	if f.Location == nil {
		return time.UTC
	}
	return f.Location
}

// Bounds returns the inclusive instant range covered by Start and End.
func (f Filter) Bounds() (from, to time.Time) {
	loc := f.location()
	if f.Start != nil {
		s := f.Start.In(loc)
		from = time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, loc)
	}
	if f.End != nil {
		e := f.End.In(loc)
		to = time.Date(e.Year(), e.Month(), e.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), loc)
	}
	return from, to
}

// ParseFilter reads filter state from query parameters. Dates use yyyy-mm-dd
// in loc.
func ParseFilter(q url.Values, loc *time.Location) (Filter, error) {
	f := DefaultFilter()
	f.Location = loc
	f.Search = strings.TrimSpace(q.Get("search"))
	for key, dst := range map[string]*string{
		"commodity":   &f.Commodity,
		"status":      &f.Status,
		"cooperative": &f.Cooperative,
		"shop":        &f.Shop,
		"woreda":      &f.Woreda,
	} {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			*dst = v
		}
	}

	var err error
	if f.Start, err = parseDay(q.Get("startDate"), loc); err != nil {
		return Filter{}, fmt.Errorf("startDate: %w", err)
	}
	if f.End, err = parseDay(q.Get("endDate"), loc); err != nil {
		return Filter{}, fmt.Errorf("endDate: %w", err)
	}
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		return Filter{}, fmt.Errorf("endDate is before startDate")
	}
	return f, nil
}

func parseDay(v string, loc *time.Location) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(dateLayout, v, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Apply scopes txs to what the viewer may see, keeps the ones matching every
// active predicate and sorts them newest first. txs is left untouched.
func Apply(txs []models.Transaction, f Filter, v roles.Viewer) []models.Transaction {
	return apply(txs, f, v, roles.For(v.Role))
}

// ApplyShop is Apply for the single-shop view, where search always matches
// the customer name whatever the viewer's role.
func ApplyShop(txs []models.Transaction, f Filter, v roles.Viewer) []models.Transaction {
	caps := roles.For(v.Role)
	caps.Search = roles.SearchCustomerName
	return apply(txs, f, v, caps)
}

func apply(txs []models.Transaction, f Filter, v roles.Viewer, caps roles.Capabilities) []models.Transaction {
	f = f.Restrict(caps)
	from, to := f.Bounds()
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !inScope(tx, caps.Scope, v.WorksAt) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(searchField(tx, caps.Search)), search) {
			continue
		}
		if isSet(f.Commodity) && !strings.EqualFold(tx.CommodityName(), strings.TrimSpace(f.Commodity)) {
			continue
		}
		if isSet(f.Status) && tx.Status.Normalize() != models.Status(f.Status).Normalize() {
			continue
		}
		if isSet(f.Cooperative) && tx.CooperativeID() != f.Cooperative {
			continue
		}
		if isSet(f.Shop) && tx.ShopID() != f.Shop {
			continue
		}
		if isSet(f.Woreda) && tx.WoredaID() != f.Woreda {
			continue
		}
		if !from.IsZero() && tx.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && tx.CreatedAt.After(to) {
			continue
		}
		out = append(out, tx)
	}

	slices.SortStableFunc(out, func(a, b models.Transaction) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

func inScope(tx models.Transaction, scope roles.Scope, worksAt string) bool {
	switch scope {
	case roles.ScopeOwnShop:
		return worksAt != "" && tx.ShopID() == worksAt
	case roles.ScopeOwnCooperative:
		return worksAt != "" && tx.CooperativeID() == worksAt
	default:
		return true
	}
}

func searchField(tx models.Transaction, target roles.SearchTarget) string {
	switch target {
	case roles.SearchCooperativeName:
		return tx.CooperativeName()
	case roles.SearchShopName:
		return tx.ShopName()
	case roles.SearchCustomerName:
		return tx.CustomerName()
	default:
		return ""
	}
}
