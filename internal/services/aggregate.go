package services

import (
	"github.com/shopspring/decimal"

	"retail-dashboard/internal/models"
	"retail-dashboard/internal/roles"
)

// View tells which page the aggregates are for.
type View int

const (
	ViewGlobal View = iota
	ViewShop
)

func (v View) String() string {
	if v == ViewShop {
		return "shop"
	}
	return "global"
}

// Summarize totals the filtered list. In the global view only the cooperative
// and shop roles get figures; everyone else sees zeros.
func Summarize(filtered []models.Transaction, v roles.Viewer, view View) models.Summary {
	if view == ViewGlobal && !roles.For(v.Role).Summary {
		return models.Summary{}
	}

	qty, revenue := decimal.Zero, decimal.Zero
	for _, tx := range filtered {
		amount := decimal.NewFromFloat(tx.Amount)
		qty = qty.Add(amount)
		revenue = revenue.Add(amount.Mul(decimal.NewFromFloat(tx.UnitPrice())))
	}
	return models.Summary{
		TotalTransactions: len(filtered),
		TotalQuantity:     qty.InexactFloat64(),
		TotalRevenue:      revenue.Round(2).InexactFloat64(),
	}
}

// LineTotal is amount times unit price, rounded to cents.
func LineTotal(tx models.Transaction) decimal.Decimal {
	return decimal.NewFromFloat(tx.Amount).Mul(decimal.NewFromFloat(tx.UnitPrice())).Round(2)
}

// VisibleCooperatives narrows coops to the viewer's woreda, or to the
// selected woreda for roles that can pick one.
func VisibleCooperatives(coops []models.Cooperative, v roles.Viewer, woreda string) []models.Cooperative {
	caps := roles.For(v.Role)
	want := ""
	switch {
	case caps.OwnWoredaOnly:
		want = v.WorksAt
	case caps.WoredaFilter && isSet(woreda):
		want = woreda
	default:
		return coops
	}

	out := make([]models.Cooperative, 0, len(coops))
	for _, c := range coops {
		if c.WoredaID() == want {
			out = append(out, c)
		}
	}
	return out
}

// GroupByCooperative partitions filtered by cooperative in first-appearance
// order. Transactions whose cooperative is not in coops are left out.
func GroupByCooperative(filtered []models.Transaction, coops []models.Cooperative) []models.CooperativeGroup {
	known := make(map[string]models.Cooperative, len(coops))
	for _, c := range coops {
		known[c.ID] = c
	}

	index := make(map[string]int)
	var groups []models.CooperativeGroup
	for _, tx := range filtered {
		c, ok := known[tx.CooperativeID()]
		if !ok {
			continue
		}
		i, seen := index[c.ID]
		if !seen {
			i = len(groups)
			index[c.ID] = i
			groups = append(groups, models.CooperativeGroup{
				Cooperative: models.CooperativeRef{ID: c.ID, Name: c.Name, WoredaOffice: c.WoredaOffice},
			})
		}
		groups[i].Transactions = append(groups[i].Transactions, tx)
	}
	return groups
}

// GroupShopsByCooperative lists each cooperative in coops order with the
// shops that belong to it.
func GroupShopsByCooperative(shops []models.Shop, coops []models.Cooperative) []models.ShopGroup {
	byCoop := make(map[string][]models.Shop)
	for _, s := range shops {
		if id := s.CooperativeID(); id != "" {
			byCoop[id] = append(byCoop[id], s)
		}
	}

	groups := make([]models.ShopGroup, 0, len(coops))
	for _, c := range coops {
		groups = append(groups, models.ShopGroup{Cooperative: c, Shops: byCoop[c.ID]})
	}
	return groups
}
