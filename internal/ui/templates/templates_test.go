package templates

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"

	"retail-dashboard/internal/checkout"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/roles"
	"retail-dashboard/internal/services"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	if err := c.Render(context.Background(), &b); err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	return b.String()
}

func shopPage() *services.Page {
	coop := &models.CooperativeRef{ID: "c1", Name: "Abebe Cooperative"}
	return &services.Page{
		Viewer:       roles.Viewer{Role: roles.RetailerCooperativeShop, WorksAt: "s1"},
		Capabilities: roles.For(roles.RetailerCooperativeShop),
		View:         services.ViewGlobal.String(),
		Transactions: []models.Transaction{{
			ID:        "t1",
			Amount:    3,
			Commodity: &models.CommodityRef{Name: "sugar", Price: 5},
			Shop:      &models.ShopRef{ID: "s1", Name: "Shop <One>", Cooperative: coop},
			CreatedAt: time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC),
			Status:    models.StatusSuccess,
		}},
		Summary: models.Summary{TotalTransactions: 1, TotalQuantity: 3, TotalRevenue: 15},
	}
}

func TestDashboard_Cashier(t *testing.T) {
	f := services.DefaultFilter()
	f.Search = `say "hi"`
	d := Data{
		Title:     "Transactions",
		Page:      shopPage(),
		Filter:    f,
		Location:  time.FixedZone("EAT", 3*3600),
		StreamURL: "/sse/transactions",
		ExportURL: "/export/transactions.xlsx",
		Checkout:  checkout.NewForm(),
		Options:   []checkout.Option{{Value: "sugar-id", Label: "sugar - 5 birr"}},
	}

	html := renderString(t, Dashboard(d))

	for _, want := range []string{
		`id="summary-cards"`,
		`id="transactions-table"`,
		`id="checkout"`,
		`id="notice"`,
		"15.00 ብር",
		"05-01-2024 12:00",
		"ስኳር",
		"Shop &lt;One&gt;",
		"sugar - 5 birr",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page should contain %q", want)
		}
	}
	if strings.Contains(html, "Shop <One>") {
		t.Error("shop names must be escaped")
	}
}

func TestInitialSignals(t *testing.T) {
	f := services.DefaultFilter()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.Start = &start
	f.Commodity = "oil"

	sig := InitialSignals(Data{Filter: f, Checkout: checkout.NewForm()})
	if sig.Filter.StartDate != "2024-01-01" || sig.Filter.EndDate != "" || sig.Filter.Commodity != "oil" {
		t.Errorf("filter signals = %+v", sig.Filter)
	}

	b, err := json.Marshal(sig)
	if err != nil {
		t.Fatal(err)
	}
	var back map[string]map[string]any
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back["checkout"]["scannerOpen"] != true || back["checkout"]["quantity"] != float64(checkout.DefaultQuantity) {
		t.Errorf("checkout signals = %v", back["checkout"])
	}
}

func TestFragments(t *testing.T) {
	page := shopPage()
	page.Capabilities = roles.For(roles.TradeBureau)
	page.Summary = models.Summary{}

	summary := renderString(t, Summary(Data{Page: page}))
	if strings.Contains(summary, `class="cards"`) {
		t.Error("trade bureau summary should render empty")
	}

	page.View = services.ViewShop.String()
	summary = renderString(t, Summary(Data{Page: page}))
	if !strings.Contains(summary, `class="cards"`) {
		t.Error("shop view always shows the summary")
	}

	empty := renderString(t, Table(Data{Page: &services.Page{}}))
	if !strings.Contains(empty, "No transactions found.") {
		t.Errorf("empty table = %q", empty)
	}

	notice := renderString(t, Notice("Transaction failed", false))
	if !strings.Contains(notice, `class="notice err"`) || !strings.Contains(notice, "Transaction failed") {
		t.Errorf("notice = %q", notice)
	}
}

func TestDashboard_ResetOnlyWhenFiltered(t *testing.T) {
	d := Data{Title: "Transactions", Page: shopPage(), Filter: services.DefaultFilter()}
	if html := renderString(t, Dashboard(d)); strings.Contains(html, ">Reset<") {
		t.Error("reset link shown for the default filter")
	}

	d.Filter.Status = "pending"
	if html := renderString(t, Dashboard(d)); !strings.Contains(html, ">Reset<") {
		t.Error("reset link missing for an active filter")
	}
}
