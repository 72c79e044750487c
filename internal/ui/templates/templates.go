// Package templates renders the dashboard pages and the fragments patched in
// over SSE.
package templates

import (
	"context"
	"encoding/json"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"

	"retail-dashboard/internal/checkout"
	"retail-dashboard/internal/export"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/services"
)

// Data feeds every page and fragment.
type Data struct {
	Title     string
	Page      *services.Page
	Filter    services.Filter
	Location  *time.Location
	StreamURL string
	ExportURL string

	Checkout checkout.Form
	Options  []checkout.Option
}

func (d Data) ShowSummary() bool {
	if d.Page == nil {
		return false
	}
	return d.Page.View == services.ViewShop.String() || d.Page.Capabilities.Summary
}

func (d Data) CanCreate() bool {
	return d.Page != nil && d.Page.Capabilities.CreateTransaction && d.Page.View == services.ViewGlobal.String()
}

var funcs = template.FuncMap{
	"money": func(v float64) string {
		return decimal.NewFromFloat(v).StringFixed(2)
	},
	"qty": func(v float64) string {
		return decimal.NewFromFloat(v).String()
	},
	"lineTotal": func(tx models.Transaction) string {
		return services.LineTotal(tx).StringFixed(2)
	},
	"localTime": func(loc *time.Location, t time.Time) string {
		if loc == nil {
			loc = time.UTC
		}
		return t.In(loc).Format("02-01-2006 15:04")
	},
	"day": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02")
	},
	"label": func(commodity string) string {
		if l, ok := export.DefaultLabels[strings.ToLower(commodity)]; ok {
			return l.Name
		}
		if commodity == "" {
			return "-"
		}
		return commodity
	},
	"orDash": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "-"
		}
		return s
	},
	"selected": func(current, value string) bool {
		return strings.EqualFold(current, value)
	},
	"rowsData": func(loc *time.Location, txs []models.Transaction) rows {
		return rows{Location: loc, Transactions: txs}
	},
	"signals": func(d Data) (string, error) {
		b, err := json.Marshal(InitialSignals(d))
		return string(b), err
	},
}

type rows struct {
	Location     *time.Location
	Transactions []models.Transaction
}

// FilterSignals mirrors the filter inputs bound on the page.
type FilterSignals struct {
	Search      string `json:"search"`
	Commodity   string `json:"commodity"`
	Status      string `json:"status"`
	Cooperative string `json:"cooperative"`
	Shop        string `json:"shop"`
	Woreda      string `json:"woreda"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

// CheckoutSignals is the checkout form plus the raw scanner input.
type CheckoutSignals struct {
	checkout.Form
	ScanInput string `json:"scanInput"`
}

// Signals is the page's client-side state.
type Signals struct {
	Filter   FilterSignals   `json:"filter"`
	Checkout CheckoutSignals `json:"checkout"`
}

func InitialSignals(d Data) Signals {
	day := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02")
	}
	f := d.Filter
	return Signals{
		Filter: FilterSignals{
			Search:      f.Search,
			Commodity:   f.Commodity,
			Status:      f.Status,
			Cooperative: f.Cooperative,
			Shop:        f.Shop,
			Woreda:      f.Woreda,
			StartDate:   day(f.Start),
			EndDate:     day(f.End),
		},
		Checkout: CheckoutSignals{Form: d.Checkout},
	}
}

var tmpl = template.Must(template.New("templates").Funcs(funcs).Parse(layoutHTML + fragmentsHTML + checkoutHTML))

func render(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return tmpl.ExecuteTemplate(w, name, data)
	})
}

// Dashboard is the all-shops transactions page.
func Dashboard(d Data) templ.Component { return render("page", d) }

// ShopPage is the single-shop transactions page.
func ShopPage(d Data) templ.Component { return render("page", d) }

// Summary is the #summary-cards fragment.
func Summary(d Data) templ.Component { return render("summary", d) }

// Table is the #transactions-table fragment.
func Table(d Data) templ.Component { return render("table", d) }

// CheckoutForm is the #checkout fragment.
func CheckoutForm(d Data) templ.Component { return render("checkout", d) }

// Notice is the #notice fragment.
func Notice(message string, ok bool) templ.Component {
	return render("notice", struct {
		Message string
		OK      bool
	}{message, ok})
}

const layoutHTML = `
{{define "page"}}<!DOCTYPE html>
<html lang="am">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"></script>
<style>
body{font-family:system-ui,sans-serif;margin:0;background:#f5f6f8;color:#222}
main{max-width:1200px;margin:0 auto;padding:1.5rem}
.filters{display:flex;flex-wrap:wrap;gap:.5rem;margin-bottom:1rem}
.cards{display:grid;grid-template-columns:repeat(3,1fr);gap:1rem;margin-bottom:1rem}
.card{background:#fff;border-radius:8px;padding:1rem;box-shadow:0 1px 2px rgba(0,0,0,.08)}
table{width:100%;border-collapse:collapse;background:#fff}
th,td{padding:.5rem;border-bottom:1px solid #eee;text-align:left}
th{background:#4f81bd;color:#fff}
.group{margin-top:1.5rem}
.notice{padding:.75rem;border-radius:6px;margin-bottom:1rem}
.notice.ok{background:#e6f4ea}.notice.err{background:#fdecea}
.stale{color:#a15c00}
</style>
</head>
<body>
<main data-signals="{{signals .}}"
      data-init="@get('{{.StreamURL}}')">
<h1>{{.Title}}</h1>
<div id="notice"></div>
{{template "filters" .}}
{{if .CanCreate}}{{template "checkout" .}}{{end}}
{{template "summary" .}}
{{template "table" .}}
</main>
</body>
</html>{{end}}

{{define "filters"}}<form class="filters" method="get">
{{with .Page}}{{if ne .Capabilities.Search 0}}<input type="search" name="search" placeholder="Search" data-bind="filter.search">{{end}}{{end}}
<select name="commodity" data-bind="filter.commodity">
<option value="all">All commodities</option>
<option value="sugar"{{if selected $.Filter.Commodity "sugar"}} selected{{end}}>ስኳር</option>
<option value="oil"{{if selected $.Filter.Commodity "oil"}} selected{{end}}>ዘይት</option>
</select>
<select name="status" data-bind="filter.status">
<option value="all">All statuses</option>
<option value="success"{{if selected $.Filter.Status "success"}} selected{{end}}>Success</option>
<option value="pending"{{if selected $.Filter.Status "pending"}} selected{{end}}>Pending</option>
<option value="failed"{{if selected $.Filter.Status "failed"}} selected{{end}}>Failed</option>
</select>
{{with .Page}}
{{if .Capabilities.WoredaFilter}}<select name="woreda" data-bind="filter.woreda">
<option value="all">All woredas</option>
{{range .Woredas}}<option value="{{.ID}}"{{if selected $.Filter.Woreda .ID}} selected{{end}}>{{.Name}}</option>{{end}}
</select>{{end}}
{{if .Capabilities.CooperativeFilter}}<select name="cooperative" data-bind="filter.cooperative">
<option value="all">All cooperatives</option>
{{range .Cooperatives}}<option value="{{.ID}}"{{if selected $.Filter.Cooperative .ID}} selected{{end}}>{{.Name}}</option>{{end}}
</select>{{end}}
{{if .Capabilities.ShopFilter}}<select name="shop" data-bind="filter.shop">
<option value="all">All shops</option>
{{range .Shops}}<option value="{{.ID}}"{{if selected $.Filter.Shop .ID}} selected{{end}}>{{.Name}}</option>{{end}}
</select>{{end}}
{{end}}
<input type="date" name="startDate" data-bind="filter.startDate">
<input type="date" name="endDate" data-bind="filter.endDate">
<button type="submit">Apply</button>
{{if .Filter.Active}}<a href="?">Reset</a>{{end}}
<a href="{{.ExportURL}}">Export xlsx</a>
</form>{{end}}
`

const fragmentsHTML = `
{{define "summary"}}<section id="summary-cards">{{if .ShowSummary}}{{with .Page.Summary}}
<div class="cards">
<div class="card"><small>Transactions</small><h2>{{.TotalTransactions}}</h2></div>
<div class="card"><small>Quantity</small><h2>{{qty .TotalQuantity}}</h2></div>
<div class="card"><small>Revenue</small><h2>{{money .TotalRevenue}} ብር</h2></div>
</div>{{end}}{{end}}</section>{{end}}

{{define "thead"}}<thead><tr><th>Date</th><th>Cooperative</th><th>Shop</th><th>Commodity</th><th>Amount</th><th>Unit price</th><th>Total</th><th>Customer</th><th>Status</th></tr></thead>{{end}}

{{define "table"}}<section id="transactions-table">{{with .Page}}
{{if .Stale}}<p class="stale">Showing data from {{localTime $.Location .FetchedAt}}; the backend is not responding.</p>{{end}}
{{if .Capabilities.GroupByCooperative}}
{{range .Groups}}<div class="group"><h3>{{.Cooperative.Name}}</h3>
<table>{{template "thead"}}<tbody>{{template "grouprows" (rowsData $.Location .Transactions)}}</tbody></table></div>
{{else}}<p>No transactions found.</p>{{end}}
{{else}}
<table>{{template "thead"}}<tbody>{{template "grouprows" (rowsData $.Location .Transactions)}}</tbody></table>
{{if not .Transactions}}<p>No transactions found.</p>{{end}}
{{end}}
{{end}}</section>{{end}}

{{define "grouprows"}}{{$loc := .Location}}{{range .Transactions}}<tr>
<td>{{localTime $loc .CreatedAt}}</td>
<td>{{orDash .CooperativeName}}</td>
<td>{{orDash .ShopName}}</td>
<td>{{label .CommodityName}}</td>
<td>{{qty .Amount}}</td>
<td>{{money .UnitPrice}}</td>
<td>{{lineTotal .}}</td>
<td>{{orDash .CustomerName}}</td>
<td>{{.Status}}</td>
</tr>{{end}}{{end}}

{{define "notice"}}<div id="notice">{{if .Message}}<div class="notice {{if .OK}}ok{{else}}err{{end}}">{{.Message}}</div>{{end}}</div>{{end}}
`

const checkoutHTML = `
{{define "checkout"}}<section id="checkout" class="card">
<h2>New transaction</h2>
{{with .Checkout}}
{{if .ScannerOpen}}<div>
<label>Fayda number <input data-bind="checkout.scanInput" autofocus></label>
<button data-on-click="@post('/sse/checkout/scan')">Look up</button>
</div>{{else}}<dl>
<dt>Name</dt><dd>{{.Name}}</dd>
<dt>House number</dt><dd>{{.HouseNumber}}</dd>
<dt>Woreda</dt><dd>{{.Woreda}}</dd>
<dt>Fayda</dt><dd>{{.Fayda}}</dd>
</dl>{{end}}
{{if .Notice}}<p class="notice {{if .Success}}ok{{else}}err{{end}}">{{.Notice}}</p>{{end}}
{{if .Error}}<p class="notice err">{{.Error}}</p>{{end}}
{{end}}
<label>Commodity <select data-bind="checkout.commodity">
<option value="">Select commodity</option>
{{range .Options}}<option value="{{.Value}}"{{if selected $.Checkout.Commodity .Value}} selected{{end}}>{{.Label}}</option>{{end}}
</select></label>
<label>Quantity <input type="number" min="1" data-bind="checkout.quantity"></label>
<button data-on-click="@post('/sse/checkout/submit')">Submit</button>
</section>{{end}}
`
