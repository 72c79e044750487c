// Package export renders filtered transactions as an xlsx report grouped by
// commodity.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"retail-dashboard/internal/models"
)

var ErrNoData = errors.New("export: no transactions to export")

type Variant int

const (
	VariantGlobal Variant = iota
	VariantShop
)

func (v Variant) String() string {
	if v == VariantShop {
		return "shop"
	}
	return "global"
}

const (
	ReportLabel = "የግብይት_ሪፖርት"
	SheetName   = "የግብይት ሪፖርት"

	titleDateLayout = "02-01-2006"
	rowTimeLayout   = "02-01-2006 03:04:05 PM"

	SubtotalLabel = "ድምር"
	TotalLabel    = "ጠቅላላ ድምር"
	currencyUnit  = "ብር"
	missingText   = "-"
)

// Headers are the column titles repeated above every commodity group.
var Headers = []string{"ተ.ቁ", "ቀን", "እቃ", "መጠን", "የአንዱ ዋጋ", "አጠቃላይ ዋጋ", "ሱቅ", "ደንበኛ"}

const (
	colSerial = iota
	colDate
	colCommodity
	colAmount
	colUnitPrice
	colTotal
	colShop
	colCustomer
	numColumns
)

// Label is how a commodity is shown in the report.
type Label struct {
	Name string
	Unit string
}

// DefaultLabels maps lower-case commodity names to their Amharic label and unit.
var DefaultLabels = map[string]Label{
	"sugar": {Name: "ስኳር", Unit: "ኪ.ግ"},
	"oil":   {Name: "ዘይት", Unit: "ሊትር"},
}

type Options struct {
	Variant  Variant
	Start    *time.Time
	End      *time.Time
	Now      time.Time
	ShopName string

	// Location is the display time zone. Nil means UTC.
	Location *time.Location
	// ClockShift is subtracted from every transaction time on the data rows.
	ClockShift time.Duration
	// Labels overrides DefaultLabels.
	Labels map[string]Label
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now().In(o.location())
	}
	return o.Now.In(o.location())
}

func (o Options) label(commodity string) Label {
	key := strings.ToLower(strings.TrimSpace(commodity))
	labels := o.Labels
	if labels == nil {
		labels = DefaultLabels
	}
	if l, ok := labels[key]; ok {
		return l
	}
	return Label{Name: commodity}
}

type RowKind int

const (
	RowTitle RowKind = iota
	RowBlank
	RowGroupHeader
	RowColumnHeader
	RowData
	RowSubtotal
	RowTotal
)

func (k RowKind) String() string {
	switch k {
	case RowTitle:
		return "title"
	case RowBlank:
		return "blank"
	case RowGroupHeader:
		return "group_header"
	case RowColumnHeader:
		return "column_header"
	case RowData:
		return "data"
	case RowSubtotal:
		return "subtotal"
	case RowTotal:
		return "total"
	default:
		return fmt.Sprintf("RowKind(%d)", int(k))
	}
}

// Row is one sheet row. Unit is the quantity unit of the commodity group the
// row belongs to and drives its number formats.
type Row struct {
	Kind  RowKind
	Cells []any
	Unit  string
}

// Group is the per-commodity slice of the report.
type Group struct {
	Commodity string
	Label     Label
	Quantity  decimal.Decimal
	Total     decimal.Decimal
	Count     int
}

type Report struct {
	Title    string
	FileName string
	Rows     []Row
	Groups   []Group
	Total    decimal.Decimal
	Variant  Variant
}

// Build lays out txs as report rows. Groups follow the first appearance of
// each commodity in txs.
func Build(txs []models.Transaction, opts Options) (*Report, error) {
	if len(txs) == 0 {
		return nil, ErrNoData
	}
	loc := opts.location()
	now := opts.now()

	type bucket struct {
		name string
		txs  []models.Transaction
	}
	var buckets []*bucket
	index := make(map[string]*bucket)
	for _, tx := range txs {
		name := tx.CommodityName()
		if strings.TrimSpace(name) == "" {
			name = "Unknown"
		}
		key := strings.ToLower(strings.TrimSpace(name))
		b, ok := index[key]
		if !ok {
			b = &bucket{name: name}
			index[key] = b
			buckets = append(buckets, b)
		}
		b.txs = append(b.txs, tx)
	}

	r := &Report{
		Title:    Title(opts.Start, opts.End, now, loc),
		FileName: FileName(opts.Variant, opts.ShopName, now),
		Total:    decimal.Zero,
		Variant:  opts.Variant,
	}
	r.Rows = append(r.Rows,
		Row{Kind: RowTitle, Cells: []any{r.Title}},
		Row{Kind: RowBlank},
	)

	for _, b := range buckets {
		label := opts.label(b.name)
		g := Group{Commodity: b.name, Label: label, Quantity: decimal.Zero, Total: decimal.Zero, Count: len(b.txs)}

		r.Rows = append(r.Rows,
			Row{Kind: RowGroupHeader, Cells: []any{"እቃ: " + label.Name}, Unit: label.Unit},
			Row{Kind: RowColumnHeader, Cells: headerCells(), Unit: label.Unit},
		)
		for i, tx := range b.txs {
			amount := decimal.NewFromFloat(tx.Amount)
			line := amount.Mul(decimal.NewFromFloat(tx.UnitPrice())).Round(2)
			g.Quantity = g.Quantity.Add(amount)
			g.Total = g.Total.Add(line)

			r.Rows = append(r.Rows, Row{Kind: RowData, Unit: label.Unit, Cells: []any{
				i + 1,
				tx.CreatedAt.In(loc).Add(-opts.ClockShift).Format(rowTimeLayout),
				label.Name,
				tx.Amount,
				tx.UnitPrice(),
				line.InexactFloat64(),
				orMissing(tx.ShopName()),
				orMissing(tx.CustomerName()),
			}})
		}
		r.Rows = append(r.Rows,
			Row{Kind: RowBlank},
			Row{Kind: RowSubtotal, Unit: label.Unit, Cells: []any{
				nil, nil, SubtotalLabel, g.Quantity.InexactFloat64(), nil, g.Total.InexactFloat64(), nil, nil,
			}},
			Row{Kind: RowBlank},
		)

		r.Total = r.Total.Add(g.Total)
		r.Groups = append(r.Groups, g)
	}

	if opts.Variant == VariantShop {
		r.Rows = append(r.Rows, Row{Kind: RowTotal, Cells: []any{
			nil, nil, nil, nil, TotalLabel, r.Total.InexactFloat64(), nil, nil,
		}})
	}
	return r, nil
}

func headerCells() []any {
	cells := make([]any, len(Headers))
	for i, h := range Headers {
		cells[i] = h
	}
	return cells
}

func orMissing(s string) string {
	if strings.TrimSpace(s) == "" {
		return missingText
	}
	return s
}

// Title describes the covered period. Without bounds it names the trailing
// 30 days ending at now.
func Title(start, end *time.Time, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	day := func(t time.Time) string { return t.In(loc).Format(titleDateLayout) }

	switch {
	case start != nil && end != nil:
		return fmt.Sprintf("ግብይቶች ከ %s እስከ %s", day(*start), day(*end))
	case start != nil:
		return fmt.Sprintf("ግብይቶች ከ %s ጀምሮ", day(*start))
	case end != nil:
		return fmt.Sprintf("ግብይቶች እስከ %s", day(*end))
	default:
		return fmt.Sprintf("ግብይቶች ከ %s እስከ %s (ባለፉት 30 ቀናት)", day(now.AddDate(0, 0, -30)), day(now))
	}
}

var fileNameReplacer = strings.NewReplacer("/", "-", "\\", "-", " ", "_", ":", "-")

// FileName is <label>_<yyyy-MM-dd>.xlsx for the global report and
// <label>_<shop>_<yyyy-MM-dd_HH-mm-ss>.xlsx for a shop.
func FileName(v Variant, shopName string, now time.Time) string {
	if v == VariantShop {
		parts := []string{ReportLabel}
		if shop := strings.TrimSpace(shopName); shop != "" {
			parts = append(parts, fileNameReplacer.Replace(shop))
		}
		parts = append(parts, now.Format("2006-01-02_15-04-05"))
		return strings.Join(parts, "_") + ".xlsx"
	}
	return ReportLabel + "_" + now.Format("2006-01-02") + ".xlsx"
}
