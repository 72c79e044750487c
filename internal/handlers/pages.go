package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/a-h/templ"

	"retail-dashboard/internal/checkout"
	"retail-dashboard/internal/services"
	"retail-dashboard/internal/ui/templates"
)

const renderTimeout = 10 * time.Second

type PageHandlers struct {
	Deps
}

func NewPageHandlers(deps Deps) *PageHandlers {
	return &PageHandlers{Deps: deps}
}

func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	f, err := h.parseFilter(r.URL.Query())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	page, err := h.Dashboard.Global(r.Context(), p.Token, p.Role, f)
	if err != nil {
		h.fail(w, r, err, "Failed to load transactions")
		return
	}

	data := h.pageData(page, f, "Transactions", "/sse/transactions", "/export/transactions.xlsx", r.URL.Query())
	if data.CanCreate() {
		data.Checkout = checkout.NewForm()
		if page.Shop != nil {
			data.Options = checkout.CommodityOptions(*page.Shop)
		}
	}
	h.render(w, r, templates.Dashboard(data))
}

func (h *PageHandlers) HandleShop(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	f, err := h.parseFilter(r.URL.Query())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	shopID := r.PathValue("shopID")
	page, err := h.Dashboard.ShopView(r.Context(), p.Token, p.Role, shopID, f)
	if err != nil {
		h.fail(w, r, err, "Failed to load shop transactions")
		return
	}

	title := "Shop transactions"
	if page.Shop != nil && page.Shop.Name != "" {
		title = page.Shop.Name + " transactions"
	}
	escaped := url.PathEscape(shopID)
	data := h.pageData(page, f, title,
		"/sse/shops/"+escaped+"/transactions",
		"/export/shops/"+escaped+"/transactions.xlsx",
		r.URL.Query())
	h.render(w, r, templates.ShopPage(data))
}

func (h *PageHandlers) pageData(page *services.Page, f services.Filter, title, stream, exportPath string, q url.Values) templates.Data {
	if enc := q.Encode(); enc != "" {
		exportPath += "?" + enc
	}
	return templates.Data{
		Title:     title,
		Page:      page,
		Filter:    f,
		Location:  h.location(),
		StreamURL: stream,
		ExportURL: exportPath,
	}
}

func (h *PageHandlers) render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	var buf strings.Builder
	if err := c.Render(ctx, &buf); err != nil {
		h.log(r).Error("render page", "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write([]byte(buf.String()))
}

// fail answers page requests with a plain-text error in the same status as
// the JSON API would use.
func (h *PageHandlers) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	appErr := appError(err, fallback)
	h.log(r).Warn("page request failed",
		"status_code", appErr.StatusCode,
		"error_code", appErr.Code,
		"cause", appErr.Cause,
	)
	http.Error(w, appErr.Message, appErr.StatusCode)
}
