package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"retail-dashboard/internal/errors"
	"retail-dashboard/internal/export"
	"retail-dashboard/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExportHandlers struct {
	Deps
	now func() time.Time
}

func NewExportHandlers(deps Deps) *ExportHandlers {
	return &ExportHandlers{Deps: deps, now: time.Now}
}

// HandleTransactions exports the caller's filtered all-shops view.
func (h *ExportHandlers) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.writeErr(w, r, err, "")
		return
	}
	f, err := h.parseFilter(r.URL.Query())
	if err != nil {
		h.writeErr(w, r, err, "")
		return
	}

	page, err := h.Dashboard.Global(r.Context(), p.Token, p.Role, f)
	if err != nil {
		h.writeErr(w, r, err, "Failed to load transactions")
		return
	}
	h.send(w, r, page, f, export.VariantGlobal)
}

// HandleShopTransactions exports one shop's transactions with a grand total.
func (h *ExportHandlers) HandleShopTransactions(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.writeErr(w, r, err, "")
		return
	}
	f, err := h.parseFilter(r.URL.Query())
	if err != nil {
		h.writeErr(w, r, err, "")
		return
	}

	page, err := h.Dashboard.ShopView(r.Context(), p.Token, p.Role, r.PathValue("shopID"), f)
	if err != nil {
		h.writeErr(w, r, err, "Failed to load shop transactions")
		return
	}
	h.send(w, r, page, f, export.VariantShop)
}

func (h *ExportHandlers) send(w http.ResponseWriter, r *http.Request, page *services.Page, f services.Filter, v export.Variant) {
	opts := export.Options{
		Variant:    v,
		Start:      f.Start,
		End:        f.End,
		Now:        h.now(),
		Location:   h.location(),
		ClockShift: h.Display.ClockShift(),
	}
	if page.Shop != nil {
		opts.ShopName = page.Shop.Name
	}

	report, err := export.Build(page.Transactions, opts)
	if err != nil {
		h.writeErr(w, r, err, "Failed to build report")
		return
	}
	body, err := report.Bytes()
	if err != nil {
		h.writeErr(w, r, errors.InternalWrap(err, "Failed to build report"), "")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", contentDisposition(report.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.log(r).Warn("export write failed", "file", report.FileName, "error", err)
		return
	}

	h.log(r).Info("report exported",
		"variant", v.String(),
		"file", report.FileName,
		"groups", len(report.Groups),
		"records", len(page.Transactions),
	)
}

// contentDisposition names the attachment with an ASCII fallback and the
// UTF-8 name from RFC 5987.
func contentDisposition(name string) string {
	return fmt.Sprintf(`attachment; filename="report.xlsx"; filename*=UTF-8''%s`, url.PathEscape(name))
}
