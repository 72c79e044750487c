package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"retail-dashboard/internal/auth"
	"retail-dashboard/internal/checkout"
	"retail-dashboard/internal/errors"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/roles"
	"retail-dashboard/internal/services"
	"retail-dashboard/internal/ui/templates"
)

const defaultPollInterval = time.Second

type SSEHandlers struct {
	Deps
}

func NewSSEHandlers(deps Deps) *SSEHandlers {
	return &SSEHandlers{Deps: deps}
}

func renderString(ctx context.Context, c templ.Component) (string, error) {
	var buf strings.Builder
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// filterValues turns the bound filter signals into the query form ParseFilter
// reads.
func filterValues(fs templates.FilterSignals) url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v = strings.TrimSpace(v); v != "" {
			q.Set(k, v)
		}
	}
	set("search", fs.Search)
	set("commodity", fs.Commodity)
	set("status", fs.Status)
	set("cooperative", fs.Cooperative)
	set("shop", fs.Shop)
	set("woreda", fs.Woreda)
	set("startDate", fs.StartDate)
	set("endDate", fs.EndDate)
	return q
}

// HandleTransactions streams the all-shops summary and table, refreshed every
// poll interval until the client goes away.
func (h *SSEHandlers) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, func(ctx context.Context, p auth.Principal, f services.Filter) (*services.Page, error) {
		return h.Dashboard.Global(ctx, p.Token, p.Role, f)
	})
}

// HandleShopTransactions streams one shop's summary and table.
func (h *SSEHandlers) HandleShopTransactions(w http.ResponseWriter, r *http.Request) {
	shopID := r.PathValue("shopID")
	h.stream(w, r, func(ctx context.Context, p auth.Principal, f services.Filter) (*services.Page, error) {
		return h.Dashboard.ShopView(ctx, p.Token, p.Role, shopID, f)
	})
}

type loadFunc func(ctx context.Context, p auth.Principal, f services.Filter) (*services.Page, error)

func (h *SSEHandlers) stream(w http.ResponseWriter, r *http.Request, load loadFunc) {
	p, err := principal(r)
	if err != nil {
		h.writeErr(w, r, err, "")
		return
	}

	var signals templates.Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.writeErr(w, r, errors.BadRequestWrap(err, "Invalid signals"), "")
		return
	}
	f, err := h.parseFilter(filterValues(signals.Filter))
	if err != nil {
		h.writeErr(w, r, err, "")
		return
	}

	logger := h.log(r)
	sse := datastar.NewSSE(w, r)
	ctx := r.Context()

	push := func() {
		page, err := load(ctx, p, f)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("poll transactions failed", "error", err)
			h.patchNotice(ctx, sse, appError(err, "Failed to load transactions").Message, false)
			return
		}
		data := templates.Data{Page: page, Filter: f, Location: h.location()}
		for _, c := range []templ.Component{templates.Summary(data), templates.Table(data)} {
			html, err := renderString(ctx, c)
			if err != nil {
				logger.Error("render fragment", "error", err)
				return
			}
			if err := sse.PatchElements(html); err != nil {
				logger.Debug("patch elements", "error", err)
				return
			}
		}
	}

	push()

	interval := h.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("transactions stream closed")
			return
		case <-ticker.C:
			push()
		}
	}
}

func (h *SSEHandlers) patchNotice(ctx context.Context, sse *datastar.ServerSentEventGenerator, message string, ok bool) {
	html, err := renderString(ctx, templates.Notice(message, ok))
	if err != nil {
		h.Logger.Error("render notice", "error", err)
		return
	}
	sse.PatchElements(html)
}

// HandleCheckoutScan resolves the scanned Fayda number and patches the
// checkout form.
func (h *SSEHandlers) HandleCheckoutScan(w http.ResponseWriter, r *http.Request) {
	h.checkout(w, r, func(ctx context.Context, s *checkout.Session, signals templates.Signals) error {
		return s.Lookup(ctx, signals.Checkout.ScanInput)
	})
}

// HandleCheckoutSubmit records the transaction described by the form.
func (h *SSEHandlers) HandleCheckoutSubmit(w http.ResponseWriter, r *http.Request) {
	h.checkout(w, r, func(ctx context.Context, s *checkout.Session, _ templates.Signals) error {
		return s.Submit(ctx)
	})
}

type checkoutStep func(ctx context.Context, s *checkout.Session, signals templates.Signals) error

func (h *SSEHandlers) checkout(w http.ResponseWriter, r *http.Request, step checkoutStep) {
	p, err := principal(r)
	if err != nil {
		h.writeErr(w, r, err, "")
		return
	}
	if !roles.For(p.Role).CreateTransaction {
		h.writeErr(w, r, errors.Forbidden("Your role cannot create transactions"), "")
		return
	}

	var signals templates.Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.writeErr(w, r, errors.BadRequestWrap(err, "Invalid signals"), "")
		return
	}

	ctx := r.Context()
	logger := h.log(r)
	viewer, err := h.viewer(ctx, p)
	if err != nil {
		h.writeErr(w, r, err, "Transaction failed")
		return
	}

	s := checkout.NewSession(h.Backend, p.Token, viewer, signals.Checkout.Form, logger)
	s.OnSuccess = func(tx models.NewTransaction) {
		logger.Info("transaction created", "shop_id", tx.ShopID, "commodity", tx.CommodityID, "amount", tx.Amount)
	}
	stepErr := step(ctx, s, signals)
	if stepErr != nil {
		logger.Debug("checkout step failed", "error", stepErr)
	}

	var opts []checkout.Option
	if shop, err := h.Backend.Shop(ctx, p.Token, viewer.WorksAt); err == nil {
		opts = checkout.CommodityOptions(shop)
	} else {
		logger.Warn("load commodity options", "shop_id", viewer.WorksAt, "error", err)
	}

	sse := datastar.NewSSE(w, r)

	patch, err := json.Marshal(map[string]any{
		"checkout": templates.CheckoutSignals{Form: s.Form},
	})
	if err != nil {
		logger.Error("marshal checkout signals", "error", err)
		return
	}
	if err := sse.PatchSignals(patch); err != nil {
		logger.Debug("patch signals", "error", err)
		return
	}

	html, err := renderString(ctx, templates.CheckoutForm(templates.Data{Checkout: s.Form, Options: opts}))
	if err != nil {
		logger.Error("render checkout", "error", err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		logger.Debug("patch elements", "error", err)
		return
	}

	message := s.Form.Notice
	if message == "" {
		message = s.Form.Error
	}
	h.patchNotice(ctx, sse, message, stepErr == nil && s.Form.Success)
}
