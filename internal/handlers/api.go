package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"retail-dashboard/internal/backend"
	"retail-dashboard/internal/checkout"
	"retail-dashboard/internal/errors"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/roles"
)

const maxBodyBytes = 64 << 10

type APIHandlers struct {
	Deps
}

func NewAPIHandlers(deps Deps) *APIHandlers {
	return &APIHandlers{Deps: deps}
}

func (h *APIHandlers) HandleTransactions(w http.ResponseWriter, r *http.Request) {
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

	errors.WriteSuccessWithHeaders(w, page, map[string]string{
		"Cache-Control": "no-store",
	})
}

func (h *APIHandlers) HandleShopTransactions(w http.ResponseWriter, r *http.Request) {
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

	errors.WriteSuccessWithHeaders(w, page, map[string]string{
		"Cache-Control": "no-store",
	})
}

// HandleCustomer looks up a customer by Fayda number and answers with the
// filled checkout form.
func (h *APIHandlers) HandleCustomer(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.writeErr(w, r, err, "")
		return
	}

	s := checkout.NewSession(h.Backend, p.Token, roles.Viewer{Role: p.Role}, checkout.NewForm(), h.log(r))
	if err := s.Lookup(r.Context(), r.PathValue("fayda")); err != nil {
		switch {
		case stderrors.Is(err, checkout.ErrValidation):
			h.writeErr(w, r, errors.ValidationWrap(err, s.Form.Notice), "")
		case stderrors.Is(err, backend.ErrNotFound):
			appErr := errors.NotFound(s.Form.Notice)
			appErr.Cause = err
			h.writeErr(w, r, appErr, "")
		default:
			h.writeErr(w, r, err, s.Form.Notice)
		}
		return
	}

	errors.WriteSuccess(w, s.Form)
}

type createRequest struct {
	CustomerID string  `json:"customerId"`
	Fayda      string  `json:"fayda"`
	Commodity  string  `json:"commodity"`
	Quantity   float64 `json:"quantity"`
}

func (h *APIHandlers) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.writeErr(w, r, err, "")
		return
	}
	if !roles.For(p.Role).CreateTransaction {
		h.writeErr(w, r, errors.Forbidden("Your role cannot create transactions"), "")
		return
	}

	var req createRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeErr(w, r, errors.BadRequestWrap(err, "Invalid request body"), "")
		return
	}

	viewer, err := h.viewer(r.Context(), p)
	if err != nil {
		h.writeErr(w, r, err, "Transaction failed")
		return
	}

	form := checkout.Form{
		CustomerID: req.CustomerID,
		Fayda:      req.Fayda,
		Commodity:  req.Commodity,
		Quantity:   req.Quantity,
	}
	logger := h.log(r)
	s := checkout.NewSession(h.Backend, p.Token, viewer, form, logger)
	s.OnSuccess = func(tx models.NewTransaction) {
		logger.Info("transaction created", "shop_id", tx.ShopID, "commodity", tx.CommodityID, "amount", tx.Amount)
	}

	if err := s.Submit(r.Context()); err != nil {
		switch {
		case stderrors.Is(err, checkout.ErrValidation):
			h.writeErr(w, r, errors.ValidationWrap(err, s.Form.Error), "")
		case stderrors.Is(err, checkout.ErrRejected):
			msg := s.Form.Error
			if msg == "" {
				msg = s.Form.Notice
			}
			h.writeErr(w, r, errors.BadRequestWrap(err, msg), "")
		default:
			h.writeErr(w, r, err, s.Form.Notice)
		}
		return
	}

	errors.WriteSuccess(w, s.Form)
}

func (h *APIHandlers) HandleCommodityOptions(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.writeErr(w, r, err, "")
		return
	}
	if !roles.For(p.Role).CreateTransaction {
		h.writeErr(w, r, errors.Forbidden("Your role has no shop inventory"), "")
		return
	}

	viewer, err := h.viewer(r.Context(), p)
	if err != nil {
		h.writeErr(w, r, err, "Failed to load commodities")
		return
	}
	shop, err := h.Backend.Shop(r.Context(), p.Token, viewer.WorksAt)
	if err != nil {
		h.writeErr(w, r, err, "Failed to load commodities")
		return
	}

	errors.WriteSuccess(w, checkout.CommodityOptions(shop))
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	version := h.Version
	if version == "" {
		version = "dev"
	}

	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   version,
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.Dashboard.Store().Stats()
	if c, ok := h.Backend.(interface{ Cache() *backend.Cache }); ok {
		stats["cache_entries"] = c.Cache().Len()
	}

	errors.WriteSuccess(w, stats)
}
