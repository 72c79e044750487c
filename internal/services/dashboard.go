package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"retail-dashboard/internal/backend"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/roles"
)

// Backend is the slice of the REST client the dashboard reads from.
type Backend interface {
	ListTransactions(ctx context.Context, token string) ([]models.Transaction, error)
	ListShopTransactions(ctx context.Context, token, shopID string, start, end *time.Time) ([]models.Transaction, error)
	LoadReference(ctx context.Context, token string, caps roles.Capabilities) (*backend.Reference, error)
	Shop(ctx context.Context, token, shopID string) (models.Shop, error)
}

// Page is everything a transactions view renders.
type Page struct {
	Viewer       roles.Viewer              `json:"viewer"`
	Capabilities roles.Capabilities        `json:"capabilities"`
	View         string                    `json:"view"`
	Shop         *models.Shop              `json:"shop,omitempty"`
	Transactions []models.Transaction      `json:"transactions"`
	Summary      models.Summary            `json:"summary"`
	Groups       []models.CooperativeGroup `json:"groups,omitempty"`
	Cooperatives []models.Cooperative      `json:"cooperatives,omitempty"`
	Shops        []models.Shop             `json:"shops,omitempty"`
	ShopGroups   []models.ShopGroup        `json:"shop_groups,omitempty"`
	Woredas      []models.Woreda           `json:"woredas,omitempty"`
	FetchedAt    time.Time                 `json:"fetched_at"`
	Stale        bool                      `json:"stale"`
}

type Dashboard struct {
	backend Backend
	store   *Transactions
	logger  *slog.Logger
}

func NewDashboard(b Backend, store *Transactions, logger *slog.Logger) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	if store == nil {
		store = NewTransactions(DefaultRetention, logger)
	}
	return &Dashboard{backend: b, store: store, logger: logger}
}

func (d *Dashboard) Store() *Transactions { return d.store }

// Global builds the all-shops view for the caller's role.
func (d *Dashboard) Global(ctx context.Context, token string, role roles.Role, f Filter) (*Page, error) {
	caps := roles.For(role)
	ref, refStale, err := d.reference(ctx, "global:"+tokenKey(token), func(ctx context.Context) (*backend.Reference, error) {
		return d.backend.LoadReference(ctx, token, caps)
	})
	if err != nil {
		return nil, fmt.Errorf("load reference: %w", err)
	}
	viewer := roles.Viewer{Role: role, WorksAt: ref.User.WorksAt}

	txs, fetchedAt, stale, err := d.fetch(ctx, "global:"+ref.User.ID, func(ctx context.Context) ([]models.Transaction, error) {
		return d.backend.ListTransactions(ctx, token)
	})
	if err != nil {
		return nil, err
	}

	filtered := Apply(txs, f, viewer)
	visible := VisibleCooperatives(ref.Cooperatives, viewer, f.Woreda)
	page := &Page{
		Viewer:       viewer,
		Capabilities: caps,
		View:         ViewGlobal.String(),
		Shop:         ref.CurrentShop,
		Transactions: filtered,
		Summary:      Summarize(filtered, viewer, ViewGlobal),
		Cooperatives: visible,
		Shops:        shopsFor(ref.Shops, viewer, caps),
		Woredas:      ref.Woredas,
		FetchedAt:    fetchedAt,
		Stale:        stale || refStale,
	}
	if caps.GroupByCooperative {
		page.Groups = GroupByCooperative(filtered, visible)
		page.ShopGroups = GroupShopsByCooperative(ref.Shops, visible)
	}
	return page, nil
}

// ShopView builds the single-shop view. The date bounds are also sent to the
// backend so it can narrow the fetch.
func (d *Dashboard) ShopView(ctx context.Context, token string, role roles.Role, shopID string, f Filter) (*Page, error) {
	ref, refStale, err := d.reference(ctx, "shop:"+shopID+":"+tokenKey(token), func(ctx context.Context) (*backend.Reference, error) {
		ref, err := d.backend.LoadReference(ctx, token, roles.Capabilities{})
		if err != nil {
			return nil, fmt.Errorf("load reference: %w", err)
		}
		shop, err := d.backend.Shop(ctx, token, shopID)
		if err != nil {
			return nil, fmt.Errorf("shop %s: %w", shopID, err)
		}
		ref.CurrentShop = &shop
		return ref, nil
	})
	if err != nil {
		return nil, err
	}
	viewer := roles.Viewer{Role: role, WorksAt: ref.User.WorksAt}

	from, to := f.Bounds()
	var start, end *time.Time
	if f.Start != nil {
		start = &from
	}
	if f.End != nil {
		end = &to
	}
	key := fmt.Sprintf("shop:%s:%s:%s:%s", ref.User.ID, shopID, dayKey(start), dayKey(end))
	txs, fetchedAt, stale, err := d.fetch(ctx, key, func(ctx context.Context) ([]models.Transaction, error) {
		return d.backend.ListShopTransactions(ctx, token, shopID, start, end)
	})
	if err != nil {
		return nil, err
	}

	filtered := ApplyShop(txs, f, viewer)
	return &Page{
		Viewer:       viewer,
		Capabilities: roles.For(role),
		View:         ViewShop.String(),
		Shop:         ref.CurrentShop,
		Transactions: filtered,
		Summary:      Summarize(filtered, viewer, ViewShop),
		FetchedAt:    fetchedAt,
		Stale:        stale || refStale,
	}, nil
}

// fallback reports whether err is an outage the last snapshot can cover.
// Rejected tokens and missing records are answered as they are.
func fallback(err error) bool {
	return !errors.Is(err, backend.ErrUnauthorized) && !errors.Is(err, backend.ErrNotFound)
}

// reference loads the view's reference data and falls back to the last good
// copy under key when the backend is unreachable.
func (d *Dashboard) reference(ctx context.Context, key string, load func(context.Context) (*backend.Reference, error)) (*backend.Reference, bool, error) {
	ref, err := load(ctx)
	if err == nil {
		d.store.RememberReference(key, ref)
		return ref, false, nil
	}
	if fallback(err) {
		if prev, ok := d.store.Reference(key); ok {
			d.logger.Warn("serving stale reference data", "error", err)
			return prev, true, nil
		}
	}
	return nil, false, err
}

// fetch refreshes key and falls back to the last snapshot when the backend
// is unreachable.
func (d *Dashboard) fetch(ctx context.Context, key string, get func(context.Context) ([]models.Transaction, error)) ([]models.Transaction, time.Time, bool, error) {
	txs, err := d.store.Refresh(ctx, key, get)
	if err == nil {
		_, at, _ := d.store.Snapshot(key)
		return txs, at, false, nil
	}
	if fallback(err) {
		if prev, at, ok := d.store.Snapshot(key); ok {
			d.logger.Warn("serving stale transactions", "key", key, "fetched_at", at, "error", err)
			return prev, at, true, nil
		}
	}
	return nil, time.Time{}, false, err
}

// tokenKey keeps raw credentials out of snapshot keys.
func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

func shopsFor(shops []models.Shop, v roles.Viewer, caps roles.Capabilities) []models.Shop {
	if caps.Scope != roles.ScopeOwnCooperative {
		return shops
	}
	own := make([]models.Shop, 0, len(shops))
	for _, s := range shops {
		if s.CooperativeID() == v.WorksAt {
			own = append(own, s)
		}
	}
	return own
}

func dayKey(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(dateLayout)
}
