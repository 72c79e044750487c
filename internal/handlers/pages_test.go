package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPageHandlers_Dashboard(t *testing.T) {
	tests := []struct {
		role    string
		want    []string
		notWant []string
	}{
		{
			role:    "TradeBureau",
			want:    []string{`data-bind="filter.woreda"`, `data-bind="filter.cooperative"`, "Kebede Cooperative"},
			notWant: []string{`id="checkout"`, `class="cards"`},
		},
		{
			role:    "RetailerCooperativeShop",
			want:    []string{`id="checkout"`, "sugar - 5 birr", `class="cards"`, "Almaz Tesfaye"},
			notWant: []string{`data-bind="filter.woreda"`, "Shop Two"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			e := newEnv(t)
			h := NewPageHandlers(e.deps)

			w := httptest.NewRecorder()
			h.HandleDashboard(w, e.request(t, "GET", "/", tt.role, ""))

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", w.Code, w.Body.String())
			}
			body := w.Body.String()
			for _, s := range tt.want {
				if !strings.Contains(body, s) {
					t.Errorf("page should contain %q", s)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(body, s) {
					t.Errorf("page should not contain %q", s)
				}
			}
		})
	}
}

func TestPageHandlers_Shop(t *testing.T) {
	e := newEnv(t)
	h := NewPageHandlers(e.deps)

	w := httptest.NewRecorder()
	r := e.request(t, "GET", "/shops/s1?status=success", "RetailerCooperative", "")
	r.SetPathValue("shopID", "s1")
	h.HandleShop(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	for _, s := range []string{"Shop One transactions", "/sse/shops/s1/transactions", "/export/shops/s1/transactions.xlsx?status=success"} {
		if !strings.Contains(body, s) {
			t.Errorf("shop page should contain %q", s)
		}
	}
}

func TestPageHandlers_Errors(t *testing.T) {
	e := newEnv(t)
	h := NewPageHandlers(e.deps)

	w := httptest.NewRecorder()
	h.HandleDashboard(w, e.request(t, "GET", "/", "", ""))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", w.Code)
	}

	w = httptest.NewRecorder()
	r := e.request(t, "GET", "/shops/zzz", "TradeBureau", "")
	r.SetPathValue("shopID", "zzz")
	h.HandleShop(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown shop status = %d, want 404", w.Code)
	}
}
