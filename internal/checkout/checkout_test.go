package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"retail-dashboard/internal/backend"
	"retail-dashboard/internal/backend/backendtest"
	"retail-dashboard/internal/config"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/roles"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func setup(t *testing.T) (*backendtest.Fake, *backend.Client, string) {
	t.Helper()
	fake := backendtest.New()
	t.Cleanup(fake.Close)
	fake.Seed()
	token := fake.AddUser("RetailerCooperativeShop", models.User{ID: "u1", WorksAt: "s1"})

	c, err := backend.NewClient(config.BackendConfig{
		BaseURL:          fake.URL,
		Timeout:          5 * time.Second,
		BreakerFailures:  5,
		BreakerResetTime: time.Minute,
	}, quiet)
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}
	return fake, c, token
}

var cashier = roles.Viewer{Role: roles.RetailerCooperativeShop, WorksAt: "s1"}

func TestLookup_Found(t *testing.T) {
	_, c, token := setup(t)
	s := NewSession(c, token, cashier, NewForm(), quiet)

	if err := s.Lookup(context.Background(), " FAYDA-1 "); err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	f := s.Form
	if f.ScannerOpen {
		t.Error("scanner should close after a successful lookup")
	}
	if f.CustomerID != "cust1" || f.Fayda != "FAYDA-1" || f.Name != "Almaz Tesfaye" ||
		f.HouseNumber != "123" || f.Woreda != "Woreda 01" {
		t.Errorf("identity fields not filled: %+v", f)
	}
}

func TestLookup_Failures(t *testing.T) {
	tests := []struct {
		name       string
		fayda      string
		fail       bool
		wantNotice string
	}{
		{"not found", "NOPE", false, msgCustomerNotFound},
		{"transport", "FAYDA-1", true, msgLookupFailed},
		{"empty", "  ", false, msgFaydaRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake, c, token := setup(t)
			fake.SetFail(tt.fail)
			s := NewSession(c, token, cashier, NewForm(), quiet)

			if err := s.Lookup(context.Background(), tt.fayda); err == nil {
				t.Fatal("Lookup() should fail")
			}
			if !s.Form.ScannerOpen {
				t.Error("scanner should stay open")
			}
			if s.Form.Notice != tt.wantNotice {
				t.Errorf("notice = %q, want %q", s.Form.Notice, tt.wantNotice)
			}
			if s.Form.CustomerID != "" {
				t.Error("identity should stay empty")
			}
		})
	}
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name string
		form Form
		want string
	}{
		{"missing commodity", Form{Quantity: 3}, msgRequiredFields},
		{"zero quantity", Form{Commodity: "sugar-id"}, msgQuantity},
		{"negative quantity", Form{Commodity: "sugar-id", Quantity: -1}, msgQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake, c, token := setup(t)
			s := NewSession(c, token, cashier, tt.form, quiet)

			err := s.Submit(context.Background())
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if s.Form.Error != tt.want {
				t.Errorf("error = %q, want %q", s.Form.Error, tt.want)
			}
			if n := fake.RequestCount("POST /transactions"); n != 0 {
				t.Errorf("validation failure made %d network calls", n)
			}
		})
	}
}

func TestSubmit_Success(t *testing.T) {
	fake, c, token := setup(t)
	s := NewSession(c, token, cashier, NewForm(), quiet)
	if err := s.Lookup(context.Background(), "FAYDA-1"); err != nil {
		t.Fatal(err)
	}
	s.Form.Commodity = "sugar-id"
	s.Form.Quantity = 3

	var got *models.NewTransaction
	s.OnSuccess = func(tx models.NewTransaction) { got = &tx }

	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if got == nil {
		t.Fatal("OnSuccess was not called")
	}
	want := models.NewTransaction{ShopID: "s1", CustomerID: "cust1", CommodityID: "sugar-id", Amount: 3, Fayda: "FAYDA-1"}
	if *got != want {
		t.Errorf("payload = %+v, want %+v", *got, want)
	}
	if created := fake.CreatedTransactions(); len(created) != 1 || created[0] != want {
		t.Errorf("backend received %+v", created)
	}
	if !s.Form.Success || !s.Form.ScannerOpen || s.Form.CustomerID != "" {
		t.Errorf("form should reset after success: %+v", s.Form)
	}
}

func TestSubmit_BackendFailures(t *testing.T) {
	t.Run("non-success status", func(t *testing.T) {
		fake, c, token := setup(t)
		fake.SetCreateStatus("failed")
		s := NewSession(c, token, cashier, Form{Commodity: "oil-id", Quantity: 1}, quiet)
		called := false
		s.OnSuccess = func(models.NewTransaction) { called = true }

		err := s.Submit(context.Background())
		if !errors.Is(err, ErrRejected) {
			t.Fatalf("expected ErrRejected, got %v", err)
		}
		if called || s.Form.Notice != msgFailed {
			t.Errorf("called=%v notice=%q", called, s.Form.Notice)
		}
	})

	t.Run("transport", func(t *testing.T) {
		fake, c, token := setup(t)
		fake.SetFail(true)
		s := NewSession(c, token, cashier, Form{Commodity: "oil-id", Quantity: 1}, quiet)

		err := s.Submit(context.Background())
		if !errors.Is(err, backend.ErrUpstream) {
			t.Fatalf("expected ErrUpstream, got %v", err)
		}
		if s.Form.Error != msgFailed {
			t.Errorf("error = %q", s.Form.Error)
		}
		if s.Form.Commodity != "oil-id" {
			t.Error("form input should be kept for a retry")
		}
	})
}

func TestCommodityOptions(t *testing.T) {
	shop := models.Shop{AvailableCommodity: []models.Availability{
		{Commodity: models.Commodity{ID: "sugar-id", Name: "sugar", Price: 5}},
		{Commodity: models.Commodity{ID: "oil-id", Name: "oil", Price: 12.5}},
		{Commodity: models.Commodity{Name: "ghost"}},
	}}

	opts := CommodityOptions(shop)
	if len(opts) != 2 {
		t.Fatalf("got %d options, want 2", len(opts))
	}
	if opts[0] != (Option{Value: "sugar-id", Label: "sugar - 5 birr"}) {
		t.Errorf("opts[0] = %+v", opts[0])
	}
	if opts[1].Label != "oil - 12.5 birr" {
		t.Errorf("opts[1] = %+v", opts[1])
	}
}
