// Package checkout is the shop counter flow: scan a customer's Fayda number,
// pick a commodity and quantity, and record the transaction.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"retail-dashboard/internal/backend"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/roles"
)

var (
	ErrValidation = errors.New("checkout: invalid form")
	ErrRejected   = errors.New("checkout: transaction rejected")
)

const (
	DefaultQuantity = 5

	msgCustomerNotFound = "Customer not found with scanned Fayda number."
	msgLookupFailed     = "Error fetching customer data by Fayda number."
	msgFaydaRequired    = "Scan or enter a Fayda number."
	msgRequiredFields   = "Please fill all required fields."
	msgQuantity         = "Quantity must be greater than zero."
	msgFailed           = "Transaction failed"
	msgCreated          = "Transaction created successfully"
)

// Backend is the part of the REST client the flow needs.
type Backend interface {
	CustomerByFayda(ctx context.Context, token, fayda string) (*models.Customer, error)
	CreateTransaction(ctx context.Context, token string, tx models.NewTransaction) (backend.CreateResult, error)
}

// Form is the state shown to the cashier. It round-trips through the page as
// JSON signals.
type Form struct {
	ScannerOpen bool    `json:"scannerOpen"`
	CustomerID  string  `json:"customerId"`
	Fayda       string  `json:"fayda"`
	Name        string  `json:"name"`
	HouseNumber string  `json:"houseNumber"`
	Woreda      string  `json:"woreda"`
	Commodity   string  `json:"commodity"`
	Quantity    float64 `json:"quantity"`
	Error       string  `json:"error"`
	Notice      string  `json:"notice"`
	Success     bool    `json:"success"`
}

func NewForm() Form {
	return Form{ScannerOpen: true, Quantity: DefaultQuantity}
}

func (f *Form) clearMessages() {
	f.Error = ""
	f.Notice = ""
	f.Success = false
}

// Session runs the flow for one cashier request.
type Session struct {
	Form Form

	backend Backend
	token   string
	viewer  roles.Viewer
	logger  *slog.Logger

	// OnSuccess is called after the backend accepts a transaction.
	OnSuccess func(models.NewTransaction)
}

func NewSession(b Backend, token string, viewer roles.Viewer, form Form, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{Form: form, backend: b, token: token, viewer: viewer, logger: logger}
}

// Lookup resolves a scanned Fayda number. On success the identity fields are
// filled and the scanner closes. Any failure leaves the scanner open.
func (s *Session) Lookup(ctx context.Context, fayda string) error {
	s.Form.clearMessages()
	fayda = strings.TrimSpace(fayda)
	if fayda == "" {
		s.Form.ScannerOpen = true
		s.Form.Notice = msgFaydaRequired
		return ErrValidation
	}

	cust, err := s.backend.CustomerByFayda(ctx, s.token, fayda)
	if err != nil {
		s.Form.ScannerOpen = true
		if errors.Is(err, backend.ErrNotFound) {
			s.Form.Notice = msgCustomerNotFound
		} else {
			s.Form.Notice = msgLookupFailed
			s.logger.Warn("customer lookup failed", "error", err)
		}
		return fmt.Errorf("lookup %s: %w", fayda, err)
	}

	s.Form.CustomerID = cust.ID
	s.Form.Fayda = fayda
	s.Form.Name = cust.Name
	s.Form.HouseNumber = cust.HouseNumber
	s.Form.Woreda = cust.WoredaName()
	s.Form.ScannerOpen = false
	return nil
}

// Submit validates the form locally and, if it passes, records the
// transaction for the viewer's shop.
func (s *Session) Submit(ctx context.Context) error {
	s.Form.clearMessages()
	if strings.TrimSpace(s.Form.Commodity) == "" {
		s.Form.Error = msgRequiredFields
		return ErrValidation
	}
	if s.Form.Quantity <= 0 {
		s.Form.Error = msgQuantity
		return ErrValidation
	}

	tx := models.NewTransaction{
		ShopID:      s.viewer.WorksAt,
		CustomerID:  s.Form.CustomerID,
		CommodityID: s.Form.Commodity,
		Amount:      s.Form.Quantity,
		Fayda:       s.Form.Fayda,
	}
	res, err := s.backend.CreateTransaction(ctx, s.token, tx)
	if err != nil {
		s.Form.Error = msgFailed
		s.Form.Notice = msgFailed
		s.logger.Error("create transaction failed", "shop_id", tx.ShopID, "error", err)
		return fmt.Errorf("create transaction: %w", err)
	}
	if !res.OK {
		s.Form.Notice = msgFailed
		if res.Message != "" {
			s.Form.Error = res.Message
		}
		s.logger.Warn("transaction rejected", "shop_id", tx.ShopID, "status", res.Status)
		return fmt.Errorf("%w: status %q", ErrRejected, res.Status)
	}

	s.Form = NewForm()
	s.Form.Notice = msgCreated
	s.Form.Success = true
	if s.OnSuccess != nil {
		s.OnSuccess(tx)
	}
	return nil
}

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// CommodityOptions lists what the shop has on hand as select options.
func CommodityOptions(shop models.Shop) []Option {
	opts := make([]Option, 0, len(shop.AvailableCommodity))
	for _, a := range shop.AvailableCommodity {
		if a.Commodity.ID == "" {
			continue
		}
		opts = append(opts, Option{
			Value: a.Commodity.ID,
			Label: fmt.Sprintf("%s - %s birr", a.Commodity.Name, decimal.NewFromFloat(a.Commodity.Price).String()),
		})
	}
	return opts
}
