// Package backendtest provides an in-memory stand-in for the REST backend.
package backendtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"retail-dashboard/internal/models"
)

type Fake struct {
	*httptest.Server

	mu           sync.Mutex
	Transactions []models.Transaction
	Cooperatives []models.Cooperative
	Shops        []models.Shop
	Woredas      []models.Woreda
	Customers    map[string]models.Customer
	Users        map[string]models.User

	// CreateStatus is the envelope status returned on create. Defaults to success.
	CreateStatus string
	// Fail makes every endpoint answer 500.
	Fail bool

	Created  []models.NewTransaction
	Requests map[string]int
}

func New() *Fake {
	f := &Fake{
		Customers: make(map[string]models.Customer),
		Users:     make(map[string]models.User),
		Requests:  make(map[string]int),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /transactions", f.handleTransactions)
	mux.HandleFunc("GET /transactions/shop/{shopID}", f.handleShopTransactions)
	mux.HandleFunc("POST /transactions", f.handleCreate)
	mux.HandleFunc("GET /customers/fayda/{fayda}", f.handleCustomer)
	mux.HandleFunc("GET /auth/me", f.handleMe)
	mux.HandleFunc("GET /retailer-cooperatives", f.list(func() any { return f.Cooperatives }))
	mux.HandleFunc("GET /retailer-cooperative-shops", f.list(func() any { return f.Shops }))
	mux.HandleFunc("GET /retailer-cooperative-shops/{shopID}", f.handleShop)
	mux.HandleFunc("GET /woredas", f.list(func() any { return f.Woredas }))

	f.Server = httptest.NewServer(f.guard(mux))
	return f
}

func (f *Fake) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.Requests[r.Method+" "+r.URL.Path]++
		fail := f.Fail
		f.mu.Unlock()

		if fail {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"status": "error", "message": "boom"})
			return
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"status": "error", "message": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *Fake) RequestCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Requests[key]
}

func (f *Fake) SetFail(fail bool) {
	f.mu.Lock()
	f.Fail = fail
	f.mu.Unlock()
}

func (f *Fake) SetCreateStatus(status string) {
	f.mu.Lock()
	f.CreateStatus = status
	f.mu.Unlock()
}

func (f *Fake) CreatedTransactions() []models.NewTransaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.NewTransaction(nil), f.Created...)
}

func (f *Fake) list(get func() any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		data := get()
		f.mu.Unlock()
		ok(w, data)
	}
}

func (f *Fake) handleTransactions(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	txs := append([]models.Transaction(nil), f.Transactions...)
	f.mu.Unlock()
	ok(w, txs)
}

func (f *Fake) handleShopTransactions(w http.ResponseWriter, r *http.Request) {
	shopID := r.PathValue("shopID")
	start, _ := time.Parse("2006-01-02", r.URL.Query().Get("startDate"))
	end, _ := time.Parse("2006-01-02", r.URL.Query().Get("endDate"))

	f.mu.Lock()
	var out []models.Transaction
	for _, tx := range f.Transactions {
		if tx.ShopID() != shopID {
			continue
		}
		if !start.IsZero() && tx.CreatedAt.Before(start) {
			continue
		}
		if !end.IsZero() && !tx.CreatedAt.Before(end.AddDate(0, 0, 1)) {
			continue
		}
		out = append(out, tx)
	}
	f.mu.Unlock()
	ok(w, out)
}

func (f *Fake) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in models.NewTransaction
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"status": "error", "message": err.Error()})
		return
	}

	f.mu.Lock()
	status := f.CreateStatus
	if status == "" {
		status = "success"
	}
	if status == "success" {
		f.Created = append(f.Created, in)
	}
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"status": status, "data": in})
}

func (f *Fake) handleCustomer(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	c, found := f.Customers[r.PathValue("fayda")]
	f.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]any{"status": "error", "message": "customer not found"})
		return
	}
	ok(w, map[string]any{"customer": c})
}

func (f *Fake) handleMe(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	f.mu.Lock()
	u, found := f.Users[token]
	f.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"status": "error", "message": "unknown user"})
		return
	}
	ok(w, u)
}

func (f *Fake) handleShop(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("shopID")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.Shops {
		if s.ID == id {
			ok(w, s)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"status": "error", "message": "shop not found"})
}

func ok(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": data})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// Token mints an HS256 token carrying the role claim the dashboard reads.
func Token(role, userID string) string {
	claims := jwt.MapClaims{
		"id":   userID,
		"role": map[string]any{"name": role},
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backendtest"))
	if err != nil {
		panic(err)
	}
	return s
}

// AddUser registers a user for token and returns the token.
func (f *Fake) AddUser(role string, user models.User) string {
	token := Token(role, user.ID)
	f.mu.Lock()
	user.Role = &models.RoleRef{Name: role}
	f.Users[token] = user
	f.mu.Unlock()
	return token
}
