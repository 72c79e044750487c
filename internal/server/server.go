package server

import (
	"log/slog"
	"net/http"

	"retail-dashboard/internal/handlers"
	"retail-dashboard/internal/middleware"
)

type Server struct {
	mux            *http.ServeMux
	logger         *slog.Logger
	pageHandlers   *handlers.PageHandlers
	apiHandlers    *handlers.APIHandlers
	exportHandlers *handlers.ExportHandlers
	sseHandlers    *handlers.SSEHandlers
}

func NewServer(deps handlers.Deps) *Server {
	s := &Server{
		mux:            http.NewServeMux(),
		logger:         deps.Logger,
		pageHandlers:   handlers.NewPageHandlers(deps),
		apiHandlers:    handlers.NewAPIHandlers(deps),
		exportHandlers: handlers.NewExportHandlers(deps),
		sseHandlers:    handlers.NewSSEHandlers(deps),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	authed := middleware.Auth(s.logger)
	handle := func(pattern string, h http.HandlerFunc) {
		s.mux.Handle(pattern, authed(h))
	}

	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)

	// Dashboard pages
	handle("GET /{$}", s.pageHandlers.HandleDashboard)
	handle("GET /shops/{shopID}", s.pageHandlers.HandleShop)
	handle("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	handle("GET /api/transactions", s.apiHandlers.HandleTransactions)
	handle("GET /api/shops/{shopID}/transactions", s.apiHandlers.HandleShopTransactions)
	handle("GET /api/customers/{fayda}", s.apiHandlers.HandleCustomer)
	handle("POST /api/transactions", s.apiHandlers.HandleCreateTransaction)
	handle("GET /api/commodity-options", s.apiHandlers.HandleCommodityOptions)

	// Spreadsheet exports
	handle("GET /export/transactions.xlsx", s.exportHandlers.HandleTransactions)
	handle("GET /export/shops/{shopID}/transactions.xlsx", s.exportHandlers.HandleShopTransactions)

	// Datastar SSE endpoints
	handle("GET /sse/transactions", s.sseHandlers.HandleTransactions)
	handle("GET /sse/shops/{shopID}/transactions", s.sseHandlers.HandleShopTransactions)
	handle("POST /sse/checkout/scan", s.sseHandlers.HandleCheckoutScan)
	handle("POST /sse/checkout/submit", s.sseHandlers.HandleCheckoutSubmit)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
