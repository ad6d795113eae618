package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"equiprent-backend/internal/config"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/service"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services holds the service dependencies served over HTTP
type Services struct {
	Rental    service.RentalService
	Equipment service.EquipmentService
	Repair    service.RepairService
	Payment   service.PaymentService
	Damage    service.DamageService
	Report    service.ReportService
}

type handler struct {
	services Services
	db       Pinger
}

// NewRouter builds the API handler with its middleware chain.
func NewRouter(services Services, db Pinger, cfg config.APIConfig) http.Handler {
	h := &handler{services: services, db: db}

	router := mux.NewRouter()
	router.Use(logRequest)
	router.NotFoundHandler = logRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "route not found")
	}))
	router.MethodNotAllowedHandler = logRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	}))

	router.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/rentals", h.createRental).Methods(http.MethodPost)
	api.HandleFunc("/rentals", h.listRentals).Methods(http.MethodGet)
	api.HandleFunc("/rentals/{id}", h.getRental).Methods(http.MethodGet)
	api.HandleFunc("/rentals/{id}/return", h.returnRental).Methods(http.MethodPost)
	api.HandleFunc("/rentals/{id}/cancel", h.cancelRental).Methods(http.MethodPost)
	api.HandleFunc("/rentals/{id}/payments", h.listPayments).Methods(http.MethodGet)
	api.HandleFunc("/rentals/{id}/payments", h.recordPayment).Methods(http.MethodPost)
	api.HandleFunc("/rentals/{id}/damages", h.listDamages).Methods(http.MethodGet)
	api.HandleFunc("/rentals/{id}/damages", h.recordDamage).Methods(http.MethodPost)

	api.HandleFunc("/equipment", h.listEquipment).Methods(http.MethodGet)
	api.HandleFunc("/equipment/reconcile", h.reconcileEquipment).Methods(http.MethodPost)
	api.HandleFunc("/equipment/{id}", h.getEquipment).Methods(http.MethodGet)
	api.HandleFunc("/equipment/{id}/decommission", h.decommissionEquipment).Methods(http.MethodPost)

	api.HandleFunc("/repairs", h.openRepair).Methods(http.MethodPost)
	api.HandleFunc("/repairs/{id}/status", h.updateRepairStatus).Methods(http.MethodPost)

	api.HandleFunc("/reports", h.listReports).Methods(http.MethodGet)
	api.HandleFunc("/reports/{name}", h.runReport).Methods(http.MethodGet)

	chain := alice.New(recoverPanic, requestID, newCORS(cfg).Handler, newRateLimiter(cfg).Wrap)
	return chain.Then(router)
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			logger.WarnContext(r.Context(), "Health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Server wraps the HTTP listener lifecycle.
type Server struct {
	server *http.Server
}

func NewServer(addr string, handler http.Handler) *Server {
	return &Server{server: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}}
}

// Start blocks until the server stops. A graceful shutdown is not an error.
func (s *Server) Start() error {
	logger.Info("HTTP API listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
