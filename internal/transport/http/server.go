// Package http is the JSON transport over the booking core. It owns request
// parsing, error-to-status mapping and routing; every invariant lives below
// it.
package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/sal186/rouze-booking-agent/internal/booking"
	"github.com/sal186/rouze-booking-agent/internal/catalog"
	"github.com/sal186/rouze-booking-agent/internal/domain"
	"github.com/sal186/rouze-booking-agent/internal/metrics"
	"github.com/sal186/rouze-booking-agent/internal/store"
)

type BookingService interface {
	AvailableSlots(ctx context.Context, date time.Time, serviceID string) ([]string, error)
	CreateBooking(ctx context.Context, in booking.CreateInput) (domain.Booking, error)
	CancelBooking(ctx context.Context, id uuid.UUID) error
	GetBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error)
	ListBookings(ctx context.Context, filter store.BookingFilter) ([]domain.Booking, error)
}

type CatalogService interface {
	ListServices(ctx context.Context, activeOnly bool) ([]domain.Service, error)
	UpsertService(ctx context.Context, in catalog.ServiceInput) (domain.Service, error)
	DeleteService(ctx context.Context, id string) error
	WeeklyHours(ctx context.Context) (domain.WeeklyHours, error)
	UpdateDayHours(ctx context.Context, in catalog.DayHoursInput) (domain.DayHours, error)
	BookingConfig(ctx context.Context) (domain.BookingConfig, error)
	UpdateBookingConfig(ctx context.Context, in catalog.ConfigInput) (domain.BookingConfig, error)
}

type Server struct {
	bookings   BookingService
	catalog    CatalogService
	adminToken string
	log        *slog.Logger
	router     *mux.Router
}

type Options struct {
	AdminToken     string
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
}

func NewServer(bookings BookingService, cat CatalogService, opts Options, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		bookings:   bookings,
		catalog:    cat,
		adminToken: opts.AdminToken,
		log:        log.With(slog.String("component", "http")),
	}

	r := mux.NewRouter()
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
	}
	if opts.MetricsHandler != nil {
		r.Handle("/metrics", opts.MetricsHandler).Methods(http.MethodGet)
	}
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/services", s.handleListServices).Methods(http.MethodGet)
	api.HandleFunc("/slots", s.handleSlots).Methods(http.MethodGet)
	api.HandleFunc("/bookings", s.handleCreateBooking).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{bookingId}", s.handleGetBooking).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{bookingId}/cancel", s.handleCancelBooking).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(s.requireAdmin)
	admin.HandleFunc("/bookings", s.handleAdminListBookings).Methods(http.MethodGet)
	admin.HandleFunc("/services", s.handleAdminListServices).Methods(http.MethodGet)
	admin.HandleFunc("/services/{serviceId}", s.handleAdminUpsertService).Methods(http.MethodPut)
	admin.HandleFunc("/services/{serviceId}", s.handleAdminDeleteService).Methods(http.MethodDelete)
	admin.HandleFunc("/hours", s.handleAdminGetHours).Methods(http.MethodGet)
	admin.HandleFunc("/hours/{weekday}", s.handleAdminUpdateHours).Methods(http.MethodPut)
	admin.HandleFunc("/config", s.handleAdminGetConfig).Methods(http.MethodGet)
	admin.HandleFunc("/config", s.handleAdminUpdateConfig).Methods(http.MethodPut)

	s.router = r
	return s
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireAdmin gates the administrative surface behind a shared token.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken == "" {
			writeError(w, http.StatusForbidden, "admin_disabled", "admin API is not configured")
			return
		}
		got := r.Header.Get("X-Admin-Token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.adminToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid admin token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}
