package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/sal186/rouze-booking-agent/internal/booking"
	"github.com/sal186/rouze-booking-agent/internal/catalog"
	"github.com/sal186/rouze-booking-agent/internal/domain"
	"github.com/sal186/rouze-booking-agent/internal/store"
)

const dateFormat = "2006-01-02"

type bookingResponse struct {
	ID              string `json:"id"`
	ServiceID       string `json:"service_id"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration_minutes"`
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone,omitempty"`
	Notes           string `json:"notes,omitempty"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at"`
}

func toBookingResponse(b domain.Booking) bookingResponse {
	return bookingResponse{
		ID:              b.ID.String(),
		ServiceID:       b.ServiceID,
		Date:            b.Date.Format(dateFormat),
		Time:            b.StartTime.String(),
		DurationMinutes: b.DurationMinutes,
		CustomerName:    b.CustomerName,
		CustomerEmail:   b.CustomerEmail,
		CustomerPhone:   b.CustomerPhone,
		Notes:           b.Notes,
		Status:          string(b.Status),
		CreatedAt:       b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type serviceResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           float64 `json:"price"`
	Description     string  `json:"description,omitempty"`
	Active          bool    `json:"active"`
	SortOrder       int     `json:"sort_order"`
}

func toServiceResponse(s domain.Service) serviceResponse {
	return serviceResponse{
		ID:              s.ID,
		Name:            s.Name,
		DurationMinutes: s.DurationMinutes,
		Price:           s.Price,
		Description:     s.Description,
		Active:          s.Active,
		SortOrder:       s.SortOrder,
	}
}

// writeBookingError maps the admission taxonomy onto HTTP statuses. Every
// error here is recoverable from the client's perspective.
func (s *Server) writeBookingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidService):
		writeError(w, http.StatusNotFound, "invalid_service", "unknown or inactive service")
	case errors.Is(err, booking.ErrDayClosed):
		writeError(w, http.StatusConflict, "day_closed", "the business is closed on that day")
	case errors.Is(err, booking.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "slot_unavailable", "the requested slot is no longer available")
	case errors.Is(err, booking.ErrDailyCapReached):
		writeError(w, http.StatusConflict, "daily_cap_reached", "no more bookings can be accepted for that day")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "booking not found")
	default:
		var vErr *booking.ValidationError
		if errors.As(err, &vErr) {
			writeError(w, http.StatusBadRequest, "validation", vErr.Error())
			return
		}
		s.log.Error("request failed", slog.Any("err", err), slog.String("path", r.URL.Path))
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.catalog.ListServices(r.Context(), true)
	if err != nil {
		s.log.Error("service list failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	out := make([]serviceResponse, 0, len(services))
	for _, svc := range services {
		out = append(out, toServiceResponse(svc))
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": out})
}

func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	serviceID := q.Get("service_id")
	if serviceID == "" {
		writeError(w, http.StatusBadRequest, "validation", "service_id is required")
		return
	}
	date, err := time.Parse(dateFormat, q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "date must be YYYY-MM-DD")
		return
	}

	slots, err := s.bookings.AvailableSlots(r.Context(), date, serviceID)
	if errors.Is(err, booking.ErrDayClosed) {
		// A closed day is an empty answer, not a failure; the closed flag
		// lets clients tell it apart from a fully booked day.
		writeJSON(w, http.StatusOK, map[string]any{
			"date":       date.Format(dateFormat),
			"service_id": serviceID,
			"slots":      []string{},
			"closed":     true,
		})
		return
	}
	if err != nil {
		s.writeBookingError(w, r, err)
		return
	}
	if slots == nil {
		slots = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":       date.Format(dateFormat),
		"service_id": serviceID,
		"slots":      slots,
	})
}

type createBookingRequest struct {
	ServiceID     string `json:"service_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	Notes         string `json:"notes"`
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON body")
		return
	}
	date, err := time.Parse(dateFormat, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "date must be YYYY-MM-DD")
		return
	}
	start, err := domain.ParseTimeOfDay(req.Time)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "time must be HH:MM")
		return
	}

	created, err := s.bookings.CreateBooking(r.Context(), booking.CreateInput{
		ServiceID:     req.ServiceID,
		Date:          date,
		StartTime:     start,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Notes:         req.Notes,
	})
	if err != nil {
		s.writeBookingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"booking": toBookingResponse(created)})
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["bookingId"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "booking id must be a UUID")
		return
	}
	b, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		s.writeBookingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking": toBookingResponse(b)})
}

func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["bookingId"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "booking id must be a UUID")
		return
	}
	if err := s.bookings.CancelBooking(r.Context(), id); err != nil {
		s.writeBookingError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter store.BookingFilter
	if d := q.Get("date"); d != "" {
		date, err := time.Parse(dateFormat, d)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation", "date must be YYYY-MM-DD")
			return
		}
		filter.Date = &date
	}
	if st := q.Get("status"); st != "" {
		status := domain.BookingStatus(st)
		if status != domain.StatusConfirmed && status != domain.StatusCancelled {
			writeError(w, http.StatusBadRequest, "validation", "status must be confirmed or cancelled")
			return
		}
		filter.Status = &status
	}

	bookings, err := s.bookings.ListBookings(r.Context(), filter)
	if err != nil {
		s.writeBookingError(w, r, err)
		return
	}
	out := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResponse(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": out})
}

func (s *Server) handleAdminListServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.catalog.ListServices(r.Context(), false)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	out := make([]serviceResponse, 0, len(services))
	for _, svc := range services {
		out = append(out, toServiceResponse(svc))
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": out})
}

type upsertServiceRequest struct {
	Name            string  `json:"name"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           float64 `json:"price"`
	Description     string  `json:"description"`
	Active          bool    `json:"active"`
	SortOrder       int     `json:"sort_order"`
}

func (s *Server) handleAdminUpsertService(w http.ResponseWriter, r *http.Request) {
	var req upsertServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON body")
		return
	}
	svc, err := s.catalog.UpsertService(r.Context(), catalog.ServiceInput{
		ID:              mux.Vars(r)["serviceId"],
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		Description:     req.Description,
		Active:          req.Active,
		SortOrder:       req.SortOrder,
	})
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"service": toServiceResponse(svc)})
}

func (s *Server) handleAdminDeleteService(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteService(r.Context(), mux.Vars(r)["serviceId"]); err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type dayHoursResponse struct {
	Weekday   string `json:"weekday"`
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
	Enabled   bool   `json:"enabled"`
}

func (s *Server) handleAdminGetHours(w http.ResponseWriter, r *http.Request) {
	hours, err := s.catalog.WeeklyHours(r.Context())
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	out := make([]dayHoursResponse, 0, len(hours))
	for _, day := range hours {
		out = append(out, dayHoursResponse{
			Weekday:   day.Weekday.String(),
			OpenTime:  day.OpenTime.String(),
			CloseTime: day.CloseTime.String(),
			Enabled:   day.Enabled,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"hours": out})
}

type updateHoursRequest struct {
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
	Enabled   bool   `json:"enabled"`
}

func parseWeekday(name string) (domain.Weekday, bool) {
	for w := domain.Sunday; w <= domain.Saturday; w++ {
		if w.String() == name {
			return w, true
		}
	}
	return 0, false
}

func (s *Server) handleAdminUpdateHours(w http.ResponseWriter, r *http.Request) {
	weekday, ok := parseWeekday(mux.Vars(r)["weekday"])
	if !ok {
		writeError(w, http.StatusBadRequest, "validation", "unknown weekday")
		return
	}
	var req updateHoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON body")
		return
	}
	day, err := s.catalog.UpdateDayHours(r.Context(), catalog.DayHoursInput{
		Weekday:   weekday,
		OpenTime:  req.OpenTime,
		CloseTime: req.CloseTime,
		Enabled:   req.Enabled,
	})
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hours": dayHoursResponse{
		Weekday:   day.Weekday.String(),
		OpenTime:  day.OpenTime.String(),
		CloseTime: day.CloseTime.String(),
		Enabled:   day.Enabled,
	}})
}

type configResponse struct {
	BusinessName      string `json:"business_name"`
	BusinessEmail     string `json:"business_email,omitempty"`
	BusinessPhone     string `json:"business_phone,omitempty"`
	Timezone          string `json:"timezone"`
	BufferMinutes     int    `json:"buffer_minutes"`
	MaxBookingsPerDay int    `json:"max_bookings_per_day"`
	GoogleCalendarID  string `json:"google_calendar_id,omitempty"`
}

func toConfigResponse(c domain.BookingConfig) configResponse {
	return configResponse{
		BusinessName:      c.BusinessName,
		BusinessEmail:     c.BusinessEmail,
		BusinessPhone:     c.BusinessPhone,
		Timezone:          c.Timezone,
		BufferMinutes:     c.BufferMinutes,
		MaxBookingsPerDay: c.MaxBookingsPerDay,
		GoogleCalendarID:  c.GoogleCalendarID,
	}
}

func (s *Server) handleAdminGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.catalog.BookingConfig(r.Context())
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"config": toConfigResponse(cfg)})
}

func (s *Server) handleAdminUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req configResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON body")
		return
	}
	cfg, err := s.catalog.UpdateBookingConfig(r.Context(), catalog.ConfigInput{
		BusinessName:      req.BusinessName,
		BusinessEmail:     req.BusinessEmail,
		BusinessPhone:     req.BusinessPhone,
		Timezone:          req.Timezone,
		BufferMinutes:     req.BufferMinutes,
		MaxBookingsPerDay: req.MaxBookingsPerDay,
		GoogleCalendarID:  req.GoogleCalendarID,
	})
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"config": toConfigResponse(cfg)})
}

func (s *Server) writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *catalog.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, "validation", vErr.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
	default:
		s.log.Error("request failed", slog.Any("err", err), slog.String("path", r.URL.Path))
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
