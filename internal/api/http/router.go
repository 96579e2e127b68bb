package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/logger"
	"vehicle-rental-backend/internal/service"
	"vehicle-rental-backend/internal/utils"
)

const requestIDHeader = "X-Request-ID"

// Pinger reports whether the backing store is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler serves the public read-only endpoints next to the gRPC API.
type Handler struct {
	db         Pinger
	bookingSvc service.BookingService
}

// NewHandler creates the side handler. db may be nil for the in-memory store.
func NewHandler(db Pinger, bookingSvc service.BookingService) *Handler {
	return &Handler{db: db, bookingSvc: bookingSvc}
}

// RegisterRoutes mounts the handler on router.
func RegisterRoutes(router *mux.Router, h *Handler) {
	router.Use(RequestID)
	router.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/delivery-locations", h.DeliveryLocations).Methods(http.MethodGet)
	api.HandleFunc("/bookings/summary", h.BookingSummary).Methods(http.MethodGet)
}

// RequestID propagates or generates the X-Request-ID header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), requestID)))
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			logger.ErrorContext(r.Context(), "Health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) DeliveryLocations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"locations": utils.DeliveryOptions()})
}

// BookingSummary answers availability and price questions without
// authentication. It never excludes an existing booking.
func (h *Handler) BookingSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	vehicleID, err := strconv.ParseInt(q.Get("vehicle_id"), 10, 32)
	if err != nil {
		writeError(w, r, domain.Validationf("vehicle_id must be a number"))
		return
	}
	start, err := time.Parse(time.RFC3339, q.Get("start_time"))
	if err != nil {
		writeError(w, r, domain.Validationf("start_time must be an RFC 3339 timestamp"))
		return
	}
	end, err := time.Parse(time.RFC3339, q.Get("end_time"))
	if err != nil {
		writeError(w, r, domain.Validationf("end_time must be an RFC 3339 timestamp"))
		return
	}
	withDriver, _ := strconv.ParseBool(q.Get("driver_requested"))
	pickup := domain.PickupType(q.Get("pickup_type"))
	if pickup == "" {
		pickup = domain.PickupTypePickup
	}

	summary, err := h.bookingSvc.CheckSummary(r.Context(), domain.Caller{}, service.SummaryRequest{
		VehicleID:        int32(vehicleID),
		StartTime:        start,
		EndTime:          end,
		DriverRequested:  withDriver,
		PickupType:       pickup,
		DeliveryLocation: q.Get("delivery_location"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	msg := "internal error"
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		msg = domainErr.Message
	}
	switch {
	case errors.Is(err, domain.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		code = http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		code = http.StatusForbidden
	default:
		logger.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, code, map[string]string{"error": msg})
}
