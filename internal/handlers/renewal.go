package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/vehicle-registry/internal/db"
	"github.com/ukydev/vehicle-registry/internal/middleware"
	"github.com/ukydev/vehicle-registry/internal/models"
	"github.com/ukydev/vehicle-registry/internal/renewal"
	"github.com/ukydev/vehicle-registry/internal/schedule"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RenewalPublisher receives processed renewal events for broadcast.
type RenewalPublisher interface {
	PublishRenewal(event *models.RenewalEvent)
}

// RenewalHandler handles renewal processing and ledger queries.
type RenewalHandler struct {
	factory   *renewal.Factory
	calc      *schedule.Calculator
	vehicles  db.VehicleCollection
	events    db.RenewalEventCollection
	publisher RenewalPublisher
}

// NewRenewalHandler creates a new renewal handler. publisher may be nil.
func NewRenewalHandler(factory *renewal.Factory, calc *schedule.Calculator, vehicles db.VehicleCollection, events db.RenewalEventCollection, publisher RenewalPublisher) *RenewalHandler {
	return &RenewalHandler{
		factory:   factory,
		calc:      calc,
		vehicles:  vehicles,
		events:    events,
		publisher: publisher,
	}
}

// ProcessRenewal classifies a renewal against the vehicle's scheduled
// window and appends the resulting event to the ledger.
func (h *RenewalHandler) ProcessRenewal(w http.ResponseWriter, r *http.Request) {
	var req models.ProcessRenewalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.VehicleID == "" {
		respondError(w, http.StatusUnprocessableEntity, "vehicle_id is required")
		return
	}

	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), req.VehicleID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Vehicle not found")
		} else {
			respondError(w, http.StatusBadRequest, "Invalid vehicle ID")
		}
		return
	}

	var processedBy *primitive.ObjectID
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		if actorID, err := primitive.ObjectIDFromHex(claims.UserID); err == nil {
			processedBy = &actorID
		}
	}

	event, err := h.factory.NewEvent(vehicle, req.RenewalDate, processedBy, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, renewal.ErrValidation), errors.Is(err, renewal.ErrMissingData):
			respondError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			log.WithError(err).Error("Failed to build renewal event")
			respondError(w, http.StatusInternalServerError, "Failed to process renewal")
		}
		return
	}

	if err := h.events.InsertEvent(r.Context(), event); err != nil {
		if errors.Is(err, db.ErrDuplicateEvent) {
			respondError(w, http.StatusConflict, "Renewal already recorded for this vehicle and date")
			return
		}
		log.WithError(err).Error("Failed to insert renewal event")
		respondError(w, http.StatusInternalServerError, "Failed to store renewal")
		return
	}

	if h.publisher != nil {
		h.publisher.PublishRenewal(event)
	}

	log.WithFields(log.Fields{
		"vehicle_id": event.VehicleID.Hex(),
		"plate":      event.PlateNumber,
		"status":     event.Status,
	}).Info("Renewal processed")

	respondJSON(w, http.StatusCreated, event)
}

// ListRenewals returns a page of a vehicle's renewal history, newest
// first.
func (h *RenewalHandler) ListRenewals(w http.ResponseWriter, r *http.Request) {
	vehicleID := chi.URLParam(r, "id")
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)

	events, total, err := h.events.FindEventsByVehicle(r.Context(), vehicleID, page, limit)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid vehicle ID")
		return
	}
	if events == nil {
		events = []models.RenewalEvent{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

// GetSchedule returns the vehicle's current scheduled renewal window
// without recording anything.
func (h *RenewalHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Vehicle not found")
		} else {
			respondError(w, http.StatusBadRequest, "Invalid vehicle ID")
		}
		return
	}

	window, err := h.calc.Window(vehicle.PlateNumber, vehicle.Cycle, time.Now())
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"plate_number": vehicle.PlateNumber,
		"cycle":        vehicle.Cycle,
		"week_start":   window.WeekStart.Format(renewal.DateLayout),
		"week_end":     window.WeekEnd.Format(renewal.DateLayout),
		"week_bucket":  window.Bucket,
		"month":        window.Month,
		"year":         window.Year,
	})
}

// RenewalStats returns ledger counts grouped by classification status.
func (h *RenewalHandler) RenewalStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.events.CountEventsByStatus(r.Context())
	if err != nil {
		log.WithError(err).Error("Failed to count renewal events")
		respondError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}
	respondJSON(w, http.StatusOK, counts)
}

func queryInt(r *http.Request, key string, fallback int64) int64 {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
