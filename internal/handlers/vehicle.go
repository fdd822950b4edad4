package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/vehicle-registry/internal/db"
	"github.com/ukydev/vehicle-registry/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VehicleHandler handles vehicle registration CRUD.
type VehicleHandler struct {
	vehicles db.VehicleCollection
}

// NewVehicleHandler creates a new vehicle handler.
func NewVehicleHandler(vehicles db.VehicleCollection) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles}
}

type vehicleRequest struct {
	PlateNumber    string              `json:"plate_number"`
	FileNumber     string              `json:"file_number"`
	Make           string              `json:"make"`
	Model          string              `json:"model"`
	Year           int                 `json:"year"`
	Cycle          models.RenewalCycle `json:"cycle"`
	ExpirationDate string              `json:"expiration_date"` // YYYY-MM-DD
}

func (req *vehicleRequest) validate() (time.Time, error) {
	if req.PlateNumber == "" {
		return time.Time{}, errors.New("plate_number is required")
	}
	if !models.IsValidCycle(req.Cycle) {
		return time.Time{}, errors.New("cycle must be \"new\" or \"old\"")
	}
	expiration, err := time.ParseInLocation("2006-01-02", req.ExpirationDate, time.UTC)
	if err != nil {
		return time.Time{}, errors.New("expiration_date must be YYYY-MM-DD")
	}
	return expiration, nil
}

// CreateVehicle registers a new vehicle.
func (h *VehicleHandler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	expiration, err := req.validate()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	vehicle := models.Vehicle{
		PlateNumber:    req.PlateNumber,
		FileNumber:     req.FileNumber,
		Make:           req.Make,
		Model:          req.Model,
		Year:           req.Year,
		Cycle:          req.Cycle,
		Status:         models.VehicleActive,
		ExpirationDate: expiration,
	}

	id, err := h.vehicles.InsertVehicle(r.Context(), vehicle)
	if err != nil {
		if errors.Is(err, db.ErrDuplicatePlate) {
			respondError(w, http.StatusConflict, "Plate number already registered")
			return
		}
		log.WithError(err).Error("Failed to insert vehicle")
		respondError(w, http.StatusInternalServerError, "Failed to register vehicle")
		return
	}

	vehicle.ID, _ = primitive.ObjectIDFromHex(id)
	log.WithFields(log.Fields{"vehicle_id": id, "plate": vehicle.PlateNumber}).Info("Vehicle registered")
	respondJSON(w, http.StatusCreated, vehicle)
}

// ListVehicles returns vehicles, optionally filtered by status.
func (h *VehicleHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = models.VehicleStatus(status)
	}

	vehicles, err := h.vehicles.FindVehicles(r.Context(), filter, queryInt(r, "page", 1), queryInt(r, "limit", 20))
	if err != nil {
		log.WithError(err).Error("Failed to list vehicles")
		respondError(w, http.StatusInternalServerError, "Failed to list vehicles")
		return
	}
	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}
	respondJSON(w, http.StatusOK, vehicles)
}

// GetVehicle returns a single vehicle by ID.
func (h *VehicleHandler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Vehicle not found")
		} else {
			respondError(w, http.StatusBadRequest, "Invalid vehicle ID")
		}
		return
	}
	respondJSON(w, http.StatusOK, vehicle)
}

// UpdateVehicle replaces a vehicle's registration details.
func (h *VehicleHandler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	current, err := h.vehicles.FindVehicleByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Vehicle not found")
		} else {
			respondError(w, http.StatusBadRequest, "Invalid vehicle ID")
		}
		return
	}

	var req vehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	expiration, err := req.validate()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated := *current
	updated.PlateNumber = req.PlateNumber
	updated.FileNumber = req.FileNumber
	updated.Make = req.Make
	updated.Model = req.Model
	updated.Year = req.Year
	updated.Cycle = req.Cycle
	updated.ExpirationDate = expiration

	if err := h.vehicles.UpdateVehicle(r.Context(), id, updated); err != nil {
		log.WithError(err).Error("Failed to update vehicle")
		respondError(w, http.StatusInternalServerError, "Failed to update vehicle")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DeleteVehicle removes a vehicle registration.
func (h *VehicleHandler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	if err := h.vehicles.DeleteVehicle(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Vehicle not found")
		} else {
			respondError(w, http.StatusBadRequest, "Invalid vehicle ID")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Vehicle deleted"})
}
