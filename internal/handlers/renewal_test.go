package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/vehicle-registry/internal/db"
	"github.com/ukydev/vehicle-registry/internal/models"
	"github.com/ukydev/vehicle-registry/internal/plate"
	"github.com/ukydev/vehicle-registry/internal/renewal"
	"github.com/ukydev/vehicle-registry/internal/schedule"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeVehicleStore is an in-memory db.VehicleCollection.
type fakeVehicleStore struct {
	vehicles map[string]*models.Vehicle
}

func newFakeVehicleStore(vehicles ...*models.Vehicle) *fakeVehicleStore {
	s := &fakeVehicleStore{vehicles: make(map[string]*models.Vehicle)}
	for _, v := range vehicles {
		s.vehicles[v.ID.Hex()] = v
	}
	return s
}

func (s *fakeVehicleStore) InsertVehicle(_ context.Context, v models.Vehicle) (string, error) {
	for _, existing := range s.vehicles {
		if existing.PlateNumber == v.PlateNumber {
			return "", db.ErrDuplicatePlate
		}
	}
	v.ID = primitive.NewObjectID()
	s.vehicles[v.ID.Hex()] = &v
	return v.ID.Hex(), nil
}

func (s *fakeVehicleStore) FindVehicles(context.Context, bson.M, int64, int64) ([]models.Vehicle, error) {
	var out []models.Vehicle
	for _, v := range s.vehicles {
		out = append(out, *v)
	}
	return out, nil
}

func (s *fakeVehicleStore) FindVehicleByID(_ context.Context, id string) (*models.Vehicle, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("invalid vehicle ID: %w", err)
	}
	v, ok := s.vehicles[id]
	if !ok {
		return nil, fmt.Errorf("vehicle %s: %w", id, db.ErrNotFound)
	}
	return v, nil
}

func (s *fakeVehicleStore) FindVehicleByPlate(_ context.Context, plateNumber string) (*models.Vehicle, error) {
	for _, v := range s.vehicles {
		if v.PlateNumber == plateNumber {
			return v, nil
		}
	}
	return nil, fmt.Errorf("plate %s: %w", plateNumber, db.ErrNotFound)
}

func (s *fakeVehicleStore) UpdateVehicle(_ context.Context, id string, v models.Vehicle) error {
	if _, ok := s.vehicles[id]; !ok {
		return db.ErrNotFound
	}
	s.vehicles[id] = &v
	return nil
}

func (s *fakeVehicleStore) DeleteVehicle(_ context.Context, id string) error {
	if _, ok := s.vehicles[id]; !ok {
		return db.ErrNotFound
	}
	delete(s.vehicles, id)
	return nil
}

func (s *fakeVehicleStore) ExpireDue(context.Context, time.Time) (int64, error) {
	return 0, nil
}

// fakeEventStore is an in-memory db.RenewalEventCollection with the
// same uniqueness behavior as the Mongo index.
type fakeEventStore struct {
	events []models.RenewalEvent
}

func (s *fakeEventStore) InsertEvent(_ context.Context, event *models.RenewalEvent) error {
	for _, e := range s.events {
		if e.VehicleID == event.VehicleID && e.RenewalDate.Equal(event.RenewalDate) {
			return db.ErrDuplicateEvent
		}
	}
	event.ID = primitive.NewObjectID()
	s.events = append(s.events, *event)
	return nil
}

func (s *fakeEventStore) FindEventsByVehicle(_ context.Context, vehicleID string, page, limit int64) ([]models.RenewalEvent, int64, error) {
	objectID, err := primitive.ObjectIDFromHex(vehicleID)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid vehicle ID: %w", err)
	}
	var matched []models.RenewalEvent
	for _, e := range s.events {
		if e.VehicleID == objectID {
			matched = append(matched, e)
		}
	}
	return matched, int64(len(matched)), nil
}

func (s *fakeEventStore) CountEventsByStatus(context.Context) (map[models.RenewalStatus]int64, error) {
	counts := make(map[models.RenewalStatus]int64)
	for _, e := range s.events {
		counts[e.Status]++
	}
	return counts, nil
}

func newTestRenewalHandler(t *testing.T, vehicles *fakeVehicleStore, events *fakeEventStore) *RenewalHandler {
	t.Helper()
	decoder, err := plate.NewDecoder(plate.DefaultPolicy())
	require.NoError(t, err)
	calc := schedule.NewCalculator(decoder)
	factory := renewal.NewFactory(renewal.NewClassifier(calc))
	return NewRenewalHandler(factory, calc, vehicles, events, nil)
}

func registryVehicle() *models.Vehicle {
	return &models.Vehicle{
		ID:             primitive.NewObjectID(),
		PlateNumber:    "AB-56",
		FileNumber:     "F-000100",
		Cycle:          models.CycleOld,
		Status:         models.VehicleActive,
		ExpirationDate: time.Now().AddDate(1, 0, 0),
	}
}

func postRenewal(t *testing.T, h *RenewalHandler, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/renewals", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ProcessRenewal(rec, req)
	return rec
}

func TestProcessRenewalCreatesEvent(t *testing.T) {
	vehicle := registryVehicle()
	events := &fakeEventStore{}
	h := newTestRenewalHandler(t, newFakeVehicleStore(vehicle), events)

	rec := postRenewal(t, h, models.ProcessRenewalRequest{
		VehicleID:   vehicle.ID.Hex(),
		RenewalDate: "2024-06-17",
		Notes:       "counter renewal",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, events.events, 1)

	var got models.RenewalEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, vehicle.ID, got.VehicleID)
	assert.Equal(t, "AB-56", got.PlateNumber)
	assert.Equal(t, "counter renewal", got.Notes)
	assert.NotEmpty(t, got.Status)
}

func TestProcessRenewalDuplicate(t *testing.T) {
	vehicle := registryVehicle()
	h := newTestRenewalHandler(t, newFakeVehicleStore(vehicle), &fakeEventStore{})

	req := models.ProcessRenewalRequest{VehicleID: vehicle.ID.Hex(), RenewalDate: "2024-06-17"}
	require.Equal(t, http.StatusCreated, postRenewal(t, h, req).Code)
	assert.Equal(t, http.StatusConflict, postRenewal(t, h, req).Code)
}

func TestProcessRenewalUnknownVehicle(t *testing.T) {
	h := newTestRenewalHandler(t, newFakeVehicleStore(), &fakeEventStore{})

	rec := postRenewal(t, h, models.ProcessRenewalRequest{
		VehicleID:   primitive.NewObjectID().Hex(),
		RenewalDate: "2024-06-17",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProcessRenewalValidation(t *testing.T) {
	vehicle := registryVehicle()
	h := newTestRenewalHandler(t, newFakeVehicleStore(vehicle), &fakeEventStore{})

	tests := []struct {
		name string
		req  models.ProcessRenewalRequest
	}{
		{"missing date", models.ProcessRenewalRequest{VehicleID: vehicle.ID.Hex()}},
		{"bad date format", models.ProcessRenewalRequest{VehicleID: vehicle.ID.Hex(), RenewalDate: "17/06/2024"}},
		{"future date", models.ProcessRenewalRequest{VehicleID: vehicle.ID.Hex(), RenewalDate: "3000-01-01"}},
		{"overlong notes", models.ProcessRenewalRequest{
			VehicleID:   vehicle.ID.Hex(),
			RenewalDate: "2024-06-17",
			Notes:       strings.Repeat("x", models.MaxRenewalNotesLen+1),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusUnprocessableEntity, postRenewal(t, h, tt.req).Code)
		})
	}
}

func TestProcessRenewalUndecodablePlateStillRecorded(t *testing.T) {
	vehicle := registryVehicle()
	vehicle.PlateNumber = "AB-5X"
	events := &fakeEventStore{}
	h := newTestRenewalHandler(t, newFakeVehicleStore(vehicle), events)

	rec := postRenewal(t, h, models.ProcessRenewalRequest{
		VehicleID:   vehicle.ID.Hex(),
		RenewalDate: "2024-06-17",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, events.events, 1)
	assert.Equal(t, models.RenewalUndetermined, events.events[0].Status)
	assert.NotEmpty(t, events.events[0].ScheduleError)
}

func newTestRouter(h *RenewalHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/api/vehicles/{id}/renewals", h.ListRenewals)
	r.Get("/api/vehicles/{id}/schedule", h.GetSchedule)
	r.Get("/api/renewals/stats", h.RenewalStats)
	return r
}

func TestListRenewals(t *testing.T) {
	vehicle := registryVehicle()
	events := &fakeEventStore{}
	h := newTestRenewalHandler(t, newFakeVehicleStore(vehicle), events)
	require.Equal(t, http.StatusCreated, postRenewal(t, h, models.ProcessRenewalRequest{
		VehicleID:   vehicle.ID.Hex(),
		RenewalDate: "2024-06-17",
	}).Code)

	router := newTestRouter(h)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/vehicles/"+vehicle.ID.Hex()+"/renewals", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Events []models.RenewalEvent `json:"events"`
		Total  int64                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(1), got.Total)
	require.Len(t, got.Events, 1)
	assert.Equal(t, vehicle.ID, got.Events[0].VehicleID)
}

func TestGetSchedule(t *testing.T) {
	vehicle := registryVehicle()
	h := newTestRenewalHandler(t, newFakeVehicleStore(vehicle), &fakeEventStore{})

	router := newTestRouter(h)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/vehicles/"+vehicle.ID.Hex()+"/schedule", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "AB-56", got["plate_number"])
	assert.Equal(t, "third", got["week_bucket"])
	assert.NotEmpty(t, got["week_start"])
	assert.NotEmpty(t, got["week_end"])
}

func TestGetScheduleUnknownVehicle(t *testing.T) {
	h := newTestRenewalHandler(t, newFakeVehicleStore(), &fakeEventStore{})

	router := newTestRouter(h)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/vehicles/"+primitive.NewObjectID().Hex()+"/schedule", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRenewalStats(t *testing.T) {
	vehicle := registryVehicle()
	h := newTestRenewalHandler(t, newFakeVehicleStore(vehicle), &fakeEventStore{})
	require.Equal(t, http.StatusCreated, postRenewal(t, h, models.ProcessRenewalRequest{
		VehicleID:   vehicle.ID.Hex(),
		RenewalDate: "2024-06-17",
	}).Code)

	router := newTestRouter(h)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/renewals/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var counts map[models.RenewalStatus]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counts))
	var total int64
	for _, n := range counts {
		total += n
	}
	assert.Equal(t, int64(1), total)
}
