package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// Vehicle mirrors the registration payload accepted by the API.
type Vehicle struct {
	PlateNumber    string `json:"plate_number"`
	FileNumber     string `json:"file_number"`
	Make           string `json:"make"`
	Model          string `json:"model"`
	Year           int    `json:"year"`
	Cycle          string `json:"cycle"`
	ExpirationDate string `json:"expiration_date"`
}

// Renewal mirrors the renewal-processing payload.
type Renewal struct {
	VehicleID   string `json:"vehicle_id"`
	RenewalDate string `json:"renewal_date"`
	Notes       string `json:"notes,omitempty"`
}

var authToken string

func authorizedPost(url string, body *bytes.Buffer) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func randomPlate() string {
	letters := "ABCDEFGHJKLMNPRSTUVWXYZ"
	return fmt.Sprintf("%c%c-%04d",
		letters[rand.Intn(len(letters))],
		letters[rand.Intn(len(letters))],
		rand.Intn(10000))
}

func createVehicle(apiURL string, index int) (string, error) {
	makes := []string{"Ford", "Toyota", "Honda", "Nissan", "BMW"}
	models := []string{"Focus", "Corolla", "Civic", "Altima", "X5"}
	cycles := []string{"new", "old"}

	// Roughly a fifth of the fleet is seeded already lapsed so the
	// expiration sweeper has work on first run.
	expiration := time.Now().AddDate(0, rand.Intn(18), 0)
	if rand.Intn(5) == 0 {
		expiration = time.Now().AddDate(0, -rand.Intn(6)-1, 0)
	}

	vehicle := Vehicle{
		PlateNumber:    randomPlate(),
		FileNumber:     fmt.Sprintf("F-%06d", index),
		Make:           makes[rand.Intn(len(makes))],
		Model:          models[rand.Intn(len(models))],
		Year:           2018 + rand.Intn(7),
		Cycle:          cycles[rand.Intn(len(cycles))],
		ExpirationDate: expiration.Format("2006-01-02"),
	}

	data, err := json.Marshal(vehicle)
	if err != nil {
		return "", fmt.Errorf("failed to marshal vehicle: %w", err)
	}

	resp, err := authorizedPost(apiURL+"/vehicles", bytes.NewBuffer(data))
	if err != nil {
		return "", fmt.Errorf("failed to create vehicle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("vehicle creation failed with status: %d", resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	id, ok := result["id"].(string)
	if !ok {
		return "", fmt.Errorf("invalid vehicle ID in response")
	}

	log.WithFields(log.Fields{
		"vehicle_id": id,
		"plate":      vehicle.PlateNumber,
		"cycle":      vehicle.Cycle,
	}).Info("Created vehicle")

	return id, nil
}

func processRenewal(apiURL, vehicleID string) {
	renewal := Renewal{
		VehicleID:   vehicleID,
		RenewalDate: time.Now().AddDate(0, 0, -rand.Intn(120)).Format("2006-01-02"),
		Notes:       "seeded renewal",
	}
	data, err := json.Marshal(renewal)
	if err != nil {
		log.WithError(err).Error("Failed to marshal renewal")
		return
	}
	resp, err := authorizedPost(apiURL+"/renewals", bytes.NewBuffer(data))
	if err != nil {
		log.WithError(err).Error("Failed to process renewal")
		return
	}
	defer resp.Body.Close()
	log.WithFields(log.Fields{"vehicle_id": vehicleID, "status": resp.Status}).Info("Processed renewal")
}

func main() {
	authToken = os.Getenv("SEED_AUTH_TOKEN")

	fleetSize := 25
	if val := os.Getenv("FLEET_SIZE"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			fleetSize = n
		}
	}

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}

	log.WithFields(log.Fields{
		"fleet_size": fleetSize,
		"api_url":    apiURL,
	}).Info("Seeding registry")

	created := 0
	for i := 0; i < fleetSize; i++ {
		id, err := createVehicle(apiURL, i+1)
		if err != nil {
			log.WithError(err).Error("Failed to create vehicle")
			continue
		}
		created++
		// Every other vehicle gets a renewal on record.
		if i%2 == 0 {
			processRenewal(apiURL, id)
		}
	}

	if created == 0 {
		log.Error("No vehicles created. Ensure SEED_AUTH_TOKEN is valid and API is reachable.")
		os.Exit(1)
	}
	log.WithField("created_vehicles", created).Info("Seeding completed")
}
