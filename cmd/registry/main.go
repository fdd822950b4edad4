package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/vehicle-registry/internal/auth"
	"github.com/ukydev/vehicle-registry/internal/config"
	"github.com/ukydev/vehicle-registry/internal/db"
	"github.com/ukydev/vehicle-registry/internal/handlers"
	regmw "github.com/ukydev/vehicle-registry/internal/middleware"
	"github.com/ukydev/vehicle-registry/internal/notify"
	"github.com/ukydev/vehicle-registry/internal/plate"
	"github.com/ukydev/vehicle-registry/internal/renewal"
	"github.com/ukydev/vehicle-registry/internal/schedule"
	"github.com/ukydev/vehicle-registry/internal/sweeper"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	policy := plate.DefaultPolicy()
	if cfg.PlatePolicyFile != "" {
		policy, err = plate.LoadPolicy(cfg.PlatePolicyFile)
		if err != nil {
			log.Fatalf("Failed to load plate policy: %v", err)
		}
	}
	decoder, err := plate.NewDecoder(policy)
	if err != nil {
		log.Fatalf("Plate policy rejected: %v", err)
	}

	client, err := db.ConnectMongo(context.Background(), cfg.MongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())
	log.Info("Connected to MongoDB")

	database := client.Database(cfg.MongoDB)
	if err := db.EnsureIndexes(context.Background(), database); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	vehicles := &db.MongoVehicleCollection{Collection: database.Collection(db.VehiclesCollection)}
	events := &db.MongoRenewalEventCollection{Collection: database.Collection(db.RenewalEventsCollection)}
	users := &db.MongoUserCollection{Collection: database.Collection(db.UsersCollection)}

	var publisher *notify.Publisher
	if cfg.MQTTBroker != "" {
		publisher, err = notify.Connect(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopicPrefix)
		if err != nil {
			log.WithError(err).Warn("MQTT unavailable, continuing without event publishing")
		} else {
			defer publisher.Close()
		}
	}

	calc := schedule.NewCalculator(decoder)
	classifier := renewal.NewClassifier(calc)
	factory := renewal.NewFactory(classifier)

	var sweepNotifier sweeper.Notifier
	var renewalPublisher handlers.RenewalPublisher
	if publisher != nil {
		sweepNotifier = publisher
		renewalPublisher = publisher
	}

	sweep := sweeper.New(vehicles, sweepNotifier, sweeper.SystemClock(), cfg.SweepHourUTC)
	sweep.Start()
	defer sweep.Stop()

	authService := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	authMW := regmw.NewAuthMiddleware(authService)
	rateLimiter := regmw.NewRateLimitMiddleware()

	authHandler := handlers.NewAuthHandler(authService, users)
	vehicleHandler := handlers.NewVehicleHandler(vehicles)
	renewalHandler := handlers.NewRenewalHandler(factory, calc, vehicles, events, renewalPublisher)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(rateLimiter.RateLimit(100, 60))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/register", authHandler.Register)

		r.Group(func(r chi.Router) {
			r.Use(authMW.Authenticate)

			r.Get("/auth/profile", authHandler.GetProfile)
			r.Post("/auth/change-password", authHandler.ChangePassword)

			r.With(authMW.RequirePermission("view_vehicles")).Get("/vehicles", vehicleHandler.ListVehicles)
			r.With(authMW.RequirePermission("manage_vehicles")).Post("/vehicles", vehicleHandler.CreateVehicle)
			r.With(authMW.RequirePermission("view_vehicles")).Get("/vehicles/{id}", vehicleHandler.GetVehicle)
			r.With(authMW.RequirePermission("manage_vehicles")).Put("/vehicles/{id}", vehicleHandler.UpdateVehicle)
			r.With(authMW.RequirePermission("delete_vehicle")).Delete("/vehicles/{id}", vehicleHandler.DeleteVehicle)

			r.With(authMW.RequirePermission("process_renewal")).Post("/renewals", renewalHandler.ProcessRenewal)
			r.With(authMW.RequirePermission("view_renewals")).Get("/renewals/stats", renewalHandler.RenewalStats)
			r.With(authMW.RequirePermission("view_renewals")).Get("/vehicles/{id}/renewals", renewalHandler.ListRenewals)
			r.With(authMW.RequirePermission("view_schedule")).Get("/vehicles/{id}/schedule", renewalHandler.GetSchedule)
		})
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP shutdown failed")
	}
}
