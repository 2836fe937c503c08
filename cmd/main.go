// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/meetgrid/scheduler/internal/database"
	"github.com/meetgrid/scheduler/internal/handler"
	"github.com/meetgrid/scheduler/internal/metrics"
	"github.com/meetgrid/scheduler/internal/notify"
	"github.com/meetgrid/scheduler/internal/repository"
	"github.com/meetgrid/scheduler/internal/service"
)

type serverConfig struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	if parsed, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(parsed)
	}
	return log
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg serverConfig
	if err := env.Parse(&cfg); err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := newLogger(cfg.LogLevel)

	ctx := context.Background()

	// Connect to PostgreSQL and apply migrations.
	dbCfg, err := database.ConfigFromEnv()
	if err != nil {
		log.Fatalf("database config: %v", err)
	}
	if err := database.Migrate(dbCfg); err != nil {
		log.Fatalf("migrations: %v", err)
	}
	pool, err := database.NewPool(ctx, dbCfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()
	log.Info("connected to postgres")

	// Wire up layers.
	store := repository.NewPostgres(pool)
	m := metrics.New(prometheus.DefaultRegisterer)
	dispatch := notify.NewDispatcher(log)
	reminders := &notify.LogScheduler{Log: log}
	notifier := &notify.LogNotifier{Log: log}

	conflictSvc := service.NewConflictService(store, m, log)
	eventSvc := service.NewEventService(store, conflictSvc, log)
	capacitySvc := service.NewCapacityService(store, reminders, dispatch, m, log)
	podSvc := service.NewPodService(store, notifier, dispatch, m, log)
	lifecycleSvc := service.NewLifecycleService(store, notifier, dispatch, m, log)

	h := handler.New(eventSvc, conflictSvc, capacitySvc, podSvc, lifecycleSvc, log)

	// Build the router.
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(handler.RequestLogger(log))

	r.Get("/health", handler.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)
		r.Get("/", h.ListEvents)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetEvent)
			r.Patch("/", h.UpdateEvent)
			r.Delete("/", h.DeleteEvent)
			r.Get("/attendees", h.ListAttendees)
			r.Get("/capacity", h.GetCapacity)
			r.Post("/register", h.Register)
			r.Delete("/register", h.CancelRegistration)
			r.Post("/decline", h.Decline)
			r.Post("/waitlist/promote", h.PromoteFromWaitlist)
			r.Get("/slots", h.GetSlots)
			r.Post("/slots/player", h.AssignPlayerSlot)
			r.Delete("/slots/player", h.RemovePlayerSlot)
			r.Post("/slots/alternate", h.AssignAlternateSlot)
			r.Post("/slots/promote", h.PromoteAlternate)
			r.Post("/slots/swap", h.SwapPositions)
			r.Post("/status", h.UpdateStatus)
			r.Get("/history", h.StatusHistory)
		})
	})
	r.Get("/users/{id}/availability", h.CheckAvailability)
	r.Post("/maintenance/expire-events", h.ProcessExpired)

	// Start server with graceful shutdown.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      handler.CORS().Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
	// Let in-flight best-effort tasks finish before exit.
	dispatch.Wait()
	log.Info("server stopped")
}
