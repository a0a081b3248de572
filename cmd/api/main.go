package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crucial707/mlregistry/internal/config"
	"github.com/crucial707/mlregistry/internal/db"
	"github.com/crucial707/mlregistry/internal/handlers"
	"github.com/crucial707/mlregistry/internal/logging"
	"github.com/crucial707/mlregistry/internal/middleware"
	"github.com/crucial707/mlregistry/internal/models"
	"github.com/crucial707/mlregistry/internal/repo"
	"github.com/crucial707/mlregistry/internal/seed"
	"github.com/crucial707/mlregistry/internal/store"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// pingFunc reports whether the backing store is reachable.
type pingFunc func(ctx context.Context) error

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogFormat, os.Stdout)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	st, ping, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Error("failed to open store", "store", cfg.Store, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(st, ping, cfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting API server", "port", cfg.Port, "store", cfg.Store, "tls", cfg.TLSCertFile != "")
		var err error
		if cfg.TLSCertFile != "" {
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	logger.Info("shutting down API server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
}

// openStore builds the gateway selected by cfg.Store. The memory store is seeded at startup.
func openStore(cfg config.Config) (store.Store, pingFunc, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if cfg.Store == config.StorePostgres {
		database, err := db.Connect(ctx, cfg)
		if err != nil {
			return store.Store{}, nil, nil, err
		}
		if err := db.Migrate(db.URL(cfg)); err != nil {
			database.Close()
			return store.Store{}, nil, nil, err
		}
		slog.Info("connected to PostgreSQL", "host", cfg.DBHost, "db", cfg.DBName)
		return repo.NewStore(database), database.PingContext, func() { database.Close() }, nil
	}

	data := seed.Default()
	if cfg.SeedFile != "" {
		var err error
		if data, err = seed.Load(cfg.SeedFile); err != nil {
			return store.Store{}, nil, nil, err
		}
	}
	st := store.NewMemory(nil)
	if err := seed.Apply(ctx, st, data); err != nil {
		return store.Store{}, nil, nil, err
	}
	slog.Info("in-memory store seeded", "models", len(data.Models), "deployments", len(data.Deployments), "users", len(data.Users))
	return st, func(context.Context) error { return nil }, func() {}, nil
}

// newRouter wires every API route. ping backs /ready.
func newRouter(st store.Store, ping pingFunc, cfg config.Config) http.Handler {
	secret := []byte(cfg.JWTSecret)
	ttl := cfg.JWTExpiry()
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	authHandler := &handlers.AuthHandler{Users: st.Users, Audit: st.Audit, Secret: secret, TTL: ttl}
	modelHandler := &handlers.ModelHandler{Models: st.Models, Audit: st.Audit}
	deploymentHandler := &handlers.DeploymentHandler{Deployments: st.Deployments, Models: st.Models, Audit: st.Audit}
	executionHandler := &handlers.ExecutionHandler{Executions: st.Executions, Deployments: st.Deployments, Audit: st.Audit}
	userHandler := &handlers.UserHandler{Users: st.Users, Audit: st.Audit}
	auditHandler := &handlers.AuditHandler{Audit: st.Audit}
	scheduleHandler := &handlers.ScheduleHandler{}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLog(slog.Default()))
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(middleware.CSPAPI, cfg.TLSCertFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	// ==========================
	// Probes
	// ==========================
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := ping(r.Context()); err != nil {
			slog.Warn("readiness check failed", "err", err)
			handlers.JSONError(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ready"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	// ==========================
	// Auth
	// ==========================
	r.With(middleware.AuthRateLimiter().Middleware).Post("/auth/login", authHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(secret))
		writers := middleware.RequireRole(models.RoleAdmin, models.RoleDataScientist)
		operators := middleware.RequireRole(models.RoleAdmin, models.RoleDataScientist, models.RoleBusinessUser)
		admins := middleware.RequireRole(models.RoleAdmin)

		r.Get("/auth/me", authHandler.Me)

		r.Route("/models", func(r chi.Router) {
			r.Get("/", modelHandler.ListModels)
			r.Get("/{id}", modelHandler.GetModel)
			r.With(writers).Post("/", modelHandler.CreateModel)
			r.With(writers).Put("/{id}", modelHandler.UpdateModel)
			r.With(writers).Delete("/{id}", modelHandler.DeleteModel)
		})

		r.Route("/deployments", func(r chi.Router) {
			r.Get("/", deploymentHandler.ListDeployments)
			r.Get("/{id}", deploymentHandler.GetDeployment)
			r.With(writers).Post("/", deploymentHandler.CreateDeployment)
			r.With(writers).Put("/{id}", deploymentHandler.UpdateDeployment)
			r.With(writers).Delete("/{id}", deploymentHandler.DeleteDeployment)
			r.With(writers).Post("/{id}/start", deploymentHandler.StartDeployment)
			r.With(writers).Post("/{id}/stop", deploymentHandler.StopDeployment)
		})

		r.Route("/executions", func(r chi.Router) {
			r.Get("/", executionHandler.ListExecutions)
			r.Get("/{id}", executionHandler.GetExecution)
			r.Get("/{id}/logs", executionHandler.GetLogs)
			r.With(operators).Post("/", executionHandler.TriggerExecution)
			r.With(operators).Post("/{id}/cancel", executionHandler.CancelExecution)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(admins)
			r.Get("/", userHandler.ListUsers)
			r.Get("/{id}", userHandler.GetUser)
			r.Post("/", userHandler.CreateUser)
			r.Put("/{id}", userHandler.UpdateUser)
			r.Delete("/{id}", userHandler.DeleteUser)
		})

		r.With(admins).Get("/audit", auditHandler.ListAudit)

		r.Get("/schedules/label", scheduleHandler.Label)
		r.Get("/schedules/cadences", scheduleHandler.Cadences)
	})

	return r
}
