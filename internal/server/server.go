package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/Bekawhite/DigitalLab/config"
	"github.com/Bekawhite/DigitalLab/internal/auth"
	"github.com/Bekawhite/DigitalLab/internal/db"
	"github.com/Bekawhite/DigitalLab/internal/handlers"
	"github.com/Bekawhite/DigitalLab/internal/logging"
	"github.com/Bekawhite/DigitalLab/internal/metrics"
	"github.com/Bekawhite/DigitalLab/internal/services"
	"github.com/Bekawhite/DigitalLab/internal/session"
	"github.com/Bekawhite/DigitalLab/internal/storage"
	"github.com/Bekawhite/DigitalLab/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	log        *logrus.Logger
}

// New wires the database, blob storage, services and routes from cfg.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	sessions, err := session.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("JWT_SECRET is required: %w", err)
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := db.MigrateUp(dbConn, cfg.Database.Driver); err != nil {
			_ = dbConn.Close()
			return nil, err
		}
	}

	files, err := storage.Open(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	st := store.New(dbConn)
	passwords := auth.NewPasswordManager(cfg.BcryptCost)

	authService := services.NewAuthService(st.Users, st.Doctors, st, passwords, log)
	userService := services.NewUserService(st.Users, log)
	resultService := services.NewResultService(st.Users, st.Patients, st.Doctors, st.LabResults, st.Notifications, files, log)
	uploadService := services.NewUploadService(st.Users, st.Patients, files, st, log)

	m := metrics.New()
	authHandler := handlers.NewAuthHandler(authService, userService, sessions, m, log)
	resultHandler := handlers.NewResultHandler(resultService, m, log)
	uploadHandler := handlers.NewUploadHandler(uploadService, files.MaxBytes(), m, log)
	homeHandler := handlers.NewHomeHandler(resultService, log)
	requireAuth := handlers.RequireAuth(sessions)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		logging.RequestLogger(log),
		m.Middleware,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Method(http.MethodGet, "/metrics", m.Handler())
	router.With(handlers.OptionalAuth(sessions)).Get("/", homeHandler.Home)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler)
	})
	router.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/dashboard", resultHandler.Dashboard)
		r.Get("/patients", resultHandler.ListPatients)
		r.Route("/results", func(r chi.Router) {
			handlers.ResultRouter(r, resultHandler)
			r.Post("/", uploadHandler.UploadResult)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.WithFields(logrus.Fields{
		"port":    port,
		"db":      cfg.Database.Driver,
		"storage": cfg.Storage.Backend,
	}).Info("server configured")

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		log:        log,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires, then closes the
// database pool.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
