// Package server exposes generated reports over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/wagnojunior/financial-report/internal/domain"
	"github.com/wagnojunior/financial-report/internal/modules/report"
)

// ReportGenerator runs one full analysis for a portfolio.
type ReportGenerator interface {
	Generate(ctx context.Context, portfolio string) (*report.Report, error)
}

// PortfolioLister enumerates the configured portfolios.
type PortfolioLister interface {
	Portfolios() ([]string, error)
}

// Config holds server configuration.
type Config struct {
	Port       int
	DevMode    bool
	Log        zerolog.Logger
	Reports    ReportGenerator
	Portfolios PortfolioLister
}

// Server is the HTTP surface over the report service.
type Server struct {
	router     *chi.Mux
	server     *http.Server
	log        zerolog.Logger
	reports    ReportGenerator
	portfolios PortfolioLister
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		log:        cfg.Log.With().Str("component", "server").Logger(),
		reports:    cfg.Reports,
		portfolios: cfg.Portfolios,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // report generation runs inline
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Timeout(5 * time.Minute))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/portfolios", s.handlePortfolios)
		r.Get("/portfolios/{name}/report", s.handleReport)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePortfolios(w http.ResponseWriter, r *http.Request) {
	names, err := s.portfolios.Portfolios()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"portfolios": names})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	rep, err := s.reports.Generate(r.Context(), name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, rep)
}

// respondError maps domain errors onto HTTP statuses: ledger inconsistencies
// and missing rates/prices are the caller's data problem, everything else is
// a server failure.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var valErr *domain.ValidationError
	var rateErr *domain.RateUnavailableError
	var priceErr *domain.PriceUnavailableError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &valErr), errors.As(err, &rateErr), errors.As(err, &priceErr):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	s.log.Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request failed")
	s.respondJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}
