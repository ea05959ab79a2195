// Package api exposes the listing pipeline over HTTP: settings management,
// item store maintenance and on-demand runs.
package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"asin-lister/models"
	"asin-lister/services"
	"asin-lister/storage"
	"asin-lister/utils"
)

var validate = validator.New()

// SettingsRepository loads and stores the business settings snapshot.
type SettingsRepository interface {
	LoadOrDefault(ctx context.Context) (models.Settings, error)
	Save(ctx context.Context, st models.Settings) error
}

// RunExecutor runs the pipeline over a set of candidates.
type RunExecutor interface {
	Run(ctx context.Context, candidates []models.ListingCandidate, settings models.Settings) *models.RunReport
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	items     storage.ItemStore
	settings  SettingsRepository
	runner    RunExecutor
	extractor *services.Extractor
	logger    *utils.Logger
}

// NewServer wires a Server.
func NewServer(items storage.ItemStore, settings SettingsRepository, runner RunExecutor, logger *utils.Logger) *Server {
	return &Server{
		items:     items,
		settings:  settings,
		runner:    runner,
		extractor: services.NewExtractor(logger),
		logger:    logger,
	}
}

// Router builds the mux router with middleware applied.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(withRequestID, withLogging(s.logger))
	s.RegisterRoutes(r)
	return r
}

// RegisterRoutes wires the HTTP routes onto r.
func (s *Server) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/settings", s.getSettings).Methods(http.MethodGet)
	r.HandleFunc("/settings", s.putSettings).Methods(http.MethodPut)
	r.HandleFunc("/runs", s.createRun).Methods(http.MethodPost)
	r.HandleFunc("/items", s.listItems).Methods(http.MethodGet)
	r.HandleFunc("/items", s.deleteItems).Methods(http.MethodDelete)
}
