// Package api provides the read-side HTTP API server.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/portfolio-snapshot/internal/logging"
	"github.com/portfolio-snapshot/internal/models"
)

// AggregatorInterface defines the interface for snapshot aggregation
type AggregatorInterface interface {
	LatestTotalUSD(ctx context.Context) (decimal.Decimal, error)
}

// SnapshotListerInterface defines the interface for listing snapshot summaries
type SnapshotListerInterface interface {
	ListSnapshots(ctx context.Context, limit int) ([]models.SnapshotSummary, error)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port string
}

// Server represents the HTTP API server
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	aggregator AggregatorInterface
	snapshots  SnapshotListerInterface
	logger     *logging.Logger
}

// NewServer creates a new API server instance
func NewServer(config *ServerConfig, aggregator AggregatorInterface, snapshots SnapshotListerInterface, logger *logging.Logger) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		aggregator: aggregator,
		snapshots:  snapshots,
		logger:     logger,
	}

	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoveryMiddleware)
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", config.Host, config.Port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/portfolio/total", s.handlePortfolioTotal).Methods("GET")
	api.HandleFunc("/snapshots", s.handleListSnapshots).Methods("GET")
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Router returns the underlying router, for tests
func (s *Server) Router() http.Handler {
	return s.router
}

func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]interface{}{
		"error": map[string]string{"message": message},
	})
}
