package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/portfolio-snapshot/internal/models"
	"github.com/portfolio-snapshot/internal/service"
)

const defaultSnapshotLimit = 30
const maxSnapshotLimit = 365

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "portfolio-snapshot",
	})
}

// handlePortfolioTotal returns the USD total of the most recent snapshot
func (s *Server) handlePortfolioTotal(w http.ResponseWriter, r *http.Request) {
	total, err := s.aggregator.LatestTotalUSD(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("Failed to read latest portfolio total")
		respondError(w, http.StatusInternalServerError, "failed to read portfolio total")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"currency":  service.SettlementCurrency,
		"totalUsd":  total.String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleListSnapshots returns per-run snapshot summaries, newest first
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := defaultSnapshotLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxSnapshotLimit {
			respondError(w, http.StatusBadRequest, "limit must be an integer between 1 and 365")
			return
		}
		limit = parsed
	}

	snapshots, err := s.snapshots.ListSnapshots(r.Context(), limit)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list snapshots")
		respondError(w, http.StatusInternalServerError, "failed to list snapshots")
		return
	}
	if snapshots == nil {
		snapshots = []models.SnapshotSummary{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}
