// Path: internal/delivery/rest/handlers.go
package rest

import (
	"errors"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"rank-sync/internal/domain"
	"rank-sync/internal/feed"
	"rank-sync/internal/logging"
	"rank-sync/internal/service"
	"rank-sync/internal/storage"
)

// artifactReader reads the JSON artifacts written by a sync run.
type artifactReader interface {
	ReadJSON(rel string, v any) error
}

// runReporter exposes the outcome of the last run of this process.
type runReporter interface {
	LastRun() *service.RunSummary
}

// DatasetHandlers serves persisted aggregates and datasets.
type DatasetHandlers struct {
	artifacts artifactReader
	runs      runReporter
}

// NewDatasetHandlers creates a new handler struct. runs may be nil.
func NewDatasetHandlers(artifacts artifactReader, runs runReporter) *DatasetHandlers {
	return &DatasetHandlers{artifacts: artifacts, runs: runs}
}

// GetLatest serves the global aggregate of the most recent run.
// Path: /latest
func (h *DatasetHandlers) GetLatest(w http.ResponseWriter, r *http.Request) {
	var agg domain.Aggregate
	h.serveArtifact(w, r, service.LatestFile, &agg)
}

// GetDataset serves one dataset, the latest one unless ?date= is given.
// Path: /datasets/{region}/{category}/{feed}
func (h *DatasetHandlers) GetDataset(w http.ResponseWriter, r *http.Request) {
	region := strings.ToLower(chi.URLParam(r, "region"))
	category := strings.ToLower(chi.URLParam(r, "category"))
	feedType := feed.Normalize(chi.URLParam(r, "feed"))
	for _, seg := range []string{region, category, feedType} {
		if !domain.ValidSegment(seg) {
			writeError(w, http.StatusBadRequest, "invalid path segment")
			return
		}
	}

	file := service.LatestFile
	if date := r.URL.Query().Get("date"); date != "" {
		if _, err := time.Parse(domain.DateLayout, date); err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		file = date + ".json"
	}

	var ds domain.Dataset
	h.serveArtifact(w, r, path.Join("regions", region, category, feedType, file), &ds)
}

// Health reports liveness and the last run summary.
// Path: /healthz
func (h *DatasetHandlers) Health(w http.ResponseWriter, _ *http.Request) {
	resp := struct {
		Status  string              `json:"status"`
		LastRun *service.RunSummary `json:"lastRun"`
	}{Status: "ok"}
	if h.runs != nil {
		resp.LastRun = h.runs.LastRun()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *DatasetHandlers) serveArtifact(w http.ResponseWriter, r *http.Request, rel string, v any) {
	if err := h.artifacts.ReadJSON(rel, v); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		logging.Error().Err(err).Str("path", r.URL.Path).Msg("Failed to read artifact")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
