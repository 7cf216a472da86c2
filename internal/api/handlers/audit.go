package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/showaudit/internal/audit"
	"github.com/wonny/showaudit/internal/scheduler"
	"github.com/wonny/showaudit/pkg/logger"
)

// AuditRunner is the part of audit.Runner the handler needs
type AuditRunner interface {
	Start(ctx context.Context, shows []string) error
	Latest() *audit.Report
	Running() bool
}

// JobStatsProvider reports scheduled job statistics
type JobStatsProvider interface {
	GetJobStats() map[string]scheduler.JobStats
}

// HistoryStore reads stored audit runs
type HistoryStore interface {
	Recent(ctx context.Context, limit int) ([]audit.RunSummary, error)
	Get(ctx context.Context, id int64) (*audit.Report, error)
}

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// AuditHandler handles audit API endpoints
// ⭐ SSOT: audit API handlers live here
type AuditHandler struct {
	runner  AuditRunner
	jobs    JobStatsProvider
	history HistoryStore
	logger  *logger.Logger
}

// NewAuditHandler creates a new audit handler. jobs may be nil when the scheduler is off.
func NewAuditHandler(runner AuditRunner, jobs JobStatsProvider, log *logger.Logger) *AuditHandler {
	return &AuditHandler{
		runner: runner,
		jobs:   jobs,
		logger: log,
	}
}

// WithHistory enables the run history endpoints
func (h *AuditHandler) WithHistory(history HistoryStore) *AuditHandler {
	h.history = history
	return h
}

// LatestResponse wraps the latest report with the run state
type LatestResponse struct {
	Running bool          `json:"running"`
	Report  *audit.Report `json:"report"`
}

// GetLatest returns the report of the last finished audit
// GET /api/audit/latest
func (h *AuditHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	report := h.runner.Latest()
	if report == nil && !h.runner.Running() {
		respondError(w, http.StatusNotFound, "No audit has run yet")
		return
	}

	respondJSON(w, http.StatusOK, LatestResponse{
		Running: h.runner.Running(),
		Report:  report,
	})
}

// RunRequest selects the shows to audit; empty means every production
type RunRequest struct {
	Shows []string `json:"shows"`
}

// Run starts an audit in the background
// POST /api/audit/run
func (h *AuditHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	shows := make([]string, 0, len(req.Shows))
	for _, s := range req.Shows {
		if s = strings.TrimSpace(s); s != "" {
			shows = append(shows, s)
		}
	}

	// the run outlives the request
	if err := h.runner.Start(context.Background(), shows); err != nil {
		if errors.Is(err, audit.ErrAlreadyRunning) {
			respondError(w, http.StatusConflict, "Audit already running")
			return
		}
		h.logger.WithError(err).Error("Failed to start audit")
		respondError(w, http.StatusInternalServerError, "Failed to start audit")
		return
	}

	h.logger.WithField("shows", shows).Info("Audit triggered")
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "started",
		"shows":  shows,
	})
}

// GetJobs returns scheduled job statistics
// GET /api/audit/jobs
func (h *AuditHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		respondJSON(w, http.StatusOK, map[string]scheduler.JobStats{})
		return
	}
	respondJSON(w, http.StatusOK, h.jobs.GetJobStats())
}

// GetHistory lists stored runs, newest first
// GET /api/audit/history?limit=20
func (h *AuditHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondError(w, http.StatusNotFound, "Run history is not enabled")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	runs, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list audit runs")
		respondError(w, http.StatusInternalServerError, "Failed to list audit runs")
		return
	}

	respondJSON(w, http.StatusOK, runs)
}

// GetRun returns the full report of one stored run
// GET /api/audit/history/{id}
func (h *AuditHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondError(w, http.StatusNotFound, "Run history is not enabled")
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid run id")
		return
	}

	report, err := h.history.Get(r.Context(), id)
	if errors.Is(err, audit.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "Audit run not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("run_id", id).Error("Failed to load audit run")
		respondError(w, http.StatusInternalServerError, "Failed to load audit run")
		return
	}

	respondJSON(w, http.StatusOK, report)
}
