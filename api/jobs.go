package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/internal/store"
	"go.uber.org/zap"
)

// KeywordExtractor turns a free-text job description into structured
// requirements. It never fails; the extraction chain degrades internally.
type KeywordExtractor interface {
	Extract(ctx context.Context, description, title string) models.Keywords
}

// Sourcer runs the sourcing and pool-ranking flows for one job.
type Sourcer interface {
	SourceForJob(ctx context.Context, job *models.Job, limit int) ([]models.CandidateScoreView, error)
	RescorePool(ctx context.Context, job *models.Job) ([]models.CandidateScoreView, error)
}

type JobsHandler struct {
	jobs      store.JobStore
	extractor KeywordExtractor
	sourcer   Sourcer
}

func NewJobsHandler(jobs store.JobStore, extractor KeywordExtractor, sourcer Sourcer) *JobsHandler {
	return &JobsHandler{jobs: jobs, extractor: extractor, sourcer: sourcer}
}

type postJobRequest struct {
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Company       string                `json:"company,omitempty"`
	ScoringRatios *models.ScoringRatios `json:"scoring_ratios,omitempty"`
}

// defaultRatios weights tech match highest, matching how most pools are
// ranked before the founder tunes the sliders.
var defaultRatios = models.ScoringRatios{TechMatch: 0.5, OSSActivity: 0.3, StartupExperience: 0.2}

// CreateJob registers a requisition and runs keyword extraction on it. The
// job lands in status PROCESSED_KEYWORDS with its requirements populated.
func (h *JobsHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req postJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" || req.Description == "" {
		http.Error(w, "title and description are required", http.StatusBadRequest)
		return
	}

	job := &models.Job{
		ID:                uuid.NewString(),
		Title:             req.Title,
		Description:       req.Description,
		Company:           strings.TrimSpace(req.Company),
		Status:            models.JobStatusProcessedKeywords,
		ExtractedKeywords: h.extractor.Extract(r.Context(), req.Description, req.Title),
		ScoringRatios:     defaultRatios,
		CreatedAt:         time.Now().UTC(),
	}
	if req.ScoringRatios != nil {
		job.ScoringRatios = *req.ScoringRatios
	}

	if err := h.jobs.CreateJob(r.Context(), job); err != nil {
		logger.Error("failed to create job", zap.Error(err))
		http.Error(w, "failed to create job", http.StatusInternalServerError)
		return
	}

	writeJSON(w, job, http.StatusCreated)
}

func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.ListJobs(r.Context())
	if err != nil {
		logger.Error("failed to list jobs", zap.Error(err))
		http.Error(w, "failed to list jobs", http.StatusInternalServerError)
		return
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	writeJSON(w, jobs, http.StatusOK)
}

func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, job, http.StatusOK)
}

type putFiltersRequest struct {
	ExtractedKeywords *models.Keywords      `json:"extracted_keywords,omitempty"`
	ScoringRatios     *models.ScoringRatios `json:"scoring_ratios,omitempty"`
}

// SaveFilters applies the founder's edits to the extracted keywords and
// weights, moving the job to status FILTERS_SAVED.
func (h *JobsHandler) SaveFilters(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJob(w, r)
	if !ok {
		return
	}

	var req putFiltersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.ExtractedKeywords == nil && req.ScoringRatios == nil {
		http.Error(w, "nothing to save", http.StatusBadRequest)
		return
	}

	if req.ExtractedKeywords != nil {
		job.ExtractedKeywords = *req.ExtractedKeywords
	}
	if req.ScoringRatios != nil {
		job.ScoringRatios = *req.ScoringRatios
	}
	job.Status = models.JobStatusFiltersSaved

	if err := h.jobs.UpdateJob(r.Context(), job); err != nil {
		logger.Error("failed to update job", zap.Error(err))
		http.Error(w, "failed to update job", http.StatusInternalServerError)
		return
	}
	writeJSON(w, job, http.StatusOK)
}

type postSourceRequest struct {
	Limit int `json:"limit,omitempty"`
}

// SourceCandidates fetches, scores and persists a candidate pool for the
// job, returning it ranked by score.
func (h *JobsHandler) SourceCandidates(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJob(w, r)
	if !ok {
		return
	}

	var req postSourceRequest
	if r.Body != nil {
		// An empty body means default limit.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	views, err := h.sourcer.SourceForJob(r.Context(), job, req.Limit)
	if err != nil {
		logger.Error("sourcing failed", zap.String("job_id", job.ID), zap.Error(err))
		http.Error(w, "sourcing failed", http.StatusInternalServerError)
		return
	}
	if views == nil {
		views = []models.CandidateScoreView{}
	}
	writeJSON(w, views, http.StatusOK)
}

// RescorePool re-ranks the job's existing candidate pool using the current
// keywords and scoring ratios. Typically called after filters change.
func (h *JobsHandler) RescorePool(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJob(w, r)
	if !ok {
		return
	}

	views, err := h.sourcer.RescorePool(r.Context(), job)
	if err != nil {
		logger.Error("rescore failed", zap.String("job_id", job.ID), zap.Error(err))
		http.Error(w, "rescore failed", http.StatusInternalServerError)
		return
	}
	if views == nil {
		views = []models.CandidateScoreView{}
	}
	writeJSON(w, views, http.StatusOK)
}

func (h *JobsHandler) loadJob(w http.ResponseWriter, r *http.Request) (*models.Job, bool) {
	id := mux.Vars(r)["id"]
	job, err := h.jobs.GetJobByID(r.Context(), id)
	if err != nil {
		logger.Error("failed to load job", zap.String("job_id", id), zap.Error(err))
		http.Error(w, "failed to load job", http.StatusInternalServerError)
		return nil, false
	}
	if job == nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return nil, false
	}
	return job, true
}
