package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/internal/pipeline"
	"github.com/hireloop/hireloop/internal/store"
	"go.uber.org/zap"
)

type CandidatesHandler struct {
	candidates store.CandidateStore
	pipeline   *pipeline.Service
}

func NewCandidatesHandler(candidates store.CandidateStore, svc *pipeline.Service) *CandidatesHandler {
	return &CandidatesHandler{candidates: candidates, pipeline: svc}
}

// ListByJob returns the flattened score views for every candidate that has
// an entry for the job.
func (h *CandidatesHandler) ListByJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	views, err := h.candidates.GetCandidatesByJobID(r.Context(), jobID)
	if err != nil {
		logger.Error("failed to list candidates", zap.String("job_id", jobID), zap.Error(err))
		http.Error(w, "failed to list candidates", http.StatusInternalServerError)
		return
	}
	if views == nil {
		views = []models.CandidateScoreView{}
	}
	writeJSON(w, views, http.StatusOK)
}

// GetScore returns one candidate's view for the job in the query string.
func (h *CandidatesHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	candidateID := mux.Vars(r)["id"]
	jobID := r.URL.Query().Get("job_id")
	if jobID == "" {
		http.Error(w, "job_id is required", http.StatusBadRequest)
		return
	}

	view, err := h.candidates.GetCandidateScoreForJob(r.Context(), candidateID, jobID)
	if err != nil {
		logger.Error("failed to load score", zap.String("candidate_id", candidateID), zap.Error(err))
		http.Error(w, "failed to load score", http.StatusInternalServerError)
		return
	}
	if view == nil {
		http.Error(w, "score not found", http.StatusNotFound)
		return
	}
	writeJSON(w, view, http.StatusOK)
}

type putStageRequest struct {
	JobID string `json:"job_id"`
	Stage string `json:"stage"`
}

func (h *CandidatesHandler) UpdateStage(w http.ResponseWriter, r *http.Request) {
	candidateID := mux.Vars(r)["id"]

	var req putStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.JobID == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	ok, err := h.pipeline.UpdateStage(r.Context(), candidateID, req.JobID, req.Stage)
	if err != nil {
		var unknown *pipeline.ErrUnknownStage
		if errors.As(err, &unknown) {
			http.Error(w, unknown.Error(), http.StatusBadRequest)
			return
		}
		logger.Error("failed to update stage", zap.String("candidate_id", candidateID), zap.Error(err))
		http.Error(w, "failed to update stage", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "candidate not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]bool{"updated": true}, http.StatusOK)
}

type postBatchStagesRequest struct {
	CandidateIDs []string `json:"candidate_ids"`
	Stage        string   `json:"stage"`
}

func (h *CandidatesHandler) BatchUpdateStages(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	var req postBatchStagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.CandidateIDs) == 0 {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	n, err := h.pipeline.BatchUpdateStages(r.Context(), jobID, req.CandidateIDs, req.Stage)
	if err != nil {
		var unknown *pipeline.ErrUnknownStage
		if errors.As(err, &unknown) {
			http.Error(w, unknown.Error(), http.StatusBadRequest)
			return
		}
		logger.Error("batch stage update failed", zap.String("job_id", jobID), zap.Error(err))
		http.Error(w, "batch stage update failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]int{"updated": n}, http.StatusOK)
}

type postMessageRequest struct {
	JobID     string `json:"job_id"`
	From      string `json:"from"`
	Content   string `json:"content"`
	AIDrafted bool   `json:"aiDrafted"`
}

func (h *CandidatesHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	candidateID := mux.Vars(r)["id"]

	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.JobID == "" || req.Content == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	msg, err := h.pipeline.AddMessage(r.Context(), candidateID, req.JobID, req.From, req.Content, req.AIDrafted)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if msg == nil {
		http.Error(w, "candidate not found", http.StatusNotFound)
		return
	}
	writeJSON(w, msg, http.StatusCreated)
}

func (h *CandidatesHandler) UpdateAIAnalysis(w http.ResponseWriter, r *http.Request) {
	candidateID := mux.Vars(r)["id"]

	var req struct {
		JobID string `json:"job_id"`
		models.AIAnalysis
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.JobID == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	ok, err := h.pipeline.UpdateAIAnalysis(r.Context(), candidateID, req.JobID, req.AIAnalysis)
	if err != nil {
		logger.Error("failed to update analysis", zap.String("candidate_id", candidateID), zap.Error(err))
		http.Error(w, "failed to update analysis", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "candidate not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]bool{"updated": true}, http.StatusOK)
}

// GetWorkflow returns the per-(candidate, job) bookkeeping.
func (h *CandidatesHandler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	candidateID := mux.Vars(r)["id"]
	jobID := r.URL.Query().Get("job_id")
	if jobID == "" {
		http.Error(w, "job_id is required", http.StatusBadRequest)
		return
	}

	state, err := h.pipeline.Workflow(r.Context(), candidateID, jobID)
	if err != nil {
		logger.Error("failed to load workflow", zap.String("candidate_id", candidateID), zap.Error(err))
		http.Error(w, "failed to load workflow", http.StatusInternalServerError)
		return
	}
	if state == nil {
		http.Error(w, "workflow not found", http.StatusNotFound)
		return
	}
	writeJSON(w, state, http.StatusOK)
}

type putDraftRequest struct {
	JobID string `json:"job_id"`
	Draft string `json:"draft"`
}

func (h *CandidatesHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	candidateID := mux.Vars(r)["id"]

	var req putDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.JobID == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := h.pipeline.SaveDraft(r.Context(), candidateID, req.JobID, req.Draft); err != nil {
		logger.Error("failed to save draft", zap.String("candidate_id", candidateID), zap.Error(err))
		http.Error(w, "failed to save draft", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]bool{"saved": true}, http.StatusOK)
}

type postStepRequest struct {
	JobID string `json:"job_id"`
	Step  int    `json:"step"`
}

func (h *CandidatesHandler) CompleteStep(w http.ResponseWriter, r *http.Request) {
	candidateID := mux.Vars(r)["id"]

	var req postStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.JobID == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := h.pipeline.CompleteStep(r.Context(), candidateID, req.JobID, req.Step); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]bool{"completed": true}, http.StatusOK)
}

type putScheduleRequest struct {
	JobID string    `json:"job_id"`
	At    time.Time `json:"at"`
}

func (h *CandidatesHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	candidateID := mux.Vars(r)["id"]

	var req putScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.JobID == "" || req.At.IsZero() {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := h.pipeline.Schedule(r.Context(), candidateID, req.JobID, req.At); err != nil {
		logger.Error("failed to schedule", zap.String("candidate_id", candidateID), zap.Error(err))
		http.Error(w, "failed to schedule", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]bool{"scheduled": true}, http.StatusOK)
}
