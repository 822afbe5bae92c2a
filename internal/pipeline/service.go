package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/internal/store"
	"go.uber.org/zap"
)

// WorkflowRepo persists per-(candidate, job) workflow bookkeeping.
type WorkflowRepo interface {
	GetWorkflowState(ctx context.Context, candidateID, jobID string) (*models.WorkflowState, error)
	SaveWorkflowState(ctx context.Context, w *models.WorkflowState) error
	DeleteWorkflowState(ctx context.Context, candidateID, jobID string) error
}

// Service applies stage moves and workflow updates on top of the candidate
// store. The workflow repo is optional: without it, stage moves still work
// and the bookkeeping operations report an error.
type Service struct {
	candidates store.CandidateStore
	workflows  WorkflowRepo
	logger     *zap.Logger
}

func NewService(candidates store.CandidateStore, workflows WorkflowRepo, logger *zap.Logger) (*Service, error) {
	if candidates == nil {
		return nil, fmt.Errorf("candidate store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{candidates: candidates, workflows: workflows, logger: logger}, nil
}

// UpdateStage moves one candidate to the given stage for a job. Unknown
// stage identifiers are rejected; moves outside the recommended graph are
// applied but logged as irregular. Terminal moves record the decision in
// the workflow state.
func (s *Service) UpdateStage(ctx context.Context, candidateID, jobID, stage string) (bool, error) {
	target, err := ParseStage(stage)
	if err != nil {
		return false, err
	}

	view, err := s.candidates.GetCandidateScoreForJob(ctx, candidateID, jobID)
	if err != nil {
		return false, err
	}
	if view != nil && view.PipelineStage != "" {
		if current, err := ParseStage(view.PipelineStage); err == nil && !current.Recommended(target) {
			s.logger.Warn("irregular stage transition",
				zap.String("candidate_id", candidateID),
				zap.String("job_id", jobID),
				zap.String("from", string(current)),
				zap.String("to", string(target)),
			)
		}
	}

	ok, err := s.candidates.UpdateCandidatePipelineStage(ctx, candidateID, jobID, string(target))
	if err != nil || !ok {
		return ok, err
	}

	if target.Terminal() && s.workflows != nil {
		if err := s.recordDecision(ctx, candidateID, jobID, target); err != nil {
			s.logger.Warn("failed to record pipeline decision",
				zap.String("candidate_id", candidateID),
				zap.String("job_id", jobID),
				zap.Error(err),
			)
		}
	}
	return true, nil
}

func (s *Service) recordDecision(ctx context.Context, candidateID, jobID string, stage Stage) error {
	w, err := s.workflows.GetWorkflowState(ctx, candidateID, jobID)
	if err != nil {
		return err
	}
	if w == nil {
		w = &models.WorkflowState{CandidateID: candidateID, JobID: jobID}
	}
	w.Decision = string(stage)
	return s.workflows.SaveWorkflowState(ctx, w)
}

// BatchUpdateStages moves several candidates at once. Ids that do not
// resolve are skipped; the count of applied moves is returned.
func (s *Service) BatchUpdateStages(ctx context.Context, jobID string, candidateIDs []string, stage string) (int, error) {
	target, err := ParseStage(stage)
	if err != nil {
		return 0, err
	}
	return s.candidates.BatchUpdateCandidateStages(ctx, jobID, candidateIDs, string(target))
}

// UpdateAIAnalysis merges the provided fields into the candidate's score
// entry for the job. Idempotent and independent of the stage.
func (s *Service) UpdateAIAnalysis(ctx context.Context, candidateID, jobID string, analysis models.AIAnalysis) (bool, error) {
	return s.candidates.UpdateCandidateAIAnalysis(ctx, candidateID, jobID, analysis)
}

// AddMessage appends a message to the conversation for one pair and clears
// any saved draft with the same content. The stored message gets a fresh id
// and timestamp.
func (s *Service) AddMessage(ctx context.Context, candidateID, jobID, from, content string, aiDrafted bool) (*models.ConversationMessage, error) {
	if from != models.MessageFromFounder && from != models.MessageFromCandidate {
		return nil, fmt.Errorf("message sender must be founder or candidate, got %q", from)
	}

	msg := models.ConversationMessage{
		ID:        uuid.NewString(),
		From:      from,
		Content:   content,
		Timestamp: time.Now().UTC(),
		AIDrafted: aiDrafted,
	}
	ok, err := s.candidates.AddMessageToConversation(ctx, candidateID, jobID, msg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	if s.workflows != nil {
		w, err := s.workflows.GetWorkflowState(ctx, candidateID, jobID)
		if err == nil && w != nil && w.DraftMessage == content {
			w.DraftMessage = ""
			if err := s.workflows.SaveWorkflowState(ctx, w); err != nil {
				s.logger.Warn("failed to clear sent draft", zap.String("candidate_id", candidateID), zap.Error(err))
			}
		}
	}
	return &msg, nil
}

// SaveDraft stores an outreach draft on the pair's workflow state.
func (s *Service) SaveDraft(ctx context.Context, candidateID, jobID, draft string) error {
	return s.mutateWorkflow(ctx, candidateID, jobID, func(w *models.WorkflowState) {
		w.DraftMessage = draft
	})
}

// CompleteStep marks a checklist step done and advances the current step.
func (s *Service) CompleteStep(ctx context.Context, candidateID, jobID string, step int) error {
	if step < 0 {
		return fmt.Errorf("step index must be non-negative, got %d", step)
	}
	return s.mutateWorkflow(ctx, candidateID, jobID, func(w *models.WorkflowState) {
		w.CompleteStep(step)
	})
}

// Schedule records an upcoming call or interview on the workflow state.
func (s *Service) Schedule(ctx context.Context, candidateID, jobID string, at time.Time) error {
	return s.mutateWorkflow(ctx, candidateID, jobID, func(w *models.WorkflowState) {
		t := at.UTC()
		w.ScheduledAt = &t
	})
}

// Workflow returns the bookkeeping for one pair, nil when none exists.
func (s *Service) Workflow(ctx context.Context, candidateID, jobID string) (*models.WorkflowState, error) {
	if s.workflows == nil {
		return nil, fmt.Errorf("workflow store not configured")
	}
	return s.workflows.GetWorkflowState(ctx, candidateID, jobID)
}

func (s *Service) mutateWorkflow(ctx context.Context, candidateID, jobID string, fn func(*models.WorkflowState)) error {
	if s.workflows == nil {
		return fmt.Errorf("workflow store not configured")
	}
	w, err := s.workflows.GetWorkflowState(ctx, candidateID, jobID)
	if err != nil {
		return err
	}
	if w == nil {
		w = &models.WorkflowState{CandidateID: candidateID, JobID: jobID}
	}
	fn(w)
	return s.workflows.SaveWorkflowState(ctx, w)
}
