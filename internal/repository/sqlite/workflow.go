package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hireloop/hireloop/internal/models"
)

// GetWorkflowState returns the bookkeeping for one (candidate, job) pair,
// or nil when none has been recorded yet.
func (r *Repo) GetWorkflowState(ctx context.Context, candidateID, jobID string) (*models.WorkflowState, error) {
	q := `SELECT completed_steps, current_step, draft_message, scheduled_at, decision, updated
		FROM workflow_states WHERE candidate_id = ? AND job_id = ?`
	row := r.conn.QueryRow(ctx, q, candidateID, jobID)

	var (
		stepsJSON   string
		currentStep int
		draft       string
		scheduledAt sql.NullInt64
		decision    string
		updated     int64
	)
	if err := row.Scan(&stepsJSON, &currentStep, &draft, &scheduledAt, &decision, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get workflow state: %w", err)
	}

	w := &models.WorkflowState{
		CandidateID:  candidateID,
		JobID:        jobID,
		CurrentStep:  currentStep,
		DraftMessage: draft,
		Decision:     decision,
		Updated:      time.UnixMilli(updated).UTC(),
	}
	if err := json.Unmarshal([]byte(stepsJSON), &w.CompletedSteps); err != nil {
		return nil, fmt.Errorf("decode completed steps: %w", err)
	}
	if scheduledAt.Valid {
		t := time.UnixMilli(scheduledAt.Int64).UTC()
		w.ScheduledAt = &t
	}
	return w, nil
}

// SaveWorkflowState upserts the full state for its composite key.
func (r *Repo) SaveWorkflowState(ctx context.Context, w *models.WorkflowState) error {
	if w == nil {
		return fmt.Errorf("workflow state is nil")
	}
	if w.CandidateID == "" || w.JobID == "" {
		return fmt.Errorf("workflow state needs candidate and job ids")
	}

	steps := w.CompletedSteps
	if steps == nil {
		steps = []int{}
	}
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("encode completed steps: %w", err)
	}

	var scheduledAt any
	if w.ScheduledAt != nil {
		scheduledAt = w.ScheduledAt.UTC().UnixMilli()
	}

	q := `INSERT INTO workflow_states
		(candidate_id, job_id, completed_steps, current_step, draft_message, scheduled_at, decision, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(candidate_id, job_id) DO UPDATE SET
		completed_steps = excluded.completed_steps,
		current_step = excluded.current_step,
		draft_message = excluded.draft_message,
		scheduled_at = excluded.scheduled_at,
		decision = excluded.decision,
		updated = excluded.updated`
	if _, err := r.conn.Exec(ctx, q, w.CandidateID, w.JobID, string(stepsJSON), w.CurrentStep, w.DraftMessage, scheduledAt, w.Decision, now()); err != nil {
		return fmt.Errorf("save workflow state: %w", err)
	}
	return nil
}

// DeleteWorkflowState removes the state for one pair. Deleting an absent
// state is not an error.
func (r *Repo) DeleteWorkflowState(ctx context.Context, candidateID, jobID string) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM workflow_states WHERE candidate_id = ? AND job_id = ?`, candidateID, jobID)
	return err
}

// ListWorkflowStatesByJob returns every recorded state for a job, used by
// pipeline summaries.
func (r *Repo) ListWorkflowStatesByJob(ctx context.Context, jobID string) ([]models.WorkflowState, error) {
	q := `SELECT candidate_id, completed_steps, current_step, draft_message, scheduled_at, decision, updated
		FROM workflow_states WHERE job_id = ? ORDER BY candidate_id`
	rows, err := r.conn.Query(ctx, q, jobID)
	if err != nil {
		return nil, fmt.Errorf("list workflow states: %w", err)
	}
	defer rows.Close()

	var out []models.WorkflowState
	for rows.Next() {
		var (
			w           models.WorkflowState
			stepsJSON   string
			scheduledAt sql.NullInt64
			updated     int64
		)
		if err := rows.Scan(&w.CandidateID, &stepsJSON, &w.CurrentStep, &w.DraftMessage, &scheduledAt, &w.Decision, &updated); err != nil {
			return nil, fmt.Errorf("scan workflow state: %w", err)
		}
		w.JobID = jobID
		w.Updated = time.UnixMilli(updated).UTC()
		if err := json.Unmarshal([]byte(stepsJSON), &w.CompletedSteps); err != nil {
			return nil, fmt.Errorf("decode completed steps: %w", err)
		}
		if scheduledAt.Valid {
			t := time.UnixMilli(scheduledAt.Int64).UTC()
			w.ScheduledAt = &t
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
