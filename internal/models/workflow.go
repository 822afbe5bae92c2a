package models

import "time"

// WorkflowState is the per-(candidate, job) bookkeeping that rides alongside
// the pipeline stage: which checklist steps are done, where the operator is,
// a saved outreach draft, and scheduling/decision metadata. It is keyed by
// the composite pair so a candidate evaluated against two jobs at once keeps
// two independent states.
type WorkflowState struct {
	CandidateID    string     `json:"candidate_id"`
	JobID          string     `json:"job_id"`
	CompletedSteps []int      `json:"completed_steps"`
	CurrentStep    int        `json:"current_step"`
	DraftMessage   string     `json:"draft_message,omitempty"`
	ScheduledAt    *time.Time `json:"scheduled_at,omitempty"`
	Decision       string     `json:"decision,omitempty"`
	Updated        time.Time  `json:"updated"`
}

// StepCompleted reports whether the given step index is in the completed set.
func (w *WorkflowState) StepCompleted(step int) bool {
	for _, s := range w.CompletedSteps {
		if s == step {
			return true
		}
	}
	return false
}

// CompleteStep adds the step to the completed set once and advances the
// current step past it.
func (w *WorkflowState) CompleteStep(step int) {
	if !w.StepCompleted(step) {
		w.CompletedSteps = append(w.CompletedSteps, step)
	}
	if step >= w.CurrentStep {
		w.CurrentStep = step + 1
	}
}
