// Package store defines the persistence contracts for jobs and candidates.
// The two concerns are deliberately separate interfaces: the flat-file
// backend implements both, while the Elasticsearch backend implements only
// CandidateStore and jobs stay on the file store regardless of which
// candidate backend is active.
//
// Conventions shared by every implementation:
//
//   - Not-found lookups return (nil, nil) or (false, nil); errors are
//     reserved for real storage failures. A missing data file or index is
//     "no data yet", not an error.
//   - A candidate holds at most one ScoreEntry per job id. Mutating
//     operations get-or-create the entry rather than appending duplicates.
//   - List operations for a job silently exclude candidates that have no
//     entry for that job.
package store

import (
	"context"

	"github.com/hireloop/hireloop/internal/models"
)

// JobStore persists hiring requisitions.
type JobStore interface {
	CreateJob(ctx context.Context, job *models.Job) error
	GetJobByID(ctx context.Context, id string) (*models.Job, error)
	UpdateJob(ctx context.Context, job *models.Job) error
	ListJobs(ctx context.Context) ([]models.Job, error)
}

// CandidateStore persists candidates and their nested per-job score entries.
type CandidateStore interface {
	// UpsertCandidates writes the given candidates, replacing any existing
	// records with the same id.
	UpsertCandidates(ctx context.Context, candidates []models.Candidate) error

	GetCandidateByID(ctx context.Context, id string) (*models.Candidate, error)

	// GetCandidatesByJobID returns one flattened view per candidate that has
	// a score entry for the job.
	GetCandidatesByJobID(ctx context.Context, jobID string) ([]models.CandidateScoreView, error)

	// GetCandidateScoreForJob returns the flattened view for one candidate,
	// or nil when either the candidate or the entry does not exist.
	GetCandidateScoreForJob(ctx context.Context, candidateID, jobID string) (*models.CandidateScoreView, error)

	// UpdateCandidatePipelineStage moves the candidate's entry for the job
	// to the given stage, creating the entry when absent. Returns false when
	// the candidate does not exist.
	UpdateCandidatePipelineStage(ctx context.Context, candidateID, jobID, stage string) (bool, error)

	// BatchUpdateCandidateStages applies the same stage move to every listed
	// candidate and returns the number updated, silently skipping ids that
	// do not resolve.
	BatchUpdateCandidateStages(ctx context.Context, jobID string, candidateIDs []string, stage string) (int, error)

	// AddMessageToConversation appends a message to the entry's conversation
	// history. Returns false when the candidate does not exist.
	AddMessageToConversation(ctx context.Context, candidateID, jobID string, msg models.ConversationMessage) (bool, error)

	// UpdateCandidateAIAnalysis merges the non-nil analysis fields into the
	// entry. Idempotent for identical payloads. Returns false when the
	// candidate does not exist.
	UpdateCandidateAIAnalysis(ctx context.Context, candidateID, jobID string, analysis models.AIAnalysis) (bool, error)
}
