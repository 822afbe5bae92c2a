// Package filestore is the flat-file storage backend. The entire job list
// and candidate list live in two indented-JSON files that are read fully,
// mutated in memory, and written back atomically on every change.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/internal/store"
	"go.uber.org/zap"
)

const (
	jobsFile       = "jobs.json"
	candidatesFile = "candidates.json"
)

// Store implements both store.JobStore and store.CandidateStore on top of
// two JSON files. A store-level mutex serializes every read-modify-write
// cycle so concurrent requests cannot tear a file.
type Store struct {
	dir    string
	mu     sync.Mutex
	logger *zap.Logger
}

var (
	_ store.JobStore       = (*Store)(nil)
	_ store.CandidateStore = (*Store)(nil)
)

// New creates the data directory when absent and returns the store.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// readFile decodes a whole collection file. A missing file is "no data
// yet" and yields an empty collection; any other failure propagates so
// corruption is not masked as emptiness.
func readFile[T any](path string) ([]T, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	var out []T
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return out, nil
}

// writeFile writes the collection as indented JSON via a temp file and
// rename, so readers never observe a partially written file.
func writeFile[T any](path string, items []T) error {
	if items == nil {
		items = []T{}
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *Store) jobsPath() string       { return filepath.Join(s.dir, jobsFile) }
func (s *Store) candidatesPath() string { return filepath.Join(s.dir, candidatesFile) }

// CreateJob appends the job to the jobs file.
func (s *Store) CreateJob(ctx context.Context, job *models.Job) error {
	if job == nil {
		return fmt.Errorf("job is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := readFile[models.Job](s.jobsPath())
	if err != nil {
		return err
	}
	for _, j := range jobs {
		if j.ID == job.ID {
			return fmt.Errorf("job %s already exists", job.ID)
		}
	}
	jobs = append(jobs, *job)
	return writeFile(s.jobsPath(), jobs)
}

// GetJobByID returns the job, or nil when unknown.
func (s *Store) GetJobByID(ctx context.Context, id string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := readFile[models.Job](s.jobsPath())
	if err != nil {
		return nil, err
	}
	for i := range jobs {
		if jobs[i].ID == id {
			return &jobs[i], nil
		}
	}
	return nil, nil
}

// UpdateJob replaces the stored job with the same id.
func (s *Store) UpdateJob(ctx context.Context, job *models.Job) error {
	if job == nil {
		return fmt.Errorf("job is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := readFile[models.Job](s.jobsPath())
	if err != nil {
		return err
	}
	for i := range jobs {
		if jobs[i].ID == job.ID {
			jobs[i] = *job
			return writeFile(s.jobsPath(), jobs)
		}
	}
	return fmt.Errorf("job %s not found", job.ID)
}

// ListJobs returns every stored job.
func (s *Store) ListJobs(ctx context.Context) ([]models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readFile[models.Job](s.jobsPath())
}

// UpsertCandidates writes the given candidates, replacing records that
// share an id and appending the rest.
func (s *Store) UpsertCandidates(ctx context.Context, candidates []models.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := readFile[models.Candidate](s.candidatesPath())
	if err != nil {
		return err
	}

	index := make(map[string]int, len(existing))
	for i, c := range existing {
		index[c.ID] = i
	}
	for _, c := range candidates {
		if i, ok := index[c.ID]; ok {
			existing[i] = c
			continue
		}
		index[c.ID] = len(existing)
		existing = append(existing, c)
	}
	return writeFile(s.candidatesPath(), existing)
}

// GetCandidateByID returns the candidate, or nil when unknown.
func (s *Store) GetCandidateByID(ctx context.Context, id string) (*models.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates, err := readFile[models.Candidate](s.candidatesPath())
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		if candidates[i].ID == id {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

// GetCandidatesByJobID returns one flattened view per candidate holding a
// score entry for the job. Candidates without an entry are excluded, not
// errored.
func (s *Store) GetCandidatesByJobID(ctx context.Context, jobID string) ([]models.CandidateScoreView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates, err := readFile[models.Candidate](s.candidatesPath())
	if err != nil {
		return nil, err
	}

	views := make([]models.CandidateScoreView, 0, len(candidates))
	for i := range candidates {
		if entry := candidates[i].ScoreForJob(jobID); entry != nil {
			views = append(views, models.NewCandidateScoreView(&candidates[i], entry))
		}
	}
	return views, nil
}

// GetCandidateScoreForJob returns one flattened view, or nil when the
// candidate or the entry does not exist.
func (s *Store) GetCandidateScoreForJob(ctx context.Context, candidateID, jobID string) (*models.CandidateScoreView, error) {
	cand, err := s.GetCandidateByID(ctx, candidateID)
	if err != nil || cand == nil {
		return nil, err
	}
	entry := cand.ScoreForJob(jobID)
	if entry == nil {
		return nil, nil
	}
	view := models.NewCandidateScoreView(cand, entry)
	return &view, nil
}

// mutateCandidates runs fn against each resolvable candidate id and writes
// the file back once. Unknown ids are skipped. Returns how many candidates
// were mutated.
func (s *Store) mutateCandidates(candidateIDs []string, fn func(*models.Candidate)) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates, err := readFile[models.Candidate](s.candidatesPath())
	if err != nil {
		return 0, err
	}

	index := make(map[string]int, len(candidates))
	for i, c := range candidates {
		index[c.ID] = i
	}

	updated := 0
	for _, id := range candidateIDs {
		i, ok := index[id]
		if !ok {
			s.logger.Debug("skipping unknown candidate", zap.String("candidate_id", id))
			continue
		}
		fn(&candidates[i])
		updated++
	}
	if updated == 0 {
		return 0, nil
	}
	return updated, writeFile(s.candidatesPath(), candidates)
}

// UpdateCandidatePipelineStage moves the candidate's entry for the job to
// the given stage with get-or-create semantics.
func (s *Store) UpdateCandidatePipelineStage(ctx context.Context, candidateID, jobID, stage string) (bool, error) {
	n, err := s.mutateCandidates([]string{candidateID}, func(c *models.Candidate) {
		c.EnsureScoreForJob(jobID).PipelineStage = stage
	})
	return n == 1, err
}

// BatchUpdateCandidateStages applies one stage move to every listed
// candidate in a single file write.
func (s *Store) BatchUpdateCandidateStages(ctx context.Context, jobID string, candidateIDs []string, stage string) (int, error) {
	return s.mutateCandidates(candidateIDs, func(c *models.Candidate) {
		c.EnsureScoreForJob(jobID).PipelineStage = stage
	})
}

// AddMessageToConversation appends a message to the entry's history.
func (s *Store) AddMessageToConversation(ctx context.Context, candidateID, jobID string, msg models.ConversationMessage) (bool, error) {
	n, err := s.mutateCandidates([]string{candidateID}, func(c *models.Candidate) {
		entry := c.EnsureScoreForJob(jobID)
		entry.ConversationHistory = append(entry.ConversationHistory, msg)
	})
	return n == 1, err
}

// UpdateCandidateAIAnalysis merges the non-nil analysis fields into the
// entry. Re-applying the same payload leaves the entry unchanged.
func (s *Store) UpdateCandidateAIAnalysis(ctx context.Context, candidateID, jobID string, analysis models.AIAnalysis) (bool, error) {
	n, err := s.mutateCandidates([]string{candidateID}, func(c *models.Candidate) {
		entry := c.EnsureScoreForJob(jobID)
		if analysis.FitScore != nil {
			v := *analysis.FitScore
			entry.AIFitScore = &v
		}
		if analysis.Summary != nil {
			entry.AISummary = *analysis.Summary
		}
		if analysis.Recommendation != nil {
			entry.AIRecommendation = *analysis.Recommendation
		}
	})
	return n == 1, err
}
