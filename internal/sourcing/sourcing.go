// Package sourcing pulls raw profiles from a search provider, scores them
// against a job and persists the ranked results as candidates.
package sourcing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/internal/scoring"
	"github.com/hireloop/hireloop/internal/store"
	"go.uber.org/zap"
)

// Profile is one raw search result from a profile-search provider, before
// it is mapped into the candidate schema.
type Profile struct {
	Name            string
	Email           string
	Headline        string
	GitHub          string
	OpenToWork      bool
	Role            string
	Skills          []string
	ExperienceYears int
	Location        string

	// Public OSS activity, zero when the provider has none.
	PublicRepos           int
	TotalStars            int
	DaysSinceLastActivity int
}

// Provider searches an external people-database for profiles matching the
// job's requirements.
type Provider interface {
	SearchProfiles(ctx context.Context, query models.Keywords, limit int) ([]Profile, error)
}

// Orchestrator runs the sourcing flow for one job: search, map, score,
// rank, persist. A failing (or absent) provider degrades to the built-in
// mock so sourcing always yields a pool.
type Orchestrator struct {
	provider   Provider
	fallback   Provider
	candidates store.CandidateStore
	logger     *zap.Logger
	now        func() time.Time
}

func NewOrchestrator(provider Provider, candidates store.CandidateStore, logger *zap.Logger) (*Orchestrator, error) {
	if candidates == nil {
		return nil, fmt.Errorf("candidate store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		provider:   provider,
		fallback:   NewMockProvider(),
		candidates: candidates,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// SourceForJob fetches profiles for the job's extracted keywords, scores
// each against the job, persists the pool and returns it ranked by score
// descending. Every returned candidate carries exactly one score entry, in
// stage "new", with outreach drafts attached.
func (o *Orchestrator) SourceForJob(ctx context.Context, job *models.Job, limit int) ([]models.CandidateScoreView, error) {
	if job == nil {
		return nil, fmt.Errorf("job is nil")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	profiles := o.search(ctx, job.ExtractedKeywords, limit)
	if len(profiles) == 0 {
		return nil, nil
	}

	candidates := make([]models.Candidate, 0, len(profiles))
	for i := range profiles {
		candidates = append(candidates, o.mapProfile(&profiles[i], job))
	}

	// Scoring is a synchronous pass over the fetched batch; the pool for
	// one search is small enough that parallelizing buys nothing.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Scores[0].Score > candidates[j].Scores[0].Score
	})

	if err := o.candidates.UpsertCandidates(ctx, candidates); err != nil {
		return nil, fmt.Errorf("persist sourced candidates: %w", err)
	}

	views := make([]models.CandidateScoreView, len(candidates))
	for i := range candidates {
		views[i] = models.NewCandidateScoreView(&candidates[i], &candidates[i].Scores[0])
	}
	o.logger.Info("sourced candidates",
		zap.String("job_id", job.ID),
		zap.Int("count", len(views)),
	)
	return views, nil
}

// RescorePool recomputes the weight-driven pool score for every candidate
// already evaluated against the job, persists the refreshed entries and
// returns the pool ranked by the new scores. Run after the job's keywords
// or ratios change.
func (o *Orchestrator) RescorePool(ctx context.Context, job *models.Job) ([]models.CandidateScoreView, error) {
	if job == nil {
		return nil, fmt.Errorf("job is nil")
	}

	views, err := o.candidates.GetCandidatesByJobID(ctx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("load pool for job %s: %w", job.ID, err)
	}
	if len(views) == 0 {
		return nil, nil
	}

	updated := make([]models.Candidate, 0, len(views))
	for i := range views {
		cand, err := o.candidates.GetCandidateByID(ctx, views[i].CandidateID)
		if err != nil {
			return nil, err
		}
		if cand == nil {
			continue
		}
		entry := cand.EnsureScoreForJob(job.ID)
		entry.Score, entry.Breakdown = scoring.PoolScore(cand, job.ExtractedKeywords, job.ScoringRatios)
		updated = append(updated, *cand)
	}

	sort.SliceStable(updated, func(i, j int) bool {
		a := updated[i].ScoreForJob(job.ID)
		b := updated[j].ScoreForJob(job.ID)
		return a.Score > b.Score
	})

	if err := o.candidates.UpsertCandidates(ctx, updated); err != nil {
		return nil, fmt.Errorf("persist rescored pool: %w", err)
	}

	out := make([]models.CandidateScoreView, len(updated))
	for i := range updated {
		out[i] = models.NewCandidateScoreView(&updated[i], updated[i].ScoreForJob(job.ID))
	}
	o.logger.Info("rescored pool", zap.String("job_id", job.ID), zap.Int("count", len(out)))
	return out, nil
}

const defaultSearchLimit = 20

func (o *Orchestrator) search(ctx context.Context, query models.Keywords, limit int) []Profile {
	if o.provider != nil {
		profiles, err := o.provider.SearchProfiles(ctx, query, limit)
		if err == nil {
			return profiles
		}
		o.logger.Warn("profile search provider failed, using mock results", zap.Error(err))
	}

	profiles, err := o.fallback.SearchProfiles(ctx, query, limit)
	if err != nil {
		// The mock provider cannot fail; guard anyway.
		o.logger.Error("mock provider failed", zap.Error(err))
		return nil
	}
	return profiles
}

// mapProfile converts one raw profile into a schema-conformant candidate
// with its initial score entry populated.
func (o *Orchestrator) mapProfile(p *Profile, job *models.Job) models.Candidate {
	cand := models.Candidate{
		ID:         uuid.NewString(),
		Name:       p.Name,
		Email:      p.Email,
		Bio:        p.Headline,
		GitHub:     p.GitHub,
		OpenToWork: p.OpenToWork,
		Keywords: models.Keywords{
			Role:               p.Role,
			Skills:             p.Skills,
			MinExperienceYears: p.ExperienceYears,
			Location:           p.Location,
		},
		CreatedAt: o.now(),
	}
	if p.PublicRepos > 0 || p.TotalStars > 0 {
		cand.Enrichment = &models.Enrichment{
			PublicRepos:           p.PublicRepos,
			TotalStars:            p.TotalStars,
			DaysSinceLastActivity: p.DaysSinceLastActivity,
			LastUpdated:           o.now(),
		}
	}

	score, breakdown := scoring.SourcingScore(&cand, job.ExtractedKeywords)
	outreach := BuildOutreach(p.Name, job)
	cand.Scores = []models.ScoreEntry{{
		JobID:         job.ID,
		Score:         score,
		Breakdown:     breakdown,
		Outreach:      &outreach,
		PipelineStage: "new",
	}}
	return cand
}
