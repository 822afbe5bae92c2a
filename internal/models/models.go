package models

import "time"

// Job statuses follow the requisition lifecycle: keywords are extracted at
// creation time, then the filter-editing flow saves adjusted keywords/ratios.
const (
	JobStatusProcessedKeywords = "PROCESSED_KEYWORDS"
	JobStatusFiltersSaved      = "FILTERS_SAVED"
)

// Keywords is the structured requirement set extracted from a job
// description. The same shape doubles as a candidate's own profile facts
// (what the candidate has rather than what the job requires).
type Keywords struct {
	Role               string   `json:"role"`
	Skills             []string `json:"skills"`
	MinExperienceYears int      `json:"min_experience_years"`
	Location           string   `json:"location"`
}

// ScoringRatios are the per-job weights for the pool-ranking score. They
// are expected to sum to 1.0 but the scorer clamps the result regardless.
type ScoringRatios struct {
	TechMatch         float64 `json:"tech_match"`
	OSSActivity       float64 `json:"oss_activity"`
	StartupExperience float64 `json:"startup_experience"`
}

// StageDef is an optional per-job pipeline stage definition used by the
// presentation layer to render custom boards.
type StageDef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// Job is a hiring requisition.
type Job struct {
	ID                string        `json:"id"`
	Title             string        `json:"title"`
	Description       string        `json:"description"`
	Company           string        `json:"company,omitempty"`
	Status            string        `json:"status"`
	ExtractedKeywords Keywords      `json:"extracted_keywords"`
	ScoringRatios     ScoringRatios `json:"scoring_ratios"`
	PipelineStages    []StageDef    `json:"pipeline_stages,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
}

// Signal is one component of a score breakdown. Order matters: breakdowns
// are emitted in a fixed signal order so the UI and tests can rely on it.
type Signal struct {
	Signal string  `json:"signal"`
	Value  float64 `json:"value"`
	Reason string  `json:"reason"`
}

// Conversation message senders.
const (
	MessageFromFounder   = "founder"
	MessageFromCandidate = "candidate"
)

// ConversationMessage is one outreach exchange with a candidate.
type ConversationMessage struct {
	ID        string    `json:"id"`
	From      string    `json:"from"` // MessageFromFounder or MessageFromCandidate
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	AIDrafted bool      `json:"aiDrafted"`
}

// OutreachMessages holds per-channel first-contact drafts generated at
// sourcing time.
type OutreachMessages struct {
	LinkedIn string `json:"linkedin,omitempty"`
	Email    string `json:"email,omitempty"`
}

// ScoreEntry is the join record between a candidate and a job. A candidate
// holds at most one entry per job id; callers get-or-create rather than
// append duplicates.
type ScoreEntry struct {
	JobID               string                `json:"job_id"`
	Score               int                   `json:"score"`
	Breakdown           []Signal              `json:"breakdown_json"`
	Outreach            *OutreachMessages     `json:"outreach_messages,omitempty"`
	PipelineStage       string                `json:"pipelineStage,omitempty"`
	ConversationHistory []ConversationMessage `json:"conversationHistory,omitempty"`
	AIFitScore          *int                  `json:"aiFitScore,omitempty"`
	AISummary           string                `json:"aiSummary,omitempty"`
	AIRecommendation    string                `json:"aiRecommendation,omitempty"`
}

// Enrichment carries public OSS activity facts pulled for a candidate.
type Enrichment struct {
	PublicRepos           int       `json:"public_repos"`
	TotalStars            int       `json:"total_stars"`
	DaysSinceLastActivity int       `json:"days_since_last_activity"`
	LastUpdated           time.Time `json:"last_updated"`
}

// Candidate is a sourced or seeded profile. Candidates are never deleted by
// the core; archival is a pipeline stage, not a removal.
type Candidate struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Email      string       `json:"email"`
	Bio        string       `json:"bio"`
	GitHub     string       `json:"github,omitempty"`
	OpenToWork bool         `json:"open_to_work"`
	Keywords   Keywords     `json:"keywords"`
	Enrichment *Enrichment  `json:"enrichment,omitempty"`
	Scores     []ScoreEntry `json:"scores"`
	CreatedAt  time.Time    `json:"created_at"`
}

// ScoreForJob returns the candidate's entry for the given job, or nil.
func (c *Candidate) ScoreForJob(jobID string) *ScoreEntry {
	for i := range c.Scores {
		if c.Scores[i].JobID == jobID {
			return &c.Scores[i]
		}
	}
	return nil
}

// EnsureScoreForJob returns the entry for jobID, creating an empty one when
// the candidate has not been evaluated against that job yet. The returned
// pointer aliases the candidate's scores slice.
func (c *Candidate) EnsureScoreForJob(jobID string) *ScoreEntry {
	if e := c.ScoreForJob(jobID); e != nil {
		return e
	}
	c.Scores = append(c.Scores, ScoreEntry{JobID: jobID})
	return &c.Scores[len(c.Scores)-1]
}

// CandidateScoreView flattens one candidate's entry for one job alongside
// the candidate's top-level fields. Optional entry fields are omitted when
// absent rather than serialized as nulls.
type CandidateScoreView struct {
	CandidateID         string                `json:"candidate_id"`
	Name                string                `json:"name"`
	Email               string                `json:"email"`
	Bio                 string                `json:"bio"`
	GitHub              string                `json:"github,omitempty"`
	OpenToWork          bool                  `json:"open_to_work"`
	Keywords            Keywords              `json:"keywords"`
	Enrichment          *Enrichment           `json:"enrichment,omitempty"`
	JobID               string                `json:"job_id"`
	Score               int                   `json:"score"`
	Breakdown           []Signal              `json:"breakdown_json"`
	Outreach            *OutreachMessages     `json:"outreach_messages,omitempty"`
	PipelineStage       string                `json:"pipelineStage,omitempty"`
	ConversationHistory []ConversationMessage `json:"conversationHistory,omitempty"`
	AIFitScore          *int                  `json:"aiFitScore,omitempty"`
	AISummary           string                `json:"aiSummary,omitempty"`
	AIRecommendation    string                `json:"aiRecommendation,omitempty"`
}

// NewCandidateScoreView builds the flattened view for one (candidate, entry)
// pair. Both storage backends construct views through this function so the
// flattening rules cannot drift between them.
func NewCandidateScoreView(c *Candidate, e *ScoreEntry) CandidateScoreView {
	return CandidateScoreView{
		CandidateID:         c.ID,
		Name:                c.Name,
		Email:               c.Email,
		Bio:                 c.Bio,
		GitHub:              c.GitHub,
		OpenToWork:          c.OpenToWork,
		Keywords:            c.Keywords,
		Enrichment:          c.Enrichment,
		JobID:               e.JobID,
		Score:               e.Score,
		Breakdown:           e.Breakdown,
		Outreach:            e.Outreach,
		PipelineStage:       e.PipelineStage,
		ConversationHistory: e.ConversationHistory,
		AIFitScore:          e.AIFitScore,
		AISummary:           e.AISummary,
		AIRecommendation:    e.AIRecommendation,
	}
}

// AIAnalysis is a partial-field merge payload for a score entry. Nil fields
// leave the stored value untouched, so repeating the same payload is
// idempotent.
type AIAnalysis struct {
	FitScore       *int    `json:"fitScore,omitempty"`
	Summary        *string `json:"summary,omitempty"`
	Recommendation *string `json:"recommendation,omitempty"`
}
