// Package elastic is the document-search storage backend. Candidates are
// indexed documents; per-job score lookups use a query on the nested
// scores.job_id field instead of a join. Jobs are not supported here by
// design: they stay on the flat-file store even when this backend is
// active, and callers route around that split.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/internal/store"
	"go.uber.org/zap"
)

const defaultIndex = "candidates"

// searchSize caps how many candidates one job query returns. The pool for a
// single requisition is far below this in practice.
const searchSize = 1000

// Config holds connection settings for the Elasticsearch backend.
type Config struct {
	Addresses []string `yaml:"addresses"`
	Index     string   `yaml:"index"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
}

// Store implements store.CandidateStore on an Elasticsearch index.
type Store struct {
	es     *elasticsearch.Client
	index  string
	logger *zap.Logger
}

var _ store.CandidateStore = (*Store)(nil)

// New builds the backend client. It does not touch the cluster; call
// EnsureIndex before first use.
func New(cfg Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Index == "" {
		cfg.Index = defaultIndex
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	return &Store{es: es, index: cfg.Index, logger: logger}, nil
}

// NewWithClient wires an existing client, used by tests.
func NewWithClient(es *elasticsearch.Client, index string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if index == "" {
		index = defaultIndex
	}
	return &Store{es: es, index: index, logger: logger}
}

// indexMapping keeps scores.job_id as a keyword so the per-job term query
// matches exactly.
const indexMapping = `{
	"mappings": {
		"properties": {
			"scores": {
				"properties": {
					"job_id": {"type": "keyword"},
					"pipelineStage": {"type": "keyword"}
				}
			}
		}
	}
}`

// EnsureIndex creates the candidates index with its mapping when it does
// not exist yet.
func (s *Store) EnsureIndex(ctx context.Context) error {
	res, err := s.es.Indices.Exists([]string{s.index}, s.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	create, err := s.es.Indices.Create(s.index,
		s.es.Indices.Create.WithContext(ctx),
		s.es.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer create.Body.Close()
	if create.IsError() {
		return fmt.Errorf("create index: status %d", create.StatusCode)
	}
	s.logger.Info("created candidates index", zap.String("index", s.index))
	return nil
}

// UpsertCandidates indexes each candidate as a whole document keyed by id.
func (s *Store) UpsertCandidates(ctx context.Context, candidates []models.Candidate) error {
	for i := range candidates {
		body, err := json.Marshal(candidates[i])
		if err != nil {
			return fmt.Errorf("encode candidate %s: %w", candidates[i].ID, err)
		}

		res, err := s.es.Index(s.index, bytes.NewReader(body),
			s.es.Index.WithContext(ctx),
			s.es.Index.WithDocumentID(candidates[i].ID),
			s.es.Index.WithRefresh("true"),
		)
		if err != nil {
			return fmt.Errorf("index candidate %s: %w", candidates[i].ID, err)
		}
		if err := drainResponse(res, "index candidate "+candidates[i].ID); err != nil {
			return err
		}
	}
	return nil
}

// GetCandidateByID fetches one document, returning nil when absent.
func (s *Store) GetCandidateByID(ctx context.Context, id string) (*models.Candidate, error) {
	res, err := s.es.Get(s.index, id, s.es.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get candidate %s: %w", id, err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("get candidate %s: status %d", id, res.StatusCode)
	}

	var doc struct {
		Source models.Candidate `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode candidate %s: %w", id, err)
	}
	return &doc.Source, nil
}

// GetCandidatesByJobID runs a term query on scores.job_id and flattens the
// matching entry of each hit. Candidates without an entry cannot match the
// query, so exclusion comes for free; a missing index yields an empty
// result, mirroring the file backend's missing-file behavior.
func (s *Store) GetCandidatesByJobID(ctx context.Context, jobID string) ([]models.CandidateScoreView, error) {
	query := fmt.Sprintf(`{"query": {"term": {"scores.job_id": %q}}}`, jobID)

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(strings.NewReader(query)),
		s.es.Search.WithSize(searchSize),
	)
	if err != nil {
		return nil, fmt.Errorf("search candidates for job %s: %w", jobID, err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("search candidates for job %s: status %d", jobID, res.StatusCode)
	}

	var out struct {
		Hits struct {
			Hits []struct {
				Source models.Candidate `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	views := make([]models.CandidateScoreView, 0, len(out.Hits.Hits))
	for i := range out.Hits.Hits {
		cand := out.Hits.Hits[i].Source
		if entry := cand.ScoreForJob(jobID); entry != nil {
			views = append(views, models.NewCandidateScoreView(&cand, entry))
		}
	}
	return views, nil
}

// GetCandidateScoreForJob fetches the document and flattens the matching
// entry locally.
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

// mutateScores runs the full read-modify-write cycle for one candidate's
// scores array. The nested array cannot be updated atomically by field
// path, so the whole array is pushed back as a partial document update.
func (s *Store) mutateScores(ctx context.Context, candidateID string, fn func(*models.Candidate)) (bool, error) {
	cand, err := s.GetCandidateByID(ctx, candidateID)
	if err != nil {
		return false, err
	}
	if cand == nil {
		return false, nil
	}

	fn(cand)

	partial := struct {
		Doc struct {
			Scores []models.ScoreEntry `json:"scores"`
		} `json:"doc"`
	}{}
	partial.Doc.Scores = cand.Scores

	body, err := json.Marshal(partial)
	if err != nil {
		return false, fmt.Errorf("encode partial update: %w", err)
	}

	res, err := s.es.Update(s.index, candidateID, bytes.NewReader(body),
		s.es.Update.WithContext(ctx),
		s.es.Update.WithRefresh("true"),
	)
	if err != nil {
		return false, fmt.Errorf("update candidate %s: %w", candidateID, err)
	}
	if err := drainResponse(res, "update candidate "+candidateID); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateCandidatePipelineStage moves the entry for the job to the given
// stage with get-or-create semantics.
func (s *Store) UpdateCandidatePipelineStage(ctx context.Context, candidateID, jobID, stage string) (bool, error) {
	return s.mutateScores(ctx, candidateID, func(c *models.Candidate) {
		c.EnsureScoreForJob(jobID).PipelineStage = stage
	})
}

// BatchUpdateCandidateStages applies the stage move per candidate, skipping
// ids that do not resolve, and returns the updated count.
func (s *Store) BatchUpdateCandidateStages(ctx context.Context, jobID string, candidateIDs []string, stage string) (int, error) {
	updated := 0
	for _, id := range candidateIDs {
		ok, err := s.UpdateCandidatePipelineStage(ctx, id, jobID, stage)
		if err != nil {
			return updated, err
		}
		if ok {
			updated++
		} else {
			s.logger.Debug("skipping unknown candidate", zap.String("candidate_id", id))
		}
	}
	return updated, nil
}

// AddMessageToConversation appends a message to the entry's history.
func (s *Store) AddMessageToConversation(ctx context.Context, candidateID, jobID string, msg models.ConversationMessage) (bool, error) {
	return s.mutateScores(ctx, candidateID, func(c *models.Candidate) {
		entry := c.EnsureScoreForJob(jobID)
		entry.ConversationHistory = append(entry.ConversationHistory, msg)
	})
}

// UpdateCandidateAIAnalysis merges the non-nil analysis fields into the
// entry.
func (s *Store) UpdateCandidateAIAnalysis(ctx context.Context, candidateID, jobID string, analysis models.AIAnalysis) (bool, error) {
	return s.mutateScores(ctx, candidateID, func(c *models.Candidate) {
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
}

// drainResponse closes the body and converts an error status into an error.
func drainResponse(res *esapi.Response, op string) error {
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%s: status %d", op, res.StatusCode)
	}
	return nil
}
