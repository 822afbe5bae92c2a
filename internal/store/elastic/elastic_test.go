package elastic_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/internal/store/elastic"
	"go.uber.org/zap"
)

// fakeCluster is a single-index in-memory stand-in for an Elasticsearch
// node, covering the handful of endpoints the store uses.
type fakeCluster struct {
	mu      sync.Mutex
	created bool
	docs    map[string]models.Candidate
}

func newFakeCluster() *fakeCluster {
	return &fakeCluster{docs: make(map[string]models.Candidate)}
}

func (f *fakeCluster) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The v8 client refuses to talk to anything that does not
		// identify itself as Elasticsearch.
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")

		f.mu.Lock()
		defer f.mu.Unlock()

		path := strings.TrimPrefix(r.URL.Path, "/")
		switch {
		case path == "candidates" && r.Method == http.MethodHead:
			if !f.created {
				w.WriteHeader(http.StatusNotFound)
			}
		case path == "candidates" && r.Method == http.MethodPut:
			f.created = true
			w.Write([]byte(`{"acknowledged":true}`))
		case strings.HasPrefix(path, "candidates/_doc/") && r.Method == http.MethodPut:
			id := strings.TrimPrefix(path, "candidates/_doc/")
			var cand models.Candidate
			if err := json.NewDecoder(r.Body).Decode(&cand); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.docs[id] = cand
			w.Write([]byte(`{"result":"created"}`))
		case strings.HasPrefix(path, "candidates/_doc/") && r.Method == http.MethodGet:
			id := strings.TrimPrefix(path, "candidates/_doc/")
			cand, ok := f.docs[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"found":false}`))
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"found": true, "_source": cand})
		case strings.HasPrefix(path, "candidates/_update/") && r.Method == http.MethodPost:
			id := strings.TrimPrefix(path, "candidates/_update/")
			cand, ok := f.docs[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			var partial struct {
				Doc struct {
					Scores []models.ScoreEntry `json:"scores"`
				} `json:"doc"`
			}
			if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			cand.Scores = partial.Doc.Scores
			f.docs[id] = cand
			w.Write([]byte(`{"result":"updated"}`))
		case path == "candidates/_search":
			var q struct {
				Query struct {
					Term map[string]string `json:"term"`
				} `json:"query"`
			}
			if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			jobID := q.Query.Term["scores.job_id"]
			hits := []map[string]any{}
			for _, cand := range f.docs {
				for i := range cand.Scores {
					if cand.Scores[i].JobID == jobID {
						hits = append(hits, map[string]any{"_source": cand})
						break
					}
				}
			}
			json.NewEncoder(w).Encode(map[string]any{
				"hits": map[string]any{"hits": hits},
			})
		default:
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"unexpected route"}`))
		}
	})
}

func newTestStore(t *testing.T) (*elastic.Store, *fakeCluster) {
	t.Helper()

	cluster := newFakeCluster()
	srv := httptest.NewServer(cluster.handler())
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return elastic.NewWithClient(es, "candidates", zap.NewNop()), cluster
}

func sampleCandidate(id, jobID string, score int) models.Candidate {
	return models.Candidate{
		ID:   id,
		Name: "Dana Rivers",
		Bio:  "Backend engineer at an early-stage startup",
		Keywords: models.Keywords{
			Role:     "Backend Engineer",
			Skills:   []string{"Go", "Kubernetes"},
			Location: "Berlin",
		},
		Scores: []models.ScoreEntry{{
			JobID:         jobID,
			Score:         score,
			PipelineStage: "new",
		}},
	}
}

func TestEnsureIndexCreatesOnce(t *testing.T) {
	s, cluster := newTestStore(t)
	ctx := context.Background()

	if err := s.EnsureIndex(ctx); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
	if !cluster.created {
		t.Fatal("index was not created")
	}
	// Second call sees the existing index and is a no-op.
	if err := s.EnsureIndex(ctx); err != nil {
		t.Fatalf("EnsureIndex again: %v", err)
	}
}

func TestUpsertAndGetCandidate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	cand := sampleCandidate("c1", "j1", 72)
	if err := s.UpsertCandidates(ctx, []models.Candidate{cand}); err != nil {
		t.Fatalf("UpsertCandidates: %v", err)
	}

	got, err := s.GetCandidateByID(ctx, "c1")
	if err != nil {
		t.Fatalf("GetCandidateByID: %v", err)
	}
	if got == nil || got.Name != "Dana Rivers" {
		t.Fatalf("got %+v, want Dana Rivers", got)
	}

	missing, err := s.GetCandidateByID(ctx, "nope")
	if err != nil {
		t.Fatalf("GetCandidateByID missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown id, got %+v", missing)
	}
}

func TestGetCandidatesByJobIDFlattensMatchingEntry(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	c1 := sampleCandidate("c1", "j1", 72)
	c2 := sampleCandidate("c2", "j2", 40)
	if err := s.UpsertCandidates(ctx, []models.Candidate{c1, c2}); err != nil {
		t.Fatalf("UpsertCandidates: %v", err)
	}

	views, err := s.GetCandidatesByJobID(ctx, "j1")
	if err != nil {
		t.Fatalf("GetCandidatesByJobID: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("got %d views, want 1", len(views))
	}
	if views[0].CandidateID != "c1" || views[0].Score != 72 || views[0].PipelineStage != "new" {
		t.Fatalf("unexpected view: %+v", views[0])
	}
}

func TestGetCandidateScoreForJob(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertCandidates(ctx, []models.Candidate{sampleCandidate("c1", "j1", 55)}); err != nil {
		t.Fatalf("UpsertCandidates: %v", err)
	}

	view, err := s.GetCandidateScoreForJob(ctx, "c1", "j1")
	if err != nil {
		t.Fatalf("GetCandidateScoreForJob: %v", err)
	}
	if view == nil || view.Score != 55 {
		t.Fatalf("got %+v, want score 55", view)
	}

	// Known candidate, unscored job.
	view, err = s.GetCandidateScoreForJob(ctx, "c1", "j9")
	if err != nil {
		t.Fatalf("GetCandidateScoreForJob unscored: %v", err)
	}
	if view != nil {
		t.Fatalf("expected nil view, got %+v", view)
	}
}

func TestUpdatePipelineStageReadModifyWrite(t *testing.T) {
	s, cluster := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertCandidates(ctx, []models.Candidate{sampleCandidate("c1", "j1", 55)}); err != nil {
		t.Fatalf("UpsertCandidates: %v", err)
	}

	ok, err := s.UpdateCandidatePipelineStage(ctx, "c1", "j1", "engaged")
	if err != nil {
		t.Fatalf("UpdateCandidatePipelineStage: %v", err)
	}
	if !ok {
		t.Fatal("expected update to resolve candidate")
	}

	// A stage move for an unscored job creates the entry.
	if _, err := s.UpdateCandidatePipelineStage(ctx, "c1", "j2", "engaged"); err != nil {
		t.Fatalf("UpdateCandidatePipelineStage new job: %v", err)
	}

	cluster.mu.Lock()
	stored := cluster.docs["c1"]
	cluster.mu.Unlock()
	if len(stored.Scores) != 2 {
		t.Fatalf("got %d score entries, want 2", len(stored.Scores))
	}
	if stored.Scores[0].PipelineStage != "engaged" {
		t.Fatalf("stage = %q, want engaged", stored.Scores[0].PipelineStage)
	}

	ok, err = s.UpdateCandidatePipelineStage(ctx, "ghost", "j1", "engaged")
	if err != nil {
		t.Fatalf("UpdateCandidatePipelineStage unknown: %v", err)
	}
	if ok {
		t.Fatal("unknown candidate must report not found, not error")
	}
}

func TestBatchUpdateSkipsUnknown(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	cands := []models.Candidate{
		sampleCandidate("c1", "j1", 10),
		sampleCandidate("c2", "j1", 20),
	}
	if err := s.UpsertCandidates(ctx, cands); err != nil {
		t.Fatalf("UpsertCandidates: %v", err)
	}

	n, err := s.BatchUpdateCandidateStages(ctx, "j1", []string{"c1", "ghost", "c2"}, "rejected")
	if err != nil {
		t.Fatalf("BatchUpdateCandidateStages: %v", err)
	}
	if n != 2 {
		t.Fatalf("updated %d, want 2", n)
	}
}

func TestConversationAndAnalysisMutations(t *testing.T) {
	s, cluster := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertCandidates(ctx, []models.Candidate{sampleCandidate("c1", "j1", 55)}); err != nil {
		t.Fatalf("UpsertCandidates: %v", err)
	}

	msg := models.ConversationMessage{
		ID:        "m1",
		From:      "founder",
		Content:   "Hi Dana",
		Timestamp: time.Now().UTC(),
	}
	if _, err := s.AddMessageToConversation(ctx, "c1", "j1", msg); err != nil {
		t.Fatalf("AddMessageToConversation: %v", err)
	}

	fit := 81
	summary := "Strong platform background"
	if _, err := s.UpdateCandidateAIAnalysis(ctx, "c1", "j1", models.AIAnalysis{
		FitScore: &fit,
		Summary:  &summary,
	}); err != nil {
		t.Fatalf("UpdateCandidateAIAnalysis: %v", err)
	}

	cluster.mu.Lock()
	entry := cluster.docs["c1"].Scores[0]
	cluster.mu.Unlock()

	if len(entry.ConversationHistory) != 1 || entry.ConversationHistory[0].Content != "Hi Dana" {
		t.Fatalf("unexpected conversation: %+v", entry.ConversationHistory)
	}
	if entry.AIFitScore == nil || *entry.AIFitScore != 81 {
		t.Fatalf("fit score = %v, want 81", entry.AIFitScore)
	}
	if entry.AISummary != summary {
		t.Fatalf("summary = %q", entry.AISummary)
	}
	// Recommendation was nil in the partial update and must be untouched.
	if entry.AIRecommendation != "" {
		t.Fatalf("recommendation = %q, want empty", entry.AIRecommendation)
	}
}
