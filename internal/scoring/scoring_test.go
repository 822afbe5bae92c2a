package scoring_test

import (
	"testing"

	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/internal/scoring"
)

func TestMatches_Lenient(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"Golang", "go", true},
		{"go", "Golang", true},
		{"Senior Backend Engineer", "backend engineer", true},
		{"Python", "Java", false},
		{"", "go", false},
		{"go", "", false},
		{"Remote", "remote", true},
	}
	for _, c := range cases {
		if got := scoring.Matches(c.a, c.b); got != c.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestSourcingScore_PartialMatch(t *testing.T) {
	// Job requires Python/FastAPI/Postgres, 5 years, Sydney. Candidate has
	// Python/Docker, 3 years, Remote, no headline match:
	// role 0 + skills (1/3)*40 + location 0 + experience (3/5)*15 = 22.33.
	cand := &models.Candidate{
		Bio: "Infrastructure tinkerer",
		Keywords: models.Keywords{
			Skills:             []string{"Python", "Docker"},
			MinExperienceYears: 3,
			Location:           "Remote",
		},
	}
	req := models.Keywords{
		Role:               "Backend Engineer",
		Skills:             []string{"Python", "FastAPI", "Postgres"},
		MinExperienceYears: 5,
		Location:           "Sydney",
	}

	score, breakdown := scoring.SourcingScore(cand, req)
	if score != 22 {
		t.Fatalf("score = %d, want 22", score)
	}
	if len(breakdown) != 4 {
		t.Fatalf("breakdown has %d signals, want 4", len(breakdown))
	}

	wantSignals := []string{"role", "skills", "location", "experience"}
	wantValues := []float64{0, 40.0 / 3, 0, 9}
	for i, s := range breakdown {
		if s.Signal != wantSignals[i] {
			t.Errorf("breakdown[%d].Signal = %q, want %q", i, s.Signal, wantSignals[i])
		}
		if diff := s.Value - wantValues[i]; diff > 0.001 || diff < -0.001 {
			t.Errorf("breakdown[%d].Value = %f, want %f", i, s.Value, wantValues[i])
		}
		if s.Reason == "" {
			t.Errorf("breakdown[%d] has empty reason", i)
		}
	}
}

func TestSourcingScore_RemoteRequirementAwardsLocation(t *testing.T) {
	cand := &models.Candidate{
		Keywords: models.Keywords{
			Skills:             []string{"Python", "Docker"},
			MinExperienceYears: 3,
			Location:           "Remote",
		},
	}
	req := models.Keywords{
		Role:               "Backend Engineer",
		Skills:             []string{"Python", "FastAPI", "Postgres"},
		MinExperienceYears: 5,
		Location:           "remote",
	}

	score, breakdown := scoring.SourcingScore(cand, req)
	if breakdown[2].Value != 15 {
		t.Fatalf("location signal = %f, want full 15", breakdown[2].Value)
	}
	if score != 37 {
		t.Fatalf("score = %d, want 37", score)
	}
}

func TestSourcingScore_Bounds(t *testing.T) {
	perfect := &models.Candidate{
		Bio: "Senior Backend Engineer",
		Keywords: models.Keywords{
			Skills:             []string{"Python", "FastAPI", "Postgres"},
			MinExperienceYears: 10,
			Location:           "Sydney",
		},
	}
	req := models.Keywords{
		Role:               "Backend Engineer",
		Skills:             []string{"Python", "FastAPI", "Postgres"},
		MinExperienceYears: 5,
		Location:           "Sydney",
	}
	score, _ := scoring.SourcingScore(perfect, req)
	if score != 100 {
		t.Fatalf("perfect candidate score = %d, want 100", score)
	}

	nothing := &models.Candidate{}
	score, _ = scoring.SourcingScore(nothing, req)
	if score < 0 || score > 100 {
		t.Fatalf("empty candidate score out of range: %d", score)
	}
}

func TestSourcingScore_ZeroRequiredExperienceIsFullCredit(t *testing.T) {
	cand := &models.Candidate{Keywords: models.Keywords{MinExperienceYears: 0}}
	req := models.Keywords{Role: "x", Skills: []string{"Go"}, MinExperienceYears: 0, Location: "Sydney"}
	_, breakdown := scoring.SourcingScore(cand, req)
	if breakdown[3].Value != 15 {
		t.Fatalf("experience signal = %f, want 15 when nothing is required", breakdown[3].Value)
	}
}

func TestPoolScore_WeightedSum(t *testing.T) {
	cand := &models.Candidate{
		Bio: "Startup founder turned platform engineer",
		Keywords: models.Keywords{
			Skills: []string{"Go"},
		},
		Enrichment: &models.Enrichment{TotalStars: 250, PublicRepos: 12},
	}
	req := models.Keywords{Skills: []string{"Go", "Kubernetes", "Postgres"}}
	ratios := models.ScoringRatios{TechMatch: 0.5, OSSActivity: 0.3, StartupExperience: 0.2}

	// tech = (1/3)*100, oss = (250/500)*100 = 50, startup = 2 hits * 25 = 50.
	// 0.5*33.33 + 0.3*50 + 0.2*50 = 41.67 -> 42.
	score, breakdown := scoring.PoolScore(cand, req, ratios)
	if score != 42 {
		t.Fatalf("score = %d, want 42", score)
	}

	wantSignals := []string{"tech", "oss", "startup"}
	for i, s := range breakdown {
		if s.Signal != wantSignals[i] {
			t.Errorf("breakdown[%d].Signal = %q, want %q", i, s.Signal, wantSignals[i])
		}
	}
	if breakdown[0].Reason != "Matched 1/3 skills" {
		t.Errorf("tech reason = %q", breakdown[0].Reason)
	}
}

func TestPoolScore_Clamped(t *testing.T) {
	cand := &models.Candidate{
		Bio:        "Founder of an early-stage startup, seed funded, Y Combinator",
		Keywords:   models.Keywords{Skills: []string{"Go", "Kubernetes"}},
		Enrichment: &models.Enrichment{TotalStars: 10000},
	}
	req := models.Keywords{Skills: []string{"Go", "Kubernetes"}}
	// Weights deliberately sum past 1.0; the result must still clamp to 100.
	ratios := models.ScoringRatios{TechMatch: 1, OSSActivity: 1, StartupExperience: 1}

	score, _ := scoring.PoolScore(cand, req, ratios)
	if score != 100 {
		t.Fatalf("score = %d, want clamped 100", score)
	}
}

func TestPoolScore_NoRequiredSkills(t *testing.T) {
	cand := &models.Candidate{Keywords: models.Keywords{Skills: []string{"Go"}}}
	score, breakdown := scoring.PoolScore(cand, models.Keywords{}, models.ScoringRatios{TechMatch: 1})
	if score != 0 {
		t.Fatalf("score = %d, want 0 with no required skills", score)
	}
	if breakdown[0].Value != 0 {
		t.Fatalf("tech value = %f, want 0", breakdown[0].Value)
	}
}

func TestStartupSignal_Deterministic(t *testing.T) {
	bio := "Co-founder of a seed-stage startup"
	a, hitsA := scoring.StartupSignal(bio)
	b, hitsB := scoring.StartupSignal(bio)
	if a != b || hitsA != hitsB {
		t.Fatalf("startup signal not deterministic: %f/%d vs %f/%d", a, hitsA, b, hitsB)
	}
	if a <= 0 {
		t.Fatalf("expected positive signal for startup bio, got %f", a)
	}
	if v, _ := scoring.StartupSignal("Enterprise Java consultant"); v != 0 {
		t.Fatalf("expected 0 for non-startup bio, got %f", v)
	}
}
