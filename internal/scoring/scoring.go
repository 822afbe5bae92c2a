// Package scoring implements the two match-scoring algorithms: the
// sourcing-time relevance score used to rank raw search results, and the
// weight-driven pool-ranking score used for ongoing job-fit ranking.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/hireloop/hireloop/internal/models"
)

// Point budgets for the sourcing-time relevance score.
const (
	rolePoints       = 30.0
	skillsPoints     = 40.0
	locationPoints   = 15.0
	experiencePoints = 15.0
)

// ossStarCeiling is the star count at which the OSS signal saturates.
const ossStarCeiling = 500.0

// Matches reports whether two strings match under the lenient rule used
// throughout scoring: either string, lower-cased, contains the other as a
// substring. Score reproducibility depends on this exact rule, so callers
// must not substitute a stricter comparison.
func Matches(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// MatchedSkills returns the required skills the candidate matches, in the
// order the job lists them.
func MatchedSkills(candidate, required []string) []string {
	matched := make([]string, 0, len(required))
	for _, req := range required {
		for _, have := range candidate {
			if Matches(have, req) {
				matched = append(matched, req)
				break
			}
		}
	}
	return matched
}

// SourcingScore ranks one raw sourced profile against a job's requirements.
// Four independent signals, each pre-scaled to a fixed point budget, are
// summed and rounded to the nearest integer. The breakdown is emitted in the
// fixed order role, skills, location, experience.
func SourcingScore(c *models.Candidate, req models.Keywords) (int, []models.Signal) {
	breakdown := make([]models.Signal, 0, 4)

	roleValue := 0.0
	roleReason := "Headline does not mention the required role"
	if Matches(c.Bio, req.Role) {
		roleValue = rolePoints
		roleReason = fmt.Sprintf("Headline matches required role %q", req.Role)
	}
	breakdown = append(breakdown, models.Signal{Signal: "role", Value: roleValue, Reason: roleReason})

	skillsValue := 0.0
	skillsReason := "No required skills to match"
	if n := len(req.Skills); n > 0 {
		matched := MatchedSkills(c.Keywords.Skills, req.Skills)
		skillsValue = float64(len(matched)) / float64(n) * skillsPoints
		skillsReason = fmt.Sprintf("Matched %d/%d skills", len(matched), n)
		if len(matched) > 0 {
			skillsReason += ": " + strings.Join(matched, ", ")
		}
	}
	breakdown = append(breakdown, models.Signal{Signal: "skills", Value: skillsValue, Reason: skillsReason})

	locationValue := 0.0
	locationReason := fmt.Sprintf("Location %q does not match %q", c.Keywords.Location, req.Location)
	switch {
	case strings.EqualFold(strings.TrimSpace(req.Location), "remote"):
		locationValue = locationPoints
		locationReason = "Role is remote"
	case Matches(c.Keywords.Location, req.Location):
		locationValue = locationPoints
		locationReason = fmt.Sprintf("Location matches %q", req.Location)
	}
	breakdown = append(breakdown, models.Signal{Signal: "location", Value: locationValue, Reason: locationReason})

	expValue := experiencePoints
	expReason := fmt.Sprintf("%d years meets the %d year minimum", c.Keywords.MinExperienceYears, req.MinExperienceYears)
	if req.MinExperienceYears > 0 && c.Keywords.MinExperienceYears < req.MinExperienceYears {
		expValue = float64(c.Keywords.MinExperienceYears) / float64(req.MinExperienceYears) * experiencePoints
		expReason = fmt.Sprintf("%d of %d required years", c.Keywords.MinExperienceYears, req.MinExperienceYears)
	}
	breakdown = append(breakdown, models.Signal{Signal: "experience", Value: expValue, Reason: expReason})

	total := 0.0
	for _, s := range breakdown {
		total += s.Value
	}
	return int(math.Round(total)), breakdown
}

// PoolScore computes the job's weight-driven ranking score for a candidate
// already in the pool. Each signal is on a 0..100 scale; the weighted sum is
// clamped to [0, 100] and rounded. The breakdown is emitted in the fixed
// order tech, oss, startup.
func PoolScore(c *models.Candidate, req models.Keywords, ratios models.ScoringRatios) (int, []models.Signal) {
	requiredCount := len(req.Skills)
	matched := MatchedSkills(c.Keywords.Skills, req.Skills)
	techScore := float64(len(matched)) / math.Max(float64(requiredCount), 1) * 100

	ossScore := 0.0
	ossReason := "No public OSS activity on record"
	if c.Enrichment != nil {
		ossScore = math.Min(float64(c.Enrichment.TotalStars)/ossStarCeiling, 1) * 100
		ossReason = fmt.Sprintf("%d stars across %d public repos", c.Enrichment.TotalStars, c.Enrichment.PublicRepos)
	}

	startupScore, startupHits := StartupSignal(c.Bio)

	breakdown := []models.Signal{
		{Signal: "tech", Value: techScore, Reason: fmt.Sprintf("Matched %d/%d skills", len(matched), requiredCount)},
		{Signal: "oss", Value: ossScore, Reason: ossReason},
		{Signal: "startup", Value: startupScore, Reason: fmt.Sprintf("%d startup signals in profile", startupHits)},
	}

	weighted := ratios.TechMatch*techScore + ratios.OSSActivity*ossScore + ratios.StartupExperience*startupScore
	weighted = math.Min(math.Max(weighted, 0), 100)
	return int(math.Round(weighted)), breakdown
}

// startupVocabulary are terms whose presence in a candidate's bio count as
// startup-experience signals.
var startupVocabulary = []string{
	"startup",
	"founder",
	"co-founder",
	"founding",
	"early-stage",
	"seed",
	"y combinator",
	"0 to 1",
}

// StartupSignal derives a deterministic startup-experience score from the
// candidate's bio: 25 points per distinct vocabulary hit, capped at 100.
func StartupSignal(bio string) (float64, int) {
	lower := strings.ToLower(bio)
	hits := 0
	for _, term := range startupVocabulary {
		if strings.Contains(lower, term) {
			hits++
		}
	}
	return math.Min(float64(hits)*25, 100), hits
}
