package sourcing

import (
	"context"

	"github.com/hireloop/hireloop/internal/models"
)

// MockProvider returns a fixed, deterministic pool of profiles. It backs
// local development and is the fallback when the real provider is down or
// unconfigured. The first profile mirrors the query's requirements so a
// strong match always exists in the pool.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

var _ Provider = (*MockProvider)(nil)

func (m *MockProvider) SearchProfiles(_ context.Context, query models.Keywords, limit int) ([]Profile, error) {
	role := query.Role
	if role == "" {
		role = "Software Engineer"
	}
	skills := query.Skills
	if len(skills) == 0 {
		skills = []string{"JavaScript", "Python"}
	}
	years := query.MinExperienceYears
	if years == 0 {
		years = 3
	}
	location := query.Location
	if location == "" {
		location = "Remote"
	}

	profiles := []Profile{
		{
			Name:            "Priya Raman",
			Email:           "priya.raman@example.com",
			Headline:        "Senior " + role + " at an early-stage startup",
			GitHub:          "priyaraman",
			OpenToWork:      true,
			Role:            role,
			Skills:          skills,
			ExperienceYears: years + 2,
			Location:        location,
			PublicRepos:     34,
			TotalStars:      410,
		},
		{
			Name:            "Tom Keller",
			Email:           "tom.keller@example.com",
			Headline:        role + ", ex-founder, building developer tools",
			GitHub:          "tkeller",
			OpenToWork:      true,
			Role:            role,
			Skills:          firstN(skills, 2),
			ExperienceYears: years,
			Location:        "Remote",
			PublicRepos:     12,
			TotalStars:      88,
		},
		{
			Name:            "Ana Soares",
			Email:           "ana.soares@example.com",
			Headline:        "Full-stack engineer",
			OpenToWork:      false,
			Role:            "Full-stack Engineer",
			Skills:          []string{"TypeScript", "React"},
			ExperienceYears: 2,
			Location:        "Lisbon",
		},
		{
			Name:            "Wei Zhang",
			Email:           "wei.zhang@example.com",
			Headline:        "Platform engineer, open-source contributor",
			GitHub:          "weizh",
			OpenToWork:      true,
			Role:            "Platform Engineer",
			Skills:          append(firstN(skills, 1), "Kubernetes", "Terraform"),
			ExperienceYears: years + 4,
			Location:        location,
			PublicRepos:     51,
			TotalStars:      720,
		},
		{
			Name:            "Maya Okafor",
			Email:           "maya.okafor@example.com",
			Headline:        "Engineer exploring new opportunities",
			OpenToWork:      true,
			Role:            role,
			Skills:          []string{"Java", "Spring"},
			ExperienceYears: 1,
			Location:        "Lagos",
		},
	}

	if limit > 0 && limit < len(profiles) {
		profiles = profiles[:limit]
	}
	return profiles, nil
}

func firstN(s []string, n int) []string {
	if len(s) <= n {
		return append([]string(nil), s...)
	}
	return append([]string(nil), s[:n]...)
}
