package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hireloop/hireloop/internal/models"
)

// skillVocabulary is the curated vocabulary matched against job text by the
// heuristic tier. Canonical casing is preserved in the output.
var skillVocabulary = []string{
	"Python", "JavaScript", "TypeScript", "Go", "Rust", "Java", "Kotlin",
	"Swift", "Ruby", "PHP", "C++", "C#", "Scala", "Elixir",
	"React", "Vue", "Angular", "Svelte", "Next.js", "Node.js", "Django",
	"FastAPI", "Flask", "Rails", "Spring", "GraphQL", "REST",
	"PostgreSQL", "Postgres", "MySQL", "MongoDB", "Redis", "Elasticsearch",
	"Kafka", "RabbitMQ", "SQL",
	"AWS", "GCP", "Azure", "Docker", "Kubernetes", "Terraform", "CI/CD",
	"Machine Learning", "Deep Learning", "NLP", "LLM", "PyTorch", "TensorFlow",
}

// skillPatterns pairs each vocabulary entry with a word-boundary pattern.
// Terms containing symbols (C++, C#, CI/CD) fall back to plain substring
// matching because \b does not terminate after a symbol.
var skillPatterns = func() map[string]*regexp.Regexp {
	wordOnly := regexp.MustCompile(`^[A-Za-z0-9 .]+$`)
	out := make(map[string]*regexp.Regexp, len(skillVocabulary))
	for _, s := range skillVocabulary {
		if wordOnly.MatchString(s) {
			out[s] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(s) + `\b`)
		}
	}
	return out
}()

// Experience patterns are tried in order; the first pattern that matches
// supplies the first numeric capture.
var experiencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\s*\+\s*years?`),
	regexp.MustCompile(`(?i)minimum\s+(?:of\s+)?(\d+)\s+years?`),
	regexp.MustCompile(`(?i)(\d+)\s*-\s*\d+\s+years?`),
	regexp.MustCompile(`(?i)at\s+least\s+(\d+)\s+years?`),
	regexp.MustCompile(`(?i)(\d+)\s+years?\s+(?:of\s+)?experience`),
}

var locationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)location:\s*([A-Za-z][A-Za-z ,'-]*)`),
	regexp.MustCompile(`(?i)based\s+in\s+([A-Za-z][A-Za-z ,'-]*)`),
}

var workModeKeywords = []struct{ keyword, location string }{
	{"remote", "Remote"},
	{"hybrid", "Hybrid"},
	{"on-site", "Onsite"},
	{"onsite", "Onsite"},
}

// knownCities is the fixed fallback list scanned when no explicit location
// pattern matches.
var knownCities = []string{
	"Sydney", "Melbourne", "Brisbane", "Perth", "Adelaide", "Canberra",
	"Auckland", "Wellington", "Singapore", "London", "Berlin", "Amsterdam",
	"New York", "San Francisco", "Austin", "Toronto", "Bangalore", "Tokyo",
}

// Heuristic is the final, always-available extraction tier. It never fails:
// every field is populated from pattern matches or documented defaults.
func Heuristic(description, title string) models.Keywords {
	text := description + "\n" + title

	role := strings.TrimSpace(title)
	if role == "" {
		role = DefaultRole
	}

	skills := matchSkills(text)
	if len(skills) == 0 {
		skills = append(skills, DefaultSkills...)
	}

	return models.Keywords{
		Role:               role,
		Skills:             skills,
		MinExperienceYears: matchExperienceYears(text),
		Location:           matchLocation(text),
	}
}

func matchSkills(text string) []string {
	lower := strings.ToLower(text)
	matched := make([]string, 0, 8)
	for _, skill := range skillVocabulary {
		if re, ok := skillPatterns[skill]; ok {
			if re.MatchString(text) {
				matched = append(matched, skill)
			}
		} else if strings.Contains(lower, strings.ToLower(skill)) {
			matched = append(matched, skill)
		}
	}
	return matched
}

func matchExperienceYears(text string) int {
	for _, re := range experiencePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if years, err := strconv.Atoi(m[1]); err == nil && years >= 0 {
				return years
			}
		}
	}
	return DefaultExperienceYears
}

func matchLocation(text string) string {
	for _, re := range locationPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if loc := cleanLocation(m[1]); loc != "" {
				return loc
			}
		}
	}

	lower := strings.ToLower(text)
	for _, wm := range workModeKeywords {
		if strings.Contains(lower, wm.keyword) {
			return wm.location
		}
	}

	for _, city := range knownCities {
		if strings.Contains(lower, strings.ToLower(city)) {
			return city
		}
	}

	return DefaultLocation
}

// cleanLocation trims a pattern capture to its first line and strips
// trailing punctuation.
func cleanLocation(raw string) string {
	if i := strings.IndexAny(raw, "\r\n"); i >= 0 {
		raw = raw[:i]
	}
	return strings.Trim(raw, " ,-")
}
