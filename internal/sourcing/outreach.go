package sourcing

import (
	"fmt"
	"strings"

	"github.com/hireloop/hireloop/internal/models"
)

// BuildOutreach drafts the per-channel first-contact messages for one
// candidate. These are starting points for the founder to edit, not
// finished copy.
func BuildOutreach(name string, job *models.Job) models.OutreachMessages {
	first := firstName(name)
	company := job.Company
	if company == "" {
		company = "our team"
	}

	linkedin := fmt.Sprintf(
		"Hi %s, I came across your profile and think you'd be a great fit for the %s role at %s. Open to a quick chat?",
		first, job.Title, company,
	)
	email := fmt.Sprintf(
		"Hi %s,\n\nI'm hiring for a %s position at %s and your background stood out. "+
			"I'd love to tell you more about what we're building and hear what you're looking for next.\n\n"+
			"Would you be open to a short call this week?\n",
		first, job.Title, company,
	)
	return models.OutreachMessages{LinkedIn: linkedin, Email: email}
}

func firstName(full string) string {
	full = strings.TrimSpace(full)
	if full == "" {
		return "there"
	}
	if i := strings.IndexByte(full, ' '); i > 0 {
		return full[:i]
	}
	return full
}
