package sqlite

import (
	"context"
	"fmt"
)

const workflowSchema = `CREATE TABLE IF NOT EXISTS workflow_states (
	candidate_id TEXT NOT NULL,
	job_id TEXT NOT NULL,
	completed_steps TEXT NOT NULL DEFAULT '[]',
	current_step INTEGER NOT NULL DEFAULT 0,
	draft_message TEXT NOT NULL DEFAULT '',
	scheduled_at INTEGER,
	decision TEXT NOT NULL DEFAULT '',
	updated INTEGER NOT NULL,
	PRIMARY KEY (candidate_id, job_id)
);`

// EnsureSchema creates the workflow tables when they do not exist.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	if _, err := r.conn.Exec(ctx, workflowSchema); err != nil {
		return fmt.Errorf("create workflow schema: %w", err)
	}
	return nil
}
