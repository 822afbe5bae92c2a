// Package sqlite persists pipeline workflow bookkeeping. The stage itself
// lives on the candidate's score entry in the candidate store; this
// repository holds the operator-facing state around it, keyed by the
// composite (candidate_id, job_id) pair.
package sqlite

import (
	"time"

	"github.com/hireloop/hireloop/internal/db"
	"go.uber.org/zap"
)

// Repo implements workflow-state persistence on the internal DB wrapper.
type Repo struct {
	conn   *db.DB
	logger *zap.Logger
}

func New(conn *db.DB, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{conn: conn, logger: logger}
}

func now() int64 {
	return time.Now().UTC().UnixMilli()
}
