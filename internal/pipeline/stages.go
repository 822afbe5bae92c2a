// Package pipeline governs how a candidate moves through the hiring stages
// of one job and keeps the workflow bookkeeping around those moves.
package pipeline

import "fmt"

// Stage is a pipeline stage identifier. The set is closed: anything outside
// it is rejected at parse time.
type Stage string

const (
	StageNew      Stage = "new"
	StageEngaged  Stage = "engaged"
	StageClosing  Stage = "closing"
	StageHired    Stage = "hired"
	StageRejected Stage = "rejected"
	StageArchived Stage = "archived"
)

// ErrUnknownStage wraps the offending identifier.
type ErrUnknownStage struct {
	Value string
}

func (e *ErrUnknownStage) Error() string {
	return fmt.Sprintf("unknown pipeline stage %q", e.Value)
}

// ParseStage validates a raw identifier against the closed stage set.
func ParseStage(s string) (Stage, error) {
	switch Stage(s) {
	case StageNew, StageEngaged, StageClosing, StageHired, StageRejected, StageArchived:
		return Stage(s), nil
	}
	return "", &ErrUnknownStage{Value: s}
}

// Terminal reports whether the stage ends the candidate's run for the job.
func (s Stage) Terminal() bool {
	switch s {
	case StageHired, StageRejected, StageArchived:
		return true
	}
	return false
}

// recommendedTransitions is the forward graph of the hiring flow. A
// candidate can be dropped (rejected or archived) at any pre-terminal
// stage. Operators may still move candidates off-graph through the batch
// and custom-move flows, so moves outside this table are flagged, not
// forbidden.
var recommendedTransitions = map[Stage][]Stage{
	StageNew:     {StageEngaged, StageRejected, StageArchived},
	StageEngaged: {StageClosing, StageRejected, StageArchived},
	StageClosing: {StageHired, StageRejected, StageArchived},
}

// Recommended reports whether moving from s to target follows the forward
// graph. Staying put is always regular.
func (s Stage) Recommended(target Stage) bool {
	if s == target {
		return true
	}
	for _, next := range recommendedTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}
