// Package dataset owns the two databases at the edges of the pipeline: the
// read-only candidate database produced by the upstream fetcher, and the
// output database of validation records consumed by the export stage.
package dataset

// Status is the terminal state of a candidate after a pipeline run.
type Status string

const (
	// StatusAccepted marks an affirmatively classified skill file.
	StatusAccepted Status = "accepted"
	// StatusStructurallyRejected marks files that failed the frontmatter
	// prefilter; the classifier was never invoked.
	StatusStructurallyRejected Status = "rejected_frontmatter"
	// StatusSemanticallyRejected marks files the classifier judged not to be
	// skill definitions.
	StatusSemanticallyRejected Status = "rejected_semantic"
	// StatusError marks files whose classification failed (transport error
	// after retries, or unparseable model output). Excluded from the accepted
	// set pending investigation.
	StatusError Status = "error"
	// StatusSkipped marks files whose content has not been fetched yet.
	// Distinct from rejection: a later run with content re-evaluates them.
	StatusSkipped Status = "skipped"
)

// ValidationRecord is the per-file decision persisted to the output database.
type ValidationRecord struct {
	URL     string `db:"url"`
	Status  Status `db:"status"`
	IsSkill bool   `db:"is_skill"`
	Reason  string `db:"reason"`
	// ValidatedAt is kept as the raw database timestamp string; nothing in
	// the pipeline computes with it.
	ValidatedAt string `db:"validated_at"`
}

// NewRecord builds a record for url with the given outcome. IsSkill is
// derived: only accepted records count as skills downstream.
func NewRecord(url string, status Status, reason string) ValidationRecord {
	return ValidationRecord{
		URL:     url,
		Status:  status,
		IsSkill: status == StatusAccepted,
		Reason:  reason,
	}
}
