// Package logstore is the concrete backing for the "migration log" the
// Migration Worker uses to track every legacy record's lifecycle,
// per spec.md §3 and §4.9.
package logstore

import "time"

// Status is a MigrationLogEntry's position in the state machine of
// spec.md §4.9: Seeded -> Pending -> InProgress -> {Completed, Failed,
// Skipped}, with Failed -> Pending implicit through batch selection.
type Status string

const (
	StatusSeeded     Status = "Seeded"
	StatusPending    Status = "Pending"
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
	StatusFailed     Status = "Failed"
	StatusSkipped    Status = "Skipped"
)

// MaxErrorMessageLen is the truncation length for errorMessage, per
// spec.md's data model.
const MaxErrorMessageLen = 2000

// Entry is a row of the migration log.
type Entry struct {
	ID               int64
	SourceYear       int
	SourceDocumentID string

	OriginalFilename   string
	OriginalExtension  string
	ClaimedContentType string
	SourceFileSize     int64
	SourceRecordDate   time.Time

	Status Status

	TargetDocID         string
	TargetBucket        string
	TargetFilename      string
	TargetSHA256        string
	DetectedContentType string

	ErrorMessage string
	RetryCount   int
	WorkerToken  string

	CreatedAt   time.Time
	ProcessedAt time.Time
}

// Counts summarizes a Report pass: per-status row counts plus how many
// Failed rows have exhausted their retry budget.
type Counts struct {
	ByStatus        map[Status]int64
	FailedExhausted int64
}
