package logstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS migration_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source_document_id TEXT NOT NULL,
	source_year INTEGER NOT NULL,
	original_filename TEXT NOT NULL DEFAULT '',
	original_extension TEXT NOT NULL DEFAULT '',
	claimed_content_type TEXT NOT NULL DEFAULT '',
	source_file_size INTEGER NOT NULL DEFAULT 0,
	source_record_date INTEGER,
	status TEXT NOT NULL,
	target_doc_id TEXT NOT NULL DEFAULT '',
	target_bucket TEXT NOT NULL DEFAULT '',
	target_filename TEXT NOT NULL DEFAULT '',
	target_sha256 TEXT NOT NULL DEFAULT '',
	detected_content_type TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	retry_count INTEGER NOT NULL DEFAULT 0,
	worker_token TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	processed_at INTEGER,
	UNIQUE(source_year, source_document_id)
);

CREATE INDEX IF NOT EXISTS migration_log_status_idx ON migration_log(status);
CREATE INDEX IF NOT EXISTS migration_log_worker_token_idx ON migration_log(worker_token);
`

// Store is the sqlite-backed migration log, using the same pure-Go
// driver as internal/catalog so the migrator never requires cgo.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the sqlite database at path and
// ensures the schema exists. Schema creation is idempotent, per
// spec.md §4.9 step 1.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("logstore: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("logstore: ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// SeedMissing bulk-inserts Seeded rows for every contentID not already
// present in the log for year, per spec.md §4.9 step 3. It returns the
// count actually inserted.
func (s *Store) SeedMissing(ctx context.Context, year int, contentIDs []string) (int, error) {
	now := time.Now().UTC().Unix()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("logstore: begin seed tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO migration_log(source_document_id, source_year, status, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(source_year, source_document_id) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("logstore: prepare seed insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, id := range contentIDs {
		res, err := stmt.ExecContext(ctx, id, year, string(StatusSeeded), now)
		if err != nil {
			return 0, fmt.Errorf("logstore: seed insert: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("logstore: commit seed tx: %w", err)
	}
	return inserted, nil
}

// SeededForYear returns every row at status Seeded for year, backing
// the Enrich phase of spec.md §4.9 step 4.
func (s *Store) SeededForYear(ctx context.Context, year int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM migration_log WHERE source_year = ? AND status = ?`,
		year, string(StatusSeeded))
	if err != nil {
		return nil, fmt.Errorf("logstore: query seeded: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// MarkEnriched fills in the legacy metadata fields and transitions the
// row to Pending.
func (s *Store) MarkEnriched(ctx context.Context, id int64, filename, extension, claimedContentType string, fileSize int64, recordDate time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE migration_log SET
			original_filename = ?, original_extension = ?, claimed_content_type = ?,
			source_file_size = ?, source_record_date = ?, status = ?
		WHERE id = ?`,
		filename, extension, claimedContentType, fileSize, recordDate.UTC().Unix(), string(StatusPending), id)
	if err != nil {
		return fmt.Errorf("logstore: mark enriched: %w", err)
	}
	return nil
}

// MarkSkipped transitions the row to Skipped with reason, setting
// processedAt.
func (s *Store) MarkSkipped(ctx context.Context, id int64, reason string) error {
	now := time.Now().UTC().Unix()
	_, err := s.db.ExecContext(ctx,
		`UPDATE migration_log SET status = ?, error_message = ?, processed_at = ? WHERE id = ?`,
		string(StatusSkipped), truncate(reason, MaxErrorMessageLen), now, id)
	if err != nil {
		return fmt.Errorf("logstore: mark skipped: %w", err)
	}
	return nil
}

// SelectBatch claims up to batchSize rows eligible for migration:
// status Pending, or Failed with retryCount < maxRetries, optionally
// filtered to workerToken, ordered by sourceDocumentId, per spec.md
// §4.9 step 5a.
func (s *Store) SelectBatch(ctx context.Context, year int, workerToken string, batchSize, maxRetries int) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM migration_log
		WHERE source_year = ?
		AND (status = ? OR (status = ? AND retry_count < ?))`
	args := []any{year, string(StatusPending), string(StatusFailed), maxRetries}
	if workerToken != "" {
		query += ` AND worker_token = ?`
		args = append(args, workerToken)
	}
	query += ` ORDER BY source_document_id LIMIT ?`
	args = append(args, batchSize)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("logstore: select batch: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// MarkInProgress is the write barrier of spec.md §4.10 step 1.
func (s *Store) MarkInProgress(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE migration_log SET status = ? WHERE id = ?`, string(StatusInProgress), id)
	if err != nil {
		return fmt.Errorf("logstore: mark in progress: %w", err)
	}
	return nil
}

// MarkCompleted records a successful migration outcome.
func (s *Store) MarkCompleted(ctx context.Context, id int64, targetDocID, targetBucket, targetFilename, targetSHA256, detectedContentType string) error {
	now := time.Now().UTC().Unix()
	_, err := s.db.ExecContext(ctx, `
		UPDATE migration_log SET
			status = ?, target_doc_id = ?, target_bucket = ?, target_filename = ?,
			target_sha256 = ?, detected_content_type = ?, processed_at = ?
		WHERE id = ?`,
		string(StatusCompleted), targetDocID, targetBucket, targetFilename, targetSHA256, detectedContentType, now, id)
	if err != nil {
		return fmt.Errorf("logstore: mark completed: %w", err)
	}
	return nil
}

// MarkFailed records a failed attempt, incrementing retryCount and
// truncating errMsg to MaxErrorMessageLen, per spec.md §4.10 steps 4-5.
func (s *Store) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	now := time.Now().UTC().Unix()
	_, err := s.db.ExecContext(ctx, `
		UPDATE migration_log SET status = ?, error_message = ?, retry_count = retry_count + 1, processed_at = ?
		WHERE id = ?`,
		string(StatusFailed), truncate(errMsg, MaxErrorMessageLen), now, id)
	if err != nil {
		return fmt.Errorf("logstore: mark failed: %w", err)
	}
	return nil
}

// ClaimWorkerToken stamps workerToken onto a row that carries no token
// yet; a row that already has a token keeps it. SelectBatch with a
// non-empty token only returns rows already stamped with that token, so
// partitioning across workers relies on tokens assigned before the run.
func (s *Store) ClaimWorkerToken(ctx context.Context, id int64, workerToken string) error {
	if workerToken == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `UPDATE migration_log SET worker_token = ? WHERE id = ? AND worker_token = ''`, workerToken, id)
	if err != nil {
		return fmt.Errorf("logstore: claim worker token: %w", err)
	}
	return nil
}

// Report groups rows by status for year (and, if set, workerToken),
// plus the count of Failed rows that have exhausted their retry
// budget, per spec.md §4.9 step 6.
func (s *Store) Report(ctx context.Context, year int, workerToken string, maxRetries int) (Counts, error) {
	query := `SELECT status, COUNT(*) FROM migration_log WHERE source_year = ?`
	args := []any{year}
	if workerToken != "" {
		query += ` AND worker_token = ?`
		args = append(args, workerToken)
	}
	query += ` GROUP BY status`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Counts{}, fmt.Errorf("logstore: report: %w", err)
	}
	defer rows.Close()

	counts := Counts{ByStatus: make(map[Status]int64)}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return Counts{}, err
		}
		counts.ByStatus[Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return Counts{}, err
	}

	exhaustedQuery := `SELECT COUNT(*) FROM migration_log WHERE source_year = ? AND status = ? AND retry_count >= ?`
	exhaustedArgs := []any{year, string(StatusFailed), maxRetries}
	if workerToken != "" {
		exhaustedQuery += ` AND worker_token = ?`
		exhaustedArgs = append(exhaustedArgs, workerToken)
	}
	if err := s.db.QueryRowContext(ctx, exhaustedQuery, exhaustedArgs...).Scan(&counts.FailedExhausted); err != nil {
		return Counts{}, fmt.Errorf("logstore: report exhausted: %w", err)
	}
	return counts, nil
}

const entryColumns = `id, source_document_id, source_year, original_filename, original_extension,
	claimed_content_type, source_file_size, source_record_date, status,
	target_doc_id, target_bucket, target_filename, target_sha256, detected_content_type,
	error_message, retry_count, worker_token, created_at, processed_at`

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var e Entry
		var status, workerToken string
		var recordDate, createdAt sql.NullInt64
		var processedAt sql.NullInt64
		if err := rows.Scan(
			&e.ID, &e.SourceDocumentID, &e.SourceYear, &e.OriginalFilename, &e.OriginalExtension,
			&e.ClaimedContentType, &e.SourceFileSize, &recordDate, &status,
			&e.TargetDocID, &e.TargetBucket, &e.TargetFilename, &e.TargetSHA256, &e.DetectedContentType,
			&e.ErrorMessage, &e.RetryCount, &workerToken, &createdAt, &processedAt,
		); err != nil {
			return nil, err
		}
		e.Status = Status(status)
		e.WorkerToken = workerToken
		if recordDate.Valid {
			e.SourceRecordDate = time.Unix(recordDate.Int64, 0).UTC()
		}
		if createdAt.Valid {
			e.CreatedAt = time.Unix(createdAt.Int64, 0).UTC()
		}
		if processedAt.Valid {
			e.ProcessedAt = time.Unix(processedAt.Int64, 0).UTC()
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
