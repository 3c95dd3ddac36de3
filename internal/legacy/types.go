// Package legacy stands in for the legacy source databases spec.md
// treats as external collaborators: a per-year document-metadata
// database and a per-year content database holding raw blob bytes. The
// Migration Worker depends only on these two narrow interfaces, so any
// concrete legacy system can be adapted behind them.
package legacy

import (
	"context"
	"time"
)

// DocumentMetadata is a row of the legacy document-metadata table,
// keyed by ContentId.
type DocumentMetadata struct {
	ContentID          string
	OriginalFilename   string
	OriginalExtension  string
	ClaimedContentType string
	FileSize           int64
	RecordDate         time.Time
}

// DocumentStore is the legacy document-metadata database: one row per
// ContentId, filtered to DelStatus = false, per spec.md §4.9 step 4.
type DocumentStore interface {
	// GetByContentID returns the metadata row for contentID, or
	// ok=false if no non-deleted row matches.
	GetByContentID(ctx context.Context, table, contentID string) (DocumentMetadata, bool, error)
}

// ContentStore is the legacy per-year content database holding raw
// blob bytes keyed by ContentId.
type ContentStore interface {
	// ListContentIDs enumerates every distinct ContentId present for
	// year, backing the Seed phase (spec.md §4.9 step 3).
	ListContentIDs(ctx context.Context, table string, year int) ([]string, error)

	// GetContent returns the raw bytes for contentID, or ok=false when
	// the row is absent or its payload is empty, per spec.md §4.10
	// step 2.
	GetContent(ctx context.Context, table, contentID string) ([]byte, bool, error)
}
