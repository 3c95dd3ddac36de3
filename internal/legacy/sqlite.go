package legacy

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLDocumentStore and SQLContentStore adapt a generic database/sql
// handle to the DocumentStore/ContentStore interfaces. They assume the
// column names the original system used: ContentId, DelStatus,
// OriginalFilename, OriginalExtension, ClaimedContentType, FileSize,
// RecordDate for documents; ContentId, Data for content. Any legacy
// system reachable over database/sql (not necessarily sqlite) can be
// wired the same way by opening a different driver at the call site.
type SQLDocumentStore struct {
	db *sql.DB
}

// OpenSQLDocumentStore opens a database/sql connection pool for the
// legacy document-metadata database.
func OpenSQLDocumentStore(driverName, dsn string) (*SQLDocumentStore, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("legacy: open document store: %w", err)
	}
	return &SQLDocumentStore{db: db}, nil
}

func (s *SQLDocumentStore) Close() error { return s.db.Close() }

func (s *SQLDocumentStore) GetByContentID(ctx context.Context, table, contentID string) (DocumentMetadata, bool, error) {
	query := fmt.Sprintf(`SELECT ContentId, OriginalFilename, OriginalExtension, ClaimedContentType, FileSize, RecordDate
		FROM %s WHERE ContentId = ? AND DelStatus = 0`, table)
	row := s.db.QueryRowContext(ctx, query, contentID)

	var m DocumentMetadata
	var recordDate int64
	err := row.Scan(&m.ContentID, &m.OriginalFilename, &m.OriginalExtension, &m.ClaimedContentType, &m.FileSize, &recordDate)
	if err == sql.ErrNoRows {
		return DocumentMetadata{}, false, nil
	}
	if err != nil {
		return DocumentMetadata{}, false, fmt.Errorf("legacy: get document metadata: %w", err)
	}
	m.RecordDate = time.Unix(recordDate, 0).UTC()
	return m, true, nil
}

// SQLContentStore adapts a database/sql handle to ContentStore.
type SQLContentStore struct {
	db *sql.DB
}

// OpenSQLContentStore opens a database/sql connection pool for the
// legacy per-year content database.
func OpenSQLContentStore(driverName, dsn string) (*SQLContentStore, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("legacy: open content store: %w", err)
	}
	return &SQLContentStore{db: db}, nil
}

func (s *SQLContentStore) Close() error { return s.db.Close() }

func (s *SQLContentStore) ListContentIDs(ctx context.Context, table string, year int) ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT ContentId FROM %s`, table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("legacy: list content ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLContentStore) GetContent(ctx context.Context, table, contentID string) ([]byte, bool, error) {
	query := fmt.Sprintf(`SELECT Data FROM %s WHERE ContentId = ?`, table)
	row := s.db.QueryRowContext(ctx, query, contentID)

	var data []byte
	err := row.Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("legacy: get content: %w", err)
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	return data, true, nil
}
