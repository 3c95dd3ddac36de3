package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS buckets (
	name TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS objects (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	bucket TEXT NOT NULL REFERENCES buckets(name),
	filename TEXT NOT NULL,
	doc_id TEXT NOT NULL,
	year INTEGER NOT NULL,
	size_bytes INTEGER NOT NULL,
	sha256 BLOB NOT NULL,
	served_content_type TEXT NOT NULL,
	detected_content_type TEXT NOT NULL,
	claimed_content_type TEXT NOT NULL DEFAULT '',
	detected_extension TEXT NOT NULL,
	detection_method TEXT NOT NULL,
	is_mismatch INTEGER NOT NULL,
	is_dangerous_mismatch INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	UNIQUE(bucket, filename),
	UNIQUE(doc_id)
);

CREATE INDEX IF NOT EXISTS objects_bucket_idx ON objects(bucket);
`

// SQLiteStore is the database/sql-backed Store implementation. It is the
// concrete stand-in for the catalog metadata store spec.md declares
// external, using the pure-Go modernc.org/sqlite driver so the module
// never requires cgo.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if absent) the sqlite database at path
// and ensures the schema exists.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers; keep one connection to avoid SQLITE_BUSY
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: ensure schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *SQLiteStore) CreateBucket(ctx context.Context, name string) (Bucket, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `INSERT INTO buckets(name, created_at) VALUES (?, ?)`, name, now.Unix())
	if isUniqueViolation(err) {
		return Bucket{}, ErrBucketAlreadyExists
	}
	if err != nil {
		return Bucket{}, fmt.Errorf("catalog: create bucket: %w", err)
	}
	return Bucket{Name: name, CreatedAt: now}, nil
}

func (s *SQLiteStore) EnsureBucket(ctx context.Context, name string) (Bucket, error) {
	b, err := s.CreateBucket(ctx, name)
	if err == nil {
		return b, nil
	}
	if errors.Is(err, ErrBucketAlreadyExists) {
		existing, getErr := s.GetBucket(ctx, name)
		if getErr != nil {
			return Bucket{}, getErr
		}
		return existing.Bucket, nil
	}
	return Bucket{}, err
}

func (s *SQLiteStore) GetBucket(ctx context.Context, name string) (BucketWithCounts, error) {
	row := s.db.QueryRowContext(ctx, `SELECT name, created_at FROM buckets WHERE name = ?`, name)
	var b Bucket
	var createdAt int64
	if err := row.Scan(&b.Name, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return BucketWithCounts{}, ErrBucketNotFound
		}
		return BucketWithCounts{}, fmt.Errorf("catalog: get bucket: %w", err)
	}
	b.CreatedAt = time.Unix(createdAt, 0).UTC()

	var count, size sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(size_bytes), 0) FROM objects WHERE bucket = ?`, name,
	).Scan(&count, &size)
	if err != nil {
		return BucketWithCounts{}, fmt.Errorf("catalog: count objects: %w", err)
	}
	return BucketWithCounts{Bucket: b, ObjectCount: count.Int64, TotalSizeBytes: size.Int64}, nil
}

func (s *SQLiteStore) ListBuckets(ctx context.Context) ([]BucketWithCounts, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM buckets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list buckets: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]BucketWithCounts, 0, len(names))
	for _, n := range names {
		bc, err := s.GetBucket(ctx, n)
		if err != nil {
			return nil, err
		}
		out = append(out, bc)
	}
	return out, nil
}

func (s *SQLiteStore) DeleteBucket(ctx context.Context, name string) error {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM objects WHERE bucket = ?`, name).Scan(&count); err != nil {
		return fmt.Errorf("catalog: count objects: %w", err)
	}
	if count > 0 {
		return ErrBucketNotEmpty
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM buckets WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("catalog: delete bucket: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBucketNotFound
	}
	return nil
}

func (s *SQLiteStore) BucketExists(ctx context.Context, name string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM buckets WHERE name = ?`, name).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("catalog: bucket exists: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) InsertObject(ctx context.Context, obj Object) (Object, error) {
	now := time.Now().UTC()
	obj.CreatedAt = now
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO objects(
			bucket, filename, doc_id, year, size_bytes, sha256,
			served_content_type, detected_content_type, claimed_content_type,
			detected_extension, detection_method, is_mismatch, is_dangerous_mismatch, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		obj.Bucket, obj.Filename, obj.DocID, obj.Year, obj.SizeBytes, obj.SHA256[:],
		obj.ServedContentType, obj.DetectedContentType, obj.ClaimedContentType,
		obj.DetectedExtension, string(obj.DetectionMethod), boolToInt(obj.IsMismatch), boolToInt(obj.IsDangerousMismatch),
		now.Unix(),
	)
	if isUniqueViolation(err) {
		return Object{}, ErrObjectAlreadyExists
	}
	if err != nil {
		return Object{}, fmt.Errorf("catalog: insert object: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Object{}, err
	}
	obj.ID = id
	return obj, nil
}

const objectColumns = `id, bucket, filename, doc_id, year, size_bytes, sha256,
	served_content_type, detected_content_type, claimed_content_type,
	detected_extension, detection_method, is_mismatch, is_dangerous_mismatch, created_at`

func scanObject(row *sql.Row) (Object, error) {
	var o Object
	var sha []byte
	var method string
	var isMismatch, isDangerous int
	var createdAt int64
	err := row.Scan(&o.ID, &o.Bucket, &o.Filename, &o.DocID, &o.Year, &o.SizeBytes, &sha,
		&o.ServedContentType, &o.DetectedContentType, &o.ClaimedContentType,
		&o.DetectedExtension, &method, &isMismatch, &isDangerous, &createdAt)
	if err != nil {
		return Object{}, err
	}
	copy(o.SHA256[:], sha)
	o.DetectionMethod = DetectionMethod(method)
	o.IsMismatch = isMismatch != 0
	o.IsDangerousMismatch = isDangerous != 0
	o.CreatedAt = time.Unix(createdAt, 0).UTC()
	return o, nil
}

func (s *SQLiteStore) GetObjectByDocID(ctx context.Context, bucket, docID string) (Object, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+objectColumns+` FROM objects WHERE bucket = ? AND doc_id = ?`, bucket, docID)
	o, err := scanObject(row)
	if err == sql.ErrNoRows {
		return Object{}, ErrObjectNotFound
	}
	if err != nil {
		return Object{}, fmt.Errorf("catalog: get object by doc id: %w", err)
	}
	return o, nil
}

func (s *SQLiteStore) GetObjectByFilename(ctx context.Context, bucket, filename string) (Object, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+objectColumns+` FROM objects WHERE bucket = ? AND filename = ?`, bucket, filename)
	o, err := scanObject(row)
	if err == sql.ErrNoRows {
		return Object{}, ErrObjectNotFound
	}
	if err != nil {
		return Object{}, fmt.Errorf("catalog: get object by filename: %w", err)
	}
	return o, nil
}

func (s *SQLiteStore) GetObjectByDocIDAny(ctx context.Context, docID string) (Object, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+objectColumns+` FROM objects WHERE doc_id = ?`, docID)
	o, err := scanObject(row)
	if err == sql.ErrNoRows {
		return Object{}, ErrObjectNotFound
	}
	if err != nil {
		return Object{}, fmt.Errorf("catalog: get object by doc id: %w", err)
	}
	return o, nil
}

func (s *SQLiteStore) DeleteObjectByDocIDAny(ctx context.Context, docID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM objects WHERE doc_id = ?`, docID)
	if err != nil {
		return fmt.Errorf("catalog: delete object: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrObjectNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteObjectByDocID(ctx context.Context, bucket, docID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM objects WHERE bucket = ? AND doc_id = ?`, bucket, docID)
	if err != nil {
		return fmt.Errorf("catalog: delete object: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrObjectNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteObjectByFilename(ctx context.Context, bucket, filename string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM objects WHERE bucket = ? AND filename = ?`, bucket, filename)
	if err != nil {
		return fmt.Errorf("catalog: delete object: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrObjectNotFound
	}
	return nil
}

func (s *SQLiteStore) ObjectExists(ctx context.Context, bucket, filename string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM objects WHERE bucket = ? AND filename = ?`, bucket, filename).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("catalog: object exists: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) ListObjects(ctx context.Context, bucket, prefix string, page, pageSize int) (ListPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > 1000 {
		pageSize = 1000
	}

	var total int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM objects WHERE bucket = ? AND filename LIKE ? ESCAPE '\'`,
		bucket, likePrefix(prefix),
	).Scan(&total); err != nil {
		return ListPage{}, fmt.Errorf("catalog: count objects: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+objectColumns+` FROM objects WHERE bucket = ? AND filename LIKE ? ESCAPE '\'
		 ORDER BY filename LIMIT ? OFFSET ?`,
		bucket, likePrefix(prefix), pageSize, (page-1)*pageSize,
	)
	if err != nil {
		return ListPage{}, fmt.Errorf("catalog: list objects: %w", err)
	}
	defer rows.Close()

	var out []Object
	for rows.Next() {
		var o Object
		var sha []byte
		var method string
		var isMismatch, isDangerous int
		var createdAt int64
		if err := rows.Scan(&o.ID, &o.Bucket, &o.Filename, &o.DocID, &o.Year, &o.SizeBytes, &sha,
			&o.ServedContentType, &o.DetectedContentType, &o.ClaimedContentType,
			&o.DetectedExtension, &method, &isMismatch, &isDangerous, &createdAt); err != nil {
			return ListPage{}, err
		}
		copy(o.SHA256[:], sha)
		o.DetectionMethod = DetectionMethod(method)
		o.IsMismatch = isMismatch != 0
		o.IsDangerousMismatch = isDangerous != 0
		o.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return ListPage{}, err
	}
	return ListPage{Objects: out, TotalCount: total}, nil
}

func likePrefix(prefix string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	return escaped + "%"
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
