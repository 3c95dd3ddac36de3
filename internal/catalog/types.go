// Package catalog is the concrete backing for the "catalog metadata
// store" spec.md treats as an external collaborator: a transactional
// database exposing a Buckets table and an Objects table with the unique
// and FK constraints described in spec.md §6.
package catalog

import (
	"context"
	"errors"
	"time"
)

var (
	ErrBucketNotFound      = errors.New("catalog: bucket not found")
	ErrBucketAlreadyExists = errors.New("catalog: bucket already exists")
	ErrBucketNotEmpty      = errors.New("catalog: bucket not empty")
	ErrObjectNotFound      = errors.New("catalog: object not found")
	ErrObjectAlreadyExists = errors.New("catalog: object already exists")
)

// Bucket is a row of the Buckets table.
type Bucket struct {
	Name      string
	CreatedAt time.Time
}

// BucketWithCounts augments Bucket with aggregate counts for Get/List.
type BucketWithCounts struct {
	Bucket
	ObjectCount    int64
	TotalSizeBytes int64
}

// DetectionMethod mirrors mimesniff.Method as a catalog-stable string.
type DetectionMethod string

const (
	DetectionMagic     DetectionMethod = "magic"
	DetectionExtension DetectionMethod = "extension"
	DetectionHeader    DetectionMethod = "header"
	DetectionHeuristic DetectionMethod = "heuristic"
	DetectionFallback  DetectionMethod = "fallback"
)

// Object is a row of the Objects table.
type Object struct {
	ID                  int64
	Bucket              string
	Filename            string
	DocID               string
	Year                int
	SizeBytes           int64
	SHA256              [32]byte
	ServedContentType   string
	DetectedContentType string
	ClaimedContentType  string
	DetectedExtension   string
	DetectionMethod     DetectionMethod
	IsMismatch          bool
	IsDangerousMismatch bool
	CreatedAt           time.Time
}

// ListPage is one page of ListObjects.
type ListPage struct {
	Objects    []Object
	TotalCount int64
}

// Store is the interface the Storage Engine and Bucket Manager depend on.
// Bind a concrete implementation (SQLiteStore) at process start, per the
// dependency-injection design note in spec.md §9.
type Store interface {
	CreateBucket(ctx context.Context, name string) (Bucket, error)
	EnsureBucket(ctx context.Context, name string) (Bucket, error)
	GetBucket(ctx context.Context, name string) (BucketWithCounts, error)
	ListBuckets(ctx context.Context) ([]BucketWithCounts, error)
	DeleteBucket(ctx context.Context, name string) error
	BucketExists(ctx context.Context, name string) (bool, error)

	InsertObject(ctx context.Context, obj Object) (Object, error)
	GetObjectByDocID(ctx context.Context, bucket, docID string) (Object, error)
	GetObjectByFilename(ctx context.Context, bucket, filename string) (Object, error)
	DeleteObjectByDocID(ctx context.Context, bucket, docID string) error
	DeleteObjectByFilename(ctx context.Context, bucket, filename string) error
	ObjectExists(ctx context.Context, bucket, filename string) (bool, error)
	ListObjects(ctx context.Context, bucket, prefix string, page, pageSize int) (ListPage, error)

	// GetObjectByDocIDAny and DeleteObjectByDocIDAny look a row up by its
	// globally-unique DocId alone, backing the cross-bucket
	// /api/objects/{docId} routes in spec.md §4.7.
	GetObjectByDocIDAny(ctx context.Context, docID string) (Object, error)
	DeleteObjectByDocIDAny(ctx context.Context, docID string) error

	Close() error
}
