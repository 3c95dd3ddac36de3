package engine

import (
	"context"
	"errors"

	"github.com/blobsvc/blobsvc/internal/catalog"
	"github.com/blobsvc/blobsvc/internal/validate"
)

// CreateBucket validates name, inserts a row, and returns the bucket
// with zero counts. Duplicate names fail Conflict, per spec.md §4.6.
func (e *Engine) CreateBucket(ctx context.Context, name string) (catalog.BucketWithCounts, error) {
	if res := validate.BucketName(name); !res.OK {
		return catalog.BucketWithCounts{}, &ValidationError{Err: ErrInvalidBucketName, Message: res.Reason}
	}
	b, err := e.store.CreateBucket(ctx, name)
	if err != nil {
		if errors.Is(err, catalog.ErrBucketAlreadyExists) {
			return catalog.BucketWithCounts{}, ErrBucketAlreadyExists
		}
		return catalog.BucketWithCounts{}, wrapStorageErr("create bucket", err)
	}
	return catalog.BucketWithCounts{Bucket: b}, nil
}

// EnsureBucket is idempotent: it returns the existing bucket on
// conflict instead of failing.
func (e *Engine) EnsureBucket(ctx context.Context, name string) (catalog.BucketWithCounts, error) {
	if res := validate.BucketName(name); !res.OK {
		return catalog.BucketWithCounts{}, &ValidationError{Err: ErrInvalidBucketName, Message: res.Reason}
	}
	b, err := e.store.EnsureBucket(ctx, name)
	if err != nil {
		return catalog.BucketWithCounts{}, wrapStorageErr("ensure bucket", err)
	}
	return catalog.BucketWithCounts{Bucket: b}, nil
}

// GetBucket populates objectCount and totalSizeBytes from the
// aggregate query the catalog store exposes.
func (e *Engine) GetBucket(ctx context.Context, name string) (catalog.BucketWithCounts, error) {
	b, err := e.store.GetBucket(ctx, name)
	if err != nil {
		if errors.Is(err, catalog.ErrBucketNotFound) {
			return catalog.BucketWithCounts{}, ErrBucketNotFound
		}
		return catalog.BucketWithCounts{}, wrapStorageErr("get bucket", err)
	}
	return b, nil
}

// ListBuckets returns every bucket with its aggregate counts.
func (e *Engine) ListBuckets(ctx context.Context) ([]catalog.BucketWithCounts, error) {
	bs, err := e.store.ListBuckets(ctx)
	if err != nil {
		return nil, wrapStorageErr("list buckets", err)
	}
	return bs, nil
}

// DeleteBucket requires the bucket to have zero objects.
func (e *Engine) DeleteBucket(ctx context.Context, name string) error {
	err := e.store.DeleteBucket(ctx, name)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrBucketNotFound):
			return ErrBucketNotFound
		case errors.Is(err, catalog.ErrBucketNotEmpty):
			return ErrBucketNotEmpty
		default:
			return wrapStorageErr("delete bucket", err)
		}
	}
	return nil
}
