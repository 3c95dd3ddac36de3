package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors the HTTP surface maps to status codes, per spec.md §6/§7.
var (
	ErrInvalidBucketName   = errors.New("engine: invalid bucket name")
	ErrInvalidFilename     = errors.New("engine: invalid filename")
	ErrBucketNotFound      = errors.New("engine: bucket not found")
	ErrBucketAlreadyExists = errors.New("engine: bucket already exists")
	ErrBucketNotEmpty      = errors.New("engine: bucket not empty")
	ErrObjectNotFound      = errors.New("engine: object not found")
	ErrObjectAlreadyExists = errors.New("engine: object already exists")
	ErrFileTooLarge        = errors.New("engine: file too large")
	ErrStorageError        = errors.New("engine: storage error")

	// ErrBlobMissing marks the case where a catalog row exists but its
	// blob file is absent from disk, per spec.md §4.5b/§7. It wraps
	// ErrStorageError so generic storage-error handling still matches,
	// while letting the HTTP layer tell it apart from a plain 404.
	ErrBlobMissing = fmt.Errorf("engine: blob missing on disk: %w", ErrStorageError)
)

// ValidationError carries the human-readable rule violation from the
// Validators component (spec.md §4.1) alongside one of the sentinels
// above, so the HTTP layer can surface the message verbatim.
type ValidationError struct {
	Err     error
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

// wrapStorageErr wraps an unexpected catalog/filesystem failure as
// ErrStorageError, tagging it with the operation that failed so it can
// be logged with enough context at the HTTP boundary.
func wrapStorageErr(op string, err error) error {
	return fmt.Errorf("engine: %s: %w: %w", op, err, ErrStorageError)
}
