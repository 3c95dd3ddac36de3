package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/blobsvc/blobsvc/internal/catalog"
)

// DeleteByID deletes the catalog row first, then best-effort deletes the
// blob file and, if it is now empty, the enclosing directory. Per
// spec.md §4.5c, blob-deletion errors after a successful row removal
// are logged but not surfaced.
func (e *Engine) DeleteByID(ctx context.Context, bucket, docID string) error {
	obj, err := e.store.GetObjectByDocID(ctx, bucket, docID)
	if err != nil {
		if errors.Is(err, catalog.ErrObjectNotFound) {
			return ErrObjectNotFound
		}
		return wrapStorageErr("get object by docid", err)
	}
	return e.deleteObject(ctx, obj, func(ctx context.Context) error {
		return e.store.DeleteObjectByDocID(ctx, bucket, docID)
	})
}

// DeleteByName is the by-filename counterpart of DeleteByID.
func (e *Engine) DeleteByName(ctx context.Context, bucket, filename string) error {
	obj, err := e.store.GetObjectByFilename(ctx, bucket, filename)
	if err != nil {
		if errors.Is(err, catalog.ErrObjectNotFound) {
			return ErrObjectNotFound
		}
		return wrapStorageErr("get object by filename", err)
	}
	return e.deleteObject(ctx, obj, func(ctx context.Context) error {
		return e.store.DeleteObjectByFilename(ctx, bucket, filename)
	})
}

// DeleteByDocIDAny resolves docID across every bucket, backing the
// cross-bucket DELETE /api/objects/{docId} route of spec.md §4.7.
func (e *Engine) DeleteByDocIDAny(ctx context.Context, docID string) error {
	obj, err := e.store.GetObjectByDocIDAny(ctx, docID)
	if err != nil {
		if errors.Is(err, catalog.ErrObjectNotFound) {
			return ErrObjectNotFound
		}
		return wrapStorageErr("get object by docid", err)
	}
	return e.deleteObject(ctx, obj, func(ctx context.Context) error {
		return e.store.DeleteObjectByDocIDAny(ctx, docID)
	})
}

func (e *Engine) deleteObject(ctx context.Context, obj catalog.Object, deleteRow func(context.Context) error) error {
	if err := deleteRow(ctx); err != nil {
		if errors.Is(err, catalog.ErrObjectNotFound) {
			return ErrObjectNotFound
		}
		return wrapStorageErr("delete catalog row", err)
	}

	path, err := e.blobPath(obj)
	if err != nil {
		e.log.Error("failed to compute blob path during delete", "docId", obj.DocID, "error", err)
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		e.log.Error("failed to delete blob after catalog row removal", "docId", obj.DocID, "path", path, "error", err)
		return nil
	}
	cleanupEmptyDirs(filepath.Dir(path), e.cfg.RootPath)
	return nil
}
