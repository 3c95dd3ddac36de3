package engine

import (
	"context"

	"github.com/blobsvc/blobsvc/internal/catalog"
)

// ListObjects proxies to the catalog store's paginated listing, per
// spec.md §4.7's `GET /api/buckets/{b}/objects` endpoint.
func (e *Engine) ListObjects(ctx context.Context, bucket, prefix string, page, pageSize int) (catalog.ListPage, error) {
	lp, err := e.store.ListObjects(ctx, bucket, prefix, page, pageSize)
	if err != nil {
		return catalog.ListPage{}, wrapStorageErr("list objects", err)
	}
	return lp, nil
}
