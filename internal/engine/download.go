package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/blobsvc/blobsvc/internal/catalog"
	"github.com/blobsvc/blobsvc/internal/docid"
)

// Download is an open blob stream plus the metadata row it belongs to.
// Callers must Close Body.
type Download struct {
	Object catalog.Object
	Body   *os.File
}

// DownloadByID opens the blob for bucket/docID for reading.
func (e *Engine) DownloadByID(ctx context.Context, bucket, docID string) (Download, error) {
	obj, err := e.store.GetObjectByDocID(ctx, bucket, docID)
	if err != nil {
		if errors.Is(err, catalog.ErrObjectNotFound) {
			return Download{}, ErrObjectNotFound
		}
		return Download{}, wrapStorageErr("get object by docid", err)
	}
	return e.openBlob(obj)
}

// DownloadByName opens the blob for bucket/filename for reading.
func (e *Engine) DownloadByName(ctx context.Context, bucket, filename string) (Download, error) {
	obj, err := e.store.GetObjectByFilename(ctx, bucket, filename)
	if err != nil {
		if errors.Is(err, catalog.ErrObjectNotFound) {
			return Download{}, ErrObjectNotFound
		}
		return Download{}, wrapStorageErr("get object by filename", err)
	}
	return e.openBlob(obj)
}

// DownloadByDocIDAny resolves docID across every bucket, backing the
// cross-bucket GET /api/objects/{docId} route of spec.md §4.7.
func (e *Engine) DownloadByDocIDAny(ctx context.Context, docID string) (Download, error) {
	obj, err := e.store.GetObjectByDocIDAny(ctx, docID)
	if err != nil {
		if errors.Is(err, catalog.ErrObjectNotFound) {
			return Download{}, ErrObjectNotFound
		}
		return Download{}, wrapStorageErr("get object by docid", err)
	}
	return e.openBlob(obj)
}

// HeadByID returns the metadata row without opening the blob, but still
// confirms the blob file exists on disk, per spec.md §4.5b.
func (e *Engine) HeadByID(ctx context.Context, bucket, docID string) (catalog.Object, error) {
	obj, err := e.store.GetObjectByDocID(ctx, bucket, docID)
	if err != nil {
		if errors.Is(err, catalog.ErrObjectNotFound) {
			return catalog.Object{}, ErrObjectNotFound
		}
		return catalog.Object{}, wrapStorageErr("get object by docid", err)
	}
	if err := e.statBlob(obj); err != nil {
		return catalog.Object{}, err
	}
	return obj, nil
}

// HeadByName is the by-filename counterpart of HeadByID.
func (e *Engine) HeadByName(ctx context.Context, bucket, filename string) (catalog.Object, error) {
	obj, err := e.store.GetObjectByFilename(ctx, bucket, filename)
	if err != nil {
		if errors.Is(err, catalog.ErrObjectNotFound) {
			return catalog.Object{}, ErrObjectNotFound
		}
		return catalog.Object{}, wrapStorageErr("get object by filename", err)
	}
	if err := e.statBlob(obj); err != nil {
		return catalog.Object{}, err
	}
	return obj, nil
}

func (e *Engine) blobPath(obj catalog.Object) (string, error) {
	return docid.BlobPath(e.cfg.RootPath, obj.DocID, obj.DetectedExtension)
}

func (e *Engine) statBlob(obj catalog.Object) error {
	path, err := e.blobPath(obj)
	if err != nil {
		return wrapStorageErr("build blob path", err)
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			e.log.Error("blob missing for catalog row", "docId", obj.DocID, "path", path)
			return fmt.Errorf("engine: blob missing on disk for %s: %w", obj.DocID, ErrBlobMissing)
		}
		return wrapStorageErr("stat blob", err)
	}
	return nil
}

func (e *Engine) openBlob(obj catalog.Object) (Download, error) {
	path, err := e.blobPath(obj)
	if err != nil {
		return Download{}, wrapStorageErr("build blob path", err)
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			e.log.Error("blob missing for catalog row", "docId", obj.DocID, "path", path)
			return Download{}, fmt.Errorf("engine: blob missing on disk for %s: %w", obj.DocID, ErrBlobMissing)
		}
		return Download{}, wrapStorageErr("open blob", err)
	}
	return Download{Object: obj, Body: f}, nil
}

// ContentDisposition computes the Content-Disposition value for obj,
// per spec.md §4.5b: attachment if dangerous, inline if the served
// content type is in the configured allow-list, attachment otherwise.
// The filename is encoded per RFC 5987 so non-ASCII names survive.
func (e *Engine) ContentDisposition(obj catalog.Object) string {
	kind := "attachment"
	if !obj.IsDangerousMismatch && e.cfg.isInlineContentType(obj.ServedContentType) {
		kind = "inline"
	}
	return fmt.Sprintf(`%s; filename="%s"; filename*=UTF-8''%s`, kind, asciiFallback(obj.Filename), rfc5987Encode(obj.Filename))
}

// asciiFallback strips non-ASCII bytes for the legacy filename param,
// which RFC 6266 readers ignore in favor of filename* when both are
// present.
func asciiFallback(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 0x20 && c < 0x7F && c != '"' {
			out = append(out, c)
		} else {
			out = append(out, '_')
		}
	}
	return string(out)
}

// rfc5987AttrChars are the bytes RFC 5987 allows unescaped in an
// ext-value (attr-char): unreserved plus a handful of sub-delims.
const rfc5987AttrChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!#$&+-.^_`|~"

func rfc5987Encode(name string) string {
	var out []byte
	for i := 0; i < len(name); i++ {
		c := name[i]
		if isRFC5987AttrChar(c) {
			out = append(out, c)
		} else {
			out = append(out, '%', hexDigitUpper(c>>4), hexDigitUpper(c&0x0F))
		}
	}
	return string(out)
}

func isRFC5987AttrChar(c byte) bool {
	for i := 0; i < len(rfc5987AttrChars); i++ {
		if rfc5987AttrChars[i] == c {
			return true
		}
	}
	return false
}

func hexDigitUpper(n byte) byte {
	const digits = "0123456789ABCDEF"
	return digits[n]
}
