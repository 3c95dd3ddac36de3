package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/blobsvc/blobsvc/internal/catalog"
	"github.com/blobsvc/blobsvc/internal/docid"
	"github.com/blobsvc/blobsvc/internal/hasher"
	"github.com/blobsvc/blobsvc/internal/mimesniff"
	"github.com/blobsvc/blobsvc/internal/validate"
)

// Upload implements spec.md §4.5: validate, generate a DocId, identify
// the MIME type from the first chunk, stream the rest to a temp file
// while hashing, rename atomically, and commit the catalog row.
func (e *Engine) Upload(ctx context.Context, bucket, filename string, body io.Reader, claimedContentType string, year int) (ObjectResponse, error) {
	if res := validate.BucketName(bucket); !res.OK {
		return ObjectResponse{}, &ValidationError{Err: ErrInvalidBucketName, Message: res.Reason}
	}
	if res := validate.Filename(filename); !res.OK {
		return ObjectResponse{}, &ValidationError{Err: ErrInvalidFilename, Message: res.Reason}
	}

	exists, err := e.store.BucketExists(ctx, bucket)
	if err != nil {
		return ObjectResponse{}, wrapStorageErr("check bucket exists", err)
	}
	if !exists {
		return ObjectResponse{}, ErrBucketNotFound
	}

	if taken, err := e.store.ObjectExists(ctx, bucket, filename); err != nil {
		return ObjectResponse{}, wrapStorageErr("check object exists", err)
	} else if taken {
		return ObjectResponse{}, ErrObjectAlreadyExists
	}

	docID := docid.Generate(year)
	resolvedYear, _ := docid.Year(docID)

	firstChunk := make([]byte, e.cfg.firstChunkSize())
	n, readErr := io.ReadFull(body, firstChunk)
	if readErr != nil && readErr != io.ErrUnexpectedEOF && readErr != io.EOF {
		return ObjectResponse{}, wrapStorageErr("read first chunk", readErr)
	}
	firstChunk = firstChunk[:n]

	sniff := mimesniff.Identify(firstChunk, filename, claimedContentType)
	ext := sniff.DetectedExtension
	if ext == "" {
		ext = "bin"
	}
	if !e.cfg.extensionAllowed(ext) {
		e.log.Debug("extension not on allow-list, downgrading to bin", "bucket", bucket, "filename", filename, "detectedExtension", ext)
		ext = "bin"
	}

	dir, err := docid.Dir(e.cfg.RootPath, docID)
	if err != nil {
		return ObjectResponse{}, wrapStorageErr("build directory", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ObjectResponse{}, wrapStorageErr("create directory", err)
	}

	tmpPath, err := docid.TempPath(e.cfg.RootPath, docID)
	if err != nil {
		cleanupEmptyDirs(dir, e.cfg.RootPath)
		return ObjectResponse{}, wrapStorageErr("build temp path", err)
	}

	finalPath, err := docid.BlobPath(e.cfg.RootPath, docID, ext)
	if err != nil {
		cleanupEmptyDirs(dir, e.cfg.RootPath)
		return ObjectResponse{}, wrapStorageErr("build blob path", err)
	}

	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		cleanupEmptyDirs(dir, e.cfg.RootPath)
		return ObjectResponse{}, wrapStorageErr("create temp file", err)
	}

	renamed := false
	defer func() {
		tmpFile.Close()
		if !renamed {
			os.Remove(tmpPath)
			cleanupEmptyDirs(dir, e.cfg.RootPath)
		}
	}()

	h := hasher.New()
	writer := io.MultiWriter(tmpFile, h)

	written, err := io.Copy(writer, bytes.NewReader(firstChunk))
	if err != nil {
		return ObjectResponse{}, wrapStorageErr("write first chunk", err)
	}

	maxBytes := e.cfg.maxUploadBytes()
	if written > maxBytes {
		return ObjectResponse{}, &ValidationError{Err: ErrFileTooLarge, Message: "upload exceeds the maximum allowed size"}
	}

	rest := io.LimitReader(body, maxBytes-written+1)
	n2, err := copyWithCancellation(ctx, writer, rest, e.cfg.uploadBufferSize())
	if err != nil {
		return ObjectResponse{}, err
	}
	written += n2
	if written > maxBytes {
		return ObjectResponse{}, &ValidationError{Err: ErrFileTooLarge, Message: "upload exceeds the maximum allowed size"}
	}

	digest := h.Finalize()

	if err := tmpFile.Close(); err != nil {
		return ObjectResponse{}, wrapStorageErr("close temp file", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return ObjectResponse{}, wrapStorageErr("rename blob into place", err)
	}
	renamed = true

	servedContentType := sniff.DetectedContentType
	obj := catalog.Object{
		Bucket:              bucket,
		Filename:            filename,
		DocID:               docID,
		Year:                resolvedYear,
		SizeBytes:           written,
		SHA256:              digest,
		ServedContentType:   servedContentType,
		DetectedContentType: sniff.DetectedContentType,
		ClaimedContentType:  claimedContentType,
		DetectedExtension:   ext,
		DetectionMethod:     catalog.DetectionMethod(sniff.Method),
		IsMismatch:          sniff.IsMismatch,
		IsDangerousMismatch: sniff.IsDangerousMismatch,
		CreatedAt:           time.Now().UTC(),
	}

	inserted, err := e.store.InsertObject(ctx, obj)
	if err != nil {
		if errors.Is(err, catalog.ErrObjectAlreadyExists) {
			// Two uploads of the same (bucket, filename) raced past the
			// pre-check; the unique index rejected the loser. This
			// request's blob is already on disk under finalPath — clean
			// it up since the catalog row belongs to the winner.
			os.Remove(finalPath)
			cleanupEmptyDirs(filepath.Dir(finalPath), e.cfg.RootPath)
			return ObjectResponse{}, ErrObjectAlreadyExists
		}
		return ObjectResponse{}, wrapStorageErr("insert catalog row", err)
	}

	return responseFromObject(inserted), nil
}

// copyWithCancellation copies src into dst, checking ctx between reads
// so cancellation is honored mid-stream, per spec.md §4.5 step 5.
func copyWithCancellation(ctx context.Context, dst io.Writer, src io.Reader, bufSize int) (int64, error) {
	buf := make([]byte, bufSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, wrapStorageErr("upload cancelled", err)
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			wn, werr := dst.Write(buf[:n])
			written += int64(wn)
			if werr != nil {
				return written, wrapStorageErr("write to temp file", werr)
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, wrapStorageErr("read upload body", rerr)
		}
	}
}
