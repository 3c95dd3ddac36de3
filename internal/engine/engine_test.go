package engine_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blobsvc/blobsvc/internal/catalog"
	"github.com/blobsvc/blobsvc/internal/docid"
	"github.com/blobsvc/blobsvc/internal/engine"
)

func newTestEngine(t *testing.T) (*engine.Engine, catalog.Store) {
	t.Helper()
	store, err := catalog.OpenSQLiteStore(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	eng, err := engine.New(store, slog.Default(), engine.Config{
		RootPath:           filepath.Join(t.TempDir(), "blobs"),
		InlineContentTypes: []string{"text/plain"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })

	return eng, store
}

func TestUploadDownloadDeleteRoundtrip(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	_, err := eng.CreateBucket(ctx, "invoices")
	require.NoError(t, err)

	body := bytes.NewReader([]byte("hello world"))
	resp, err := eng.Upload(ctx, "invoices", "greeting.txt", body, "text/plain", 0)
	require.NoError(t, err)
	require.Equal(t, "invoices", resp.Bucket)
	require.Equal(t, "greeting.txt", resp.Filename)
	require.EqualValues(t, 11, resp.SizeBytes)
	require.Equal(t, "text/plain", resp.ServedContentType)
	require.NotEmpty(t, resp.DocID)

	dl, err := eng.DownloadByID(ctx, "invoices", resp.DocID)
	require.NoError(t, err)
	data, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	dl.Body.Close()
	require.Equal(t, "hello world", string(data))

	disposition := eng.ContentDisposition(dl.Object)
	require.Contains(t, disposition, "inline")

	require.NoError(t, eng.DeleteByID(ctx, "invoices", resp.DocID))

	_, err = eng.DownloadByID(ctx, "invoices", resp.DocID)
	require.ErrorIs(t, err, engine.ErrObjectNotFound)
}

func TestUploadRejectsMissingBucket(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	_, err := eng.Upload(ctx, "missing", "a.txt", bytes.NewReader([]byte("x")), "", 0)
	require.ErrorIs(t, err, engine.ErrBucketNotFound)
}

func TestUploadRejectsDuplicateFilename(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	_, err := eng.CreateBucket(ctx, "docs")
	require.NoError(t, err)

	_, err = eng.Upload(ctx, "docs", "a.txt", bytes.NewReader([]byte("one")), "", 0)
	require.NoError(t, err)

	_, err = eng.Upload(ctx, "docs", "a.txt", bytes.NewReader([]byte("two")), "", 0)
	require.ErrorIs(t, err, engine.ErrObjectAlreadyExists)
}

func TestUploadDowngradesDisallowedExtension(t *testing.T) {
	ctx := context.Background()
	store, err := catalog.OpenSQLiteStore(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	eng, err := engine.New(store, slog.Default(), engine.Config{
		RootPath:          filepath.Join(t.TempDir(), "blobs"),
		AllowedExtensions: []string{"png"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })

	_, err = eng.CreateBucket(ctx, "docs")
	require.NoError(t, err)

	resp, err := eng.Upload(ctx, "docs", "report.pdf", bytes.NewReader([]byte("%PDF-1.4 body")), "", 0)
	require.NoError(t, err)
	require.Equal(t, "bin", resp.DetectedExtension)
}

func TestUploadEnforcesMaxSize(t *testing.T) {
	ctx := context.Background()
	store, err := catalog.OpenSQLiteStore(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	eng, err := engine.New(store, slog.Default(), engine.Config{
		RootPath:       filepath.Join(t.TempDir(), "blobs"),
		MaxUploadBytes: 4,
	})
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })

	_, err = eng.CreateBucket(ctx, "docs")
	require.NoError(t, err)

	_, err = eng.Upload(ctx, "docs", "big.txt", bytes.NewReader([]byte("way too big")), "", 0)
	require.ErrorIs(t, err, engine.ErrFileTooLarge)
}

func TestHeadByIDAndNameConfirmExistenceWithoutOpeningBlob(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	_, err := eng.CreateBucket(ctx, "invoices")
	require.NoError(t, err)

	resp, err := eng.Upload(ctx, "invoices", "greeting.txt", bytes.NewReader([]byte("hello world")), "text/plain", 0)
	require.NoError(t, err)

	obj, err := eng.HeadByID(ctx, "invoices", resp.DocID)
	require.NoError(t, err)
	require.Equal(t, resp.DocID, obj.DocID)
	require.EqualValues(t, 11, obj.SizeBytes)

	obj, err = eng.HeadByName(ctx, "invoices", "greeting.txt")
	require.NoError(t, err)
	require.Equal(t, resp.DocID, obj.DocID)

	_, err = eng.HeadByID(ctx, "invoices", "2026-00000000-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, engine.ErrObjectNotFound)
}

func TestHeadReportsBlobMissingAsDistinctFromObjectNotFound(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "blobs")
	store, err := catalog.OpenSQLiteStore(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	eng, err := engine.New(store, slog.Default(), engine.Config{RootPath: root})
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })

	_, err = eng.CreateBucket(ctx, "docs")
	require.NoError(t, err)

	resp, err := eng.Upload(ctx, "docs", "a.txt", bytes.NewReader([]byte("body")), "", 0)
	require.NoError(t, err)

	blobPath, err := docid.BlobPath(root, resp.DocID, resp.DetectedExtension)
	require.NoError(t, err)
	require.NoError(t, os.Remove(blobPath))

	_, err = eng.HeadByID(ctx, "docs", resp.DocID)
	require.ErrorIs(t, err, engine.ErrBlobMissing)
	require.ErrorIs(t, err, engine.ErrStorageError)

	_, err = eng.DownloadByID(ctx, "docs", resp.DocID)
	require.ErrorIs(t, err, engine.ErrBlobMissing)
}

func TestDeleteByNameNotFound(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	_, err := eng.CreateBucket(ctx, "docs")
	require.NoError(t, err)

	err = eng.DeleteByName(ctx, "docs", "nope.txt")
	require.ErrorIs(t, err, engine.ErrObjectNotFound)
}
