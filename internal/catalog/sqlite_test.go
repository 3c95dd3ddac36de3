package catalog_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blobsvc/blobsvc/internal/catalog"
)

func newTestStore(t *testing.T) *catalog.SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := catalog.OpenSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetBucket(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.CreateBucket(ctx, "invoices")
	require.NoError(t, err)

	_, err = s.CreateBucket(ctx, "invoices")
	require.ErrorIs(t, err, catalog.ErrBucketAlreadyExists)

	got, err := s.GetBucket(ctx, "invoices")
	require.NoError(t, err)
	require.Equal(t, "invoices", got.Name)
	require.Zero(t, got.ObjectCount)
}

func TestEnsureBucketIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	b1, err := s.EnsureBucket(ctx, "logs")
	require.NoError(t, err)
	b2, err := s.EnsureBucket(ctx, "logs")
	require.NoError(t, err)
	require.Equal(t, b1.Name, b2.Name)
}

func TestDeleteBucketRequiresEmpty(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.CreateBucket(ctx, "invoices")
	require.NoError(t, err)

	_, err = s.InsertObject(ctx, catalog.Object{
		Bucket:              "invoices",
		Filename:            "a.pdf",
		DocID:               "2024-aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa",
		Year:                2024,
		SizeBytes:           10,
		ServedContentType:   "application/pdf",
		DetectedContentType: "application/pdf",
		DetectedExtension:   "pdf",
		DetectionMethod:     catalog.DetectionMagic,
	})
	require.NoError(t, err)

	err = s.DeleteBucket(ctx, "invoices")
	require.ErrorIs(t, err, catalog.ErrBucketNotEmpty)

	require.NoError(t, s.DeleteObjectByFilename(ctx, "invoices", "a.pdf"))
	require.NoError(t, s.DeleteBucket(ctx, "invoices"))
}

func TestObjectUniqueness(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.CreateBucket(ctx, "invoices")
	require.NoError(t, err)

	obj := catalog.Object{
		Bucket:              "invoices",
		Filename:            "dup.txt",
		DocID:               "2024-bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb",
		Year:                2024,
		SizeBytes:           3,
		ServedContentType:   "text/plain",
		DetectedContentType: "text/plain",
		DetectedExtension:   "txt",
		DetectionMethod:     catalog.DetectionHeuristic,
	}
	_, err = s.InsertObject(ctx, obj)
	require.NoError(t, err)

	obj.DocID = "2024-cccccccc-cccc-cccc-cccc-cccccccccccc"
	_, err = s.InsertObject(ctx, obj)
	require.ErrorIs(t, err, catalog.ErrObjectAlreadyExists)
}

func TestListObjectsPagination(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.CreateBucket(ctx, "invoices")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := s.InsertObject(ctx, catalog.Object{
			Bucket:              "invoices",
			Filename:            filepath.Base(filepath.Join("f", string(rune('a'+i))+".txt")),
			DocID:               docIDFor(i),
			Year:                2024,
			SizeBytes:           1,
			ServedContentType:   "text/plain",
			DetectedContentType: "text/plain",
			DetectedExtension:   "txt",
			DetectionMethod:     catalog.DetectionHeuristic,
		})
		require.NoError(t, err)
	}

	page, err := s.ListObjects(ctx, "invoices", "", 1, 2)
	require.NoError(t, err)
	require.Len(t, page.Objects, 2)
	require.EqualValues(t, 5, page.TotalCount)
}

func docIDFor(i int) string {
	letters := "abcdefghij"
	c := string(letters[i])
	return "2024-" + c + c + c + c + c + c + c + c + "-" + c + c + c + c + "-" + c + c + c + c + "-" + c + c + c + c + "-" + c + c + c + c + c + c + c + c + c + c + c + c
}
