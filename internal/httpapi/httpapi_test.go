package httpapi_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blobsvc/blobsvc/internal/catalog"
	"github.com/blobsvc/blobsvc/internal/engine"
	"github.com/blobsvc/blobsvc/internal/httpapi"
)

func newTestServer(t *testing.T) http.Handler {
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

	return httpapi.NewServer(eng, slog.Default()).Router()
}

func TestBucketLifecycle(t *testing.T) {
	h := newTestServer(t)

	body, _ := json.Marshal(map[string]string{"name": "invoices"})
	req := httptest.NewRequest(http.MethodPost, "/api/buckets", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/buckets", bytes.NewReader(body))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/buckets", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "invoices")

	req = httptest.NewRequest(http.MethodDelete, "/api/buckets/invoices", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUploadAndDownloadByName(t *testing.T) {
	h := newTestServer(t)

	createBucket(t, h, "docs")

	req := httptest.NewRequest(http.MethodPut, "/api/buckets/docs/objects/greeting.txt", bytes.NewReader([]byte("hello")))
	req.Header.Set(httpAPIClaimedHeader, "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "greeting.txt", created["filename"])

	req = httptest.NewRequest(http.MethodGet, "/api/buckets/docs/objects/by-name/greeting.txt", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "hello", rec.Body.String())
	require.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "inline")
}

func TestHeadByNameReturnsHeadersWithoutBody(t *testing.T) {
	h := newTestServer(t)
	createBucket(t, h, "docs")

	req := httptest.NewRequest(http.MethodPut, "/api/buckets/docs/objects/greeting.txt", bytes.NewReader([]byte("hello")))
	req.Header.Set(httpAPIClaimedHeader, "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodHead, "/api/buckets/docs/objects/by-name/greeting.txt", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Body.String())
	require.Equal(t, "5", rec.Header().Get("Content-Length"))
	require.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
}

func TestFormUpload(t *testing.T) {
	h := newTestServer(t)
	createBucket(t, h, "uploads")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "report.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 minimal body"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/buckets/uploads/objects/form", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "report.pdf", created["filename"])
}

func TestDownloadMissingObjectReturns404(t *testing.T) {
	h := newTestServer(t)
	createBucket(t, h, "docs")

	req := httptest.NewRequest(http.MethodGet, "/api/buckets/docs/objects/by-name/nope.txt", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var env map[string]map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, "ObjectNotFound", env["error"]["code"])
	require.NotEmpty(t, env["error"]["requestId"])
}

func TestCrossBucketDownloadAndDelete(t *testing.T) {
	h := newTestServer(t)
	createBucket(t, h, "docs")

	req := httptest.NewRequest(http.MethodPut, "/api/buckets/docs/objects/a.txt", bytes.NewReader([]byte("abc")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	docID := created["docId"].(string)

	req = httptest.NewRequest(http.MethodGet, "/api/objects/"+docID, nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "abc", rec.Body.String())

	req = httptest.NewRequest(http.MethodDelete, "/api/objects/"+docID, nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

const httpAPIClaimedHeader = "X-Claimed-Content-Type"

func createBucket(t *testing.T, h http.Handler, name string) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"name": name})
	req := httptest.NewRequest(http.MethodPost, "/api/buckets", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
}
