// Package uploadclient is the Migration Worker's HTTP client for the
// Storage Engine's own API, per spec.md §4.8. It is deliberately a
// plain HTTP client against internal/httpapi's routes, not a
// privileged shortcut into internal/engine, so a migration can target
// a remote storage engine just as well as a co-located one.
package uploadclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
)

// CallTimeout is the per-call timeout spec.md §5 mandates for the
// Upload Client.
const CallTimeout = 5 * time.Minute

const claimedContentTypeHeader = "X-Claimed-Content-Type"

// UploadResult is the Upload Client's contract return value, per
// spec.md §4.8.
type UploadResult struct {
	Success             bool
	AlreadyExists       bool
	DocID               string
	SHA256Hex           string
	DetectedContentType string
	ErrorMessage        string
}

// Client talks to a Storage Engine's HTTP surface over the bucket and
// object routes spec.md §4.7 defines.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
	log     *slog.Logger
}

// New builds a Client against baseURL (e.g. "http://localhost:8080"),
// wrapping a retrying HTTP client the way the rest of the pack's
// long-running HTTP clients do (distribution, perkeep, storj all lean
// on hashicorp/go-retryablehttp rather than a bare http.Client).
func New(baseURL string, log *slog.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = CallTimeout
	rc.RetryMax = 3
	// Hand back the last response once retries are exhausted, so Upload
	// can report its status and body instead of a bare "giving up" error.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = nil // the worker's slog.Logger narrates at a higher level
	return &Client{baseURL: baseURL, http: rc, log: log}
}

// EnsureBucketExists GETs the bucket; on 404 it POSTs to create it,
// per spec.md §4.8.
func (c *Client) EnsureBucketExists(ctx context.Context, name string) (bool, error) {
	getReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/buckets/"+url.PathEscape(name), nil)
	if err != nil {
		return false, fmt.Errorf("uploadclient: build ensure-bucket GET: %w", err)
	}
	resp, err := c.http.Do(getReq)
	if err != nil {
		return false, fmt.Errorf("uploadclient: ensure-bucket GET: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return true, nil
	}
	if resp.StatusCode != http.StatusNotFound {
		return false, fmt.Errorf("uploadclient: ensure-bucket GET: unexpected status %d", resp.StatusCode)
	}

	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return false, err
	}
	postReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/buckets", body)
	if err != nil {
		return false, fmt.Errorf("uploadclient: build ensure-bucket POST: %w", err)
	}
	postReq.Header.Set("Content-Type", "application/json")
	postResp, err := c.http.Do(postReq)
	if err != nil {
		return false, fmt.Errorf("uploadclient: ensure-bucket POST: %w", err)
	}
	defer postResp.Body.Close()

	switch postResp.StatusCode {
	case http.StatusCreated, http.StatusOK, http.StatusConflict:
		return true, nil
	default:
		return false, fmt.Errorf("uploadclient: ensure-bucket POST: unexpected status %d", postResp.StatusCode)
	}
}

// Upload PUTs data to the bucket/filename/year the migrator resolved
// for a single legacy record, per spec.md §4.8.
func (c *Client) Upload(ctx context.Context, bucket, filename string, data io.Reader, claimedContentType string, year int) (UploadResult, error) {
	path := fmt.Sprintf("/api/buckets/%s/objects/%s", url.PathEscape(bucket), escapeObjectKey(filename))
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return UploadResult{}, fmt.Errorf("uploadclient: build upload URL: %w", err)
	}
	q := u.Query()
	q.Set("year", fmt.Sprintf("%d", year))
	u.RawQuery = q.Encode()

	body, err := io.ReadAll(data)
	if err != nil {
		return UploadResult{}, fmt.Errorf("uploadclient: read upload body: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPut, u.String(), body)
	if err != nil {
		return UploadResult{}, fmt.Errorf("uploadclient: build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if claimedContentType != "" {
		req.Header.Set(claimedContentTypeHeader, claimedContentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return UploadResult{Success: false, ErrorMessage: err.Error()}, nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return UploadResult{Success: false, ErrorMessage: err.Error()}, nil
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var parsed struct {
			DocID               string `json:"docId"`
			SHA256              string `json:"sha256"`
			DetectedContentType string `json:"detectedContentType"`
		}
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return UploadResult{Success: false, ErrorMessage: fmt.Sprintf("decode response: %v", err)}, nil
		}
		return UploadResult{
			Success:             true,
			DocID:               parsed.DocID,
			SHA256Hex:           parsed.SHA256,
			DetectedContentType: parsed.DetectedContentType,
		}, nil
	case resp.StatusCode == http.StatusConflict:
		return UploadResult{Success: true, AlreadyExists: true}, nil
	default:
		return UploadResult{Success: false, ErrorMessage: fmt.Sprintf("status %d: %s", resp.StatusCode, string(respBody))}, nil
	}
}

func escapeObjectKey(filename string) string {
	var b []byte
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		if c == '/' {
			b = append(b, '/')
			continue
		}
		b = append(b, []byte(url.PathEscape(string(c)))...)
	}
	return string(b)
}
