package engine

import (
	"time"

	"github.com/blobsvc/blobsvc/internal/catalog"
)

// ObjectResponse is what Upload hands back to the HTTP surface, per
// spec.md §4.5 step 8.
type ObjectResponse struct {
	DocID               string
	Bucket              string
	Filename            string
	SizeBytes           int64
	SHA256Hex           string
	ServedContentType   string
	DetectedContentType string
	ClaimedContentType  string
	DetectedExtension   string
	DetectionMethod     catalog.DetectionMethod
	IsMismatch          bool
	IsDangerousMismatch bool
	CreatedAt           time.Time
	DownloadURLByID     string
	DownloadURLByName   string
}

func responseFromObject(o catalog.Object) ObjectResponse {
	return ObjectResponse{
		DocID:               o.DocID,
		Bucket:              o.Bucket,
		Filename:            o.Filename,
		SizeBytes:           o.SizeBytes,
		SHA256Hex:           hexDigest(o.SHA256),
		ServedContentType:   o.ServedContentType,
		DetectedContentType: o.DetectedContentType,
		ClaimedContentType:  o.ClaimedContentType,
		DetectedExtension:   o.DetectedExtension,
		DetectionMethod:     o.DetectionMethod,
		IsMismatch:          o.IsMismatch,
		IsDangerousMismatch: o.IsDangerousMismatch,
		CreatedAt:           o.CreatedAt,
		DownloadURLByID:     "/api/buckets/" + o.Bucket + "/objects/" + o.DocID,
		DownloadURLByName:   "/api/buckets/" + o.Bucket + "/objects/by-name/" + o.Filename,
	}
}
