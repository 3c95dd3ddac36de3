package httpapi

import (
	"time"

	"github.com/blobsvc/blobsvc/internal/catalog"
	"github.com/blobsvc/blobsvc/internal/engine"
)

type bucketDTO struct {
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"createdAt"`
	ObjectCount    int64     `json:"objectCount"`
	TotalSizeBytes int64     `json:"totalSizeBytes"`
}

func bucketToDTO(b catalog.BucketWithCounts) bucketDTO {
	return bucketDTO{
		Name:           b.Name,
		CreatedAt:      b.CreatedAt,
		ObjectCount:    b.ObjectCount,
		TotalSizeBytes: b.TotalSizeBytes,
	}
}

type objectDTO struct {
	DocID               string    `json:"docId"`
	Bucket              string    `json:"bucket"`
	Filename            string    `json:"filename"`
	SizeBytes           int64     `json:"sizeBytes"`
	SHA256              string    `json:"sha256"`
	ServedContentType   string    `json:"servedContentType"`
	DetectedContentType string    `json:"detectedContentType"`
	ClaimedContentType  string    `json:"claimedContentType,omitempty"`
	DetectedExtension   string    `json:"detectedExtension"`
	DetectionMethod     string    `json:"detectionMethod"`
	IsMismatch          bool      `json:"isMismatch"`
	IsDangerousMismatch bool      `json:"isDangerousMismatch"`
	CreatedAt           time.Time `json:"createdAt"`
	DownloadURLByID     string    `json:"downloadUrlById"`
	DownloadURLByName   string    `json:"downloadUrlByName"`
}

func objectToDTO(o engine.ObjectResponse) objectDTO {
	return objectDTO{
		DocID:               o.DocID,
		Bucket:              o.Bucket,
		Filename:            o.Filename,
		SizeBytes:           o.SizeBytes,
		SHA256:              o.SHA256Hex,
		ServedContentType:   o.ServedContentType,
		DetectedContentType: o.DetectedContentType,
		ClaimedContentType:  o.ClaimedContentType,
		DetectedExtension:   o.DetectedExtension,
		DetectionMethod:     string(o.DetectionMethod),
		IsMismatch:          o.IsMismatch,
		IsDangerousMismatch: o.IsDangerousMismatch,
		CreatedAt:           o.CreatedAt,
		DownloadURLByID:     o.DownloadURLByID,
		DownloadURLByName:   o.DownloadURLByName,
	}
}

type objectMetaDTO struct {
	DocID               string    `json:"docId"`
	Bucket              string    `json:"bucket"`
	Filename            string    `json:"filename"`
	SizeBytes           int64     `json:"sizeBytes"`
	SHA256              string    `json:"sha256"`
	ServedContentType   string    `json:"servedContentType"`
	DetectedContentType string    `json:"detectedContentType"`
	ClaimedContentType  string    `json:"claimedContentType,omitempty"`
	DetectedExtension   string    `json:"detectedExtension"`
	DetectionMethod     string    `json:"detectionMethod"`
	IsMismatch          bool      `json:"isMismatch"`
	IsDangerousMismatch bool      `json:"isDangerousMismatch"`
	CreatedAt           time.Time `json:"createdAt"`
}

func objectMetaToDTO(o catalog.Object) objectMetaDTO {
	return objectMetaDTO{
		DocID:               o.DocID,
		Bucket:              o.Bucket,
		Filename:            o.Filename,
		SizeBytes:           o.SizeBytes,
		SHA256:              hexDigest(o.SHA256),
		ServedContentType:   o.ServedContentType,
		DetectedContentType: o.DetectedContentType,
		ClaimedContentType:  o.ClaimedContentType,
		DetectedExtension:   o.DetectedExtension,
		DetectionMethod:     string(o.DetectionMethod),
		IsMismatch:          o.IsMismatch,
		IsDangerousMismatch: o.IsDangerousMismatch,
		CreatedAt:           o.CreatedAt,
	}
}

type listObjectsDTO struct {
	Objects    []objectMetaDTO `json:"objects"`
	TotalCount int64           `json:"totalCount"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
}
