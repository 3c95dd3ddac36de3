package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/blobsvc/blobsvc/internal/engine"
	"github.com/blobsvc/blobsvc/internal/reqid"
)

// errorEnvelope is the JSON error body shape required by spec.md §6:
// {"error":{"code":"...","message":"...","requestId":"..."}}.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
}

// codeAndStatus maps an engine-level error to the code and HTTP status
// spec.md §6/§7 assign it. Everything unrecognized becomes 500
// InternalError.
func codeAndStatus(err error) (code string, status int) {
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		if errors.Is(verr, engine.ErrFileTooLarge) {
			return "FileTooLarge", http.StatusBadRequest
		}
		if errors.Is(verr, engine.ErrInvalidBucketName) {
			return "InvalidBucketName", http.StatusBadRequest
		}
		if errors.Is(verr, engine.ErrInvalidFilename) {
			return "InvalidFilename", http.StatusBadRequest
		}
		return "InvalidContentType", http.StatusBadRequest
	}

	switch {
	case errors.Is(err, engine.ErrBucketNotFound):
		return "BucketNotFound", http.StatusNotFound
	case errors.Is(err, engine.ErrBucketAlreadyExists):
		return "BucketAlreadyExists", http.StatusConflict
	case errors.Is(err, engine.ErrBucketNotEmpty):
		return "BucketNotEmpty", http.StatusConflict
	// ErrBlobMissing wraps ErrStorageError, so it must be checked before
	// that case: a catalog row with no blob on disk is a 404, but the
	// code label stays StorageError to keep it distinct from a row that
	// never existed (ObjectNotFound).
	case errors.Is(err, engine.ErrBlobMissing):
		return "StorageError", http.StatusNotFound
	case errors.Is(err, engine.ErrObjectNotFound):
		return "ObjectNotFound", http.StatusNotFound
	case errors.Is(err, engine.ErrObjectAlreadyExists):
		return "ObjectAlreadyExists", http.StatusConflict
	case errors.Is(err, engine.ErrFileTooLarge):
		return "FileTooLarge", http.StatusBadRequest
	case errors.Is(err, engine.ErrStorageError):
		return "StorageError", http.StatusInternalServerError
	default:
		return "InternalError", http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, status := codeAndStatus(err)
	writeJSON(w, status, errorEnvelope{Error: errorBody{
		Code:      code,
		Message:   err.Error(),
		RequestID: reqid.FromContext(r.Context()),
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
