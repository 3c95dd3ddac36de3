// Package httpapi is the Storage Engine's bespoke JSON HTTP surface,
// routed with gorilla/mux per spec.md §4.7.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/blobsvc/blobsvc/internal/engine"
	"github.com/blobsvc/blobsvc/internal/httpapi/accesslog"
	"github.com/blobsvc/blobsvc/internal/reqid"
)

// Server holds the Engine and wires the router.
type Server struct {
	eng *engine.Engine
	log *slog.Logger
}

// NewServer constructs the Server.
func NewServer(eng *engine.Engine, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{eng: eng, log: log}
}

// Router returns the fully wired gorilla/mux router, with the
// request-id and access-log middleware applied. Wrap it further with
// gorilla/handlers.RecoveryHandler at the process edge (see
// cmd/blobsvcd).
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/buckets", s.handleListBuckets).Methods(http.MethodGet)
	r.HandleFunc("/api/buckets", s.handleCreateBucket).Methods(http.MethodPost)
	r.HandleFunc("/api/buckets/{name}", s.handleEnsureBucket).Methods(http.MethodPut)
	r.HandleFunc("/api/buckets/{name}", s.handleGetBucket).Methods(http.MethodGet)
	r.HandleFunc("/api/buckets/{name}", s.handleDeleteBucket).Methods(http.MethodDelete)

	r.HandleFunc("/api/buckets/{bucket}/objects", s.handleListObjects).Methods(http.MethodGet)
	r.HandleFunc("/api/buckets/{bucket}/objects/form", s.handleFormUpload).Methods(http.MethodPost)
	r.HandleFunc("/api/buckets/{bucket}/objects/by-name/{key:.*}", s.handleDownloadByName).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/api/buckets/{bucket}/objects/by-name/{key:.*}", s.handleDeleteByName).Methods(http.MethodDelete)
	r.HandleFunc("/api/buckets/{bucket}/objects/{docId}", s.handleDownloadByID).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/api/buckets/{bucket}/objects/{docId}", s.handleDeleteByID).Methods(http.MethodDelete)
	r.HandleFunc("/api/buckets/{bucket}/objects/{key:.*}", s.handleStreamUpload).Methods(http.MethodPut)

	r.HandleFunc("/api/objects/{docId}", s.handleDownloadAny).Methods(http.MethodGet)
	r.HandleFunc("/api/objects/{docId}", s.handleDeleteAny).Methods(http.MethodDelete)

	return reqid.Middleware(accesslog.Middleware(s.log)(r))
}
