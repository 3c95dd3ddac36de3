package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

type createBucketRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleListBuckets(w http.ResponseWriter, r *http.Request) {
	buckets, err := s.eng.ListBuckets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	dtos := make([]bucketDTO, 0, len(buckets))
	for _, b := range buckets {
		dtos = append(dtos, bucketToDTO(b))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleCreateBucket(w http.ResponseWriter, r *http.Request) {
	var req createBucketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: errorBody{
			Code: "InvalidBucketName", Message: "request body must be valid JSON with a \"name\" field",
		}})
		return
	}
	b, err := s.eng.CreateBucket(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bucketToDTO(b))
}

func (s *Server) handleEnsureBucket(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	b, err := s.eng.EnsureBucket(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bucketToDTO(b))
}

func (s *Server) handleGetBucket(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	b, err := s.eng.GetBucket(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bucketToDTO(b))
}

func (s *Server) handleDeleteBucket(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := s.eng.DeleteBucket(r.Context(), name); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
