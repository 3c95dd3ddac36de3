package httpapi

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/blobsvc/blobsvc/internal/catalog"
	"github.com/blobsvc/blobsvc/internal/engine"
	"github.com/blobsvc/blobsvc/internal/validate"
)

const claimedContentTypeHeader = "X-Claimed-Content-Type"

func (s *Server) handleListObjects(w http.ResponseWriter, r *http.Request) {
	bucket := mux.Vars(r)["bucket"]
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := queryInt(r, "pageSize", 100)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > 1000 {
		pageSize = 1000
	}
	prefix := r.URL.Query().Get("prefix")

	page2, err := s.listObjects(r, bucket, prefix, page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page2)
}

func (s *Server) listObjects(r *http.Request, bucket, prefix string, page, pageSize int) (listObjectsDTO, error) {
	lp, err := s.eng.ListObjects(r.Context(), bucket, prefix, page, pageSize)
	if err != nil {
		return listObjectsDTO{}, err
	}
	dtos := make([]objectMetaDTO, 0, len(lp.Objects))
	for _, o := range lp.Objects {
		dtos = append(dtos, objectMetaToDTO(o))
	}
	return listObjectsDTO{Objects: dtos, TotalCount: lp.TotalCount, Page: page, PageSize: pageSize}, nil
}

func (s *Server) handleStreamUpload(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bucket := vars["bucket"]

	filename, err := validate.Normalize(vars["key"])
	if err != nil {
		writeError(w, r, &engine.ValidationError{Err: engine.ErrInvalidFilename, Message: "filename is not validly percent-encoded"})
		return
	}

	year := 0
	if y := r.URL.Query().Get("year"); y != "" {
		if n, err := strconv.Atoi(y); err == nil {
			year = n
		}
	}

	resp, err := s.eng.Upload(r.Context(), bucket, filename, r.Body, r.Header.Get(claimedContentTypeHeader), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, objectToDTO(resp))
}

func (s *Server) handleFormUpload(w http.ResponseWriter, r *http.Request) {
	bucket := mux.Vars(r)["bucket"]

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, r, &engine.ValidationError{Err: engine.ErrInvalidFilename, Message: "request is not a valid multipart form"})
		return
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File) == 0 {
		writeError(w, r, &engine.ValidationError{Err: engine.ErrInvalidFilename, Message: "multipart form carries no file parts"})
		return
	}

	var fileHeader *multipart.FileHeader
	for _, headers := range r.MultipartForm.File {
		if len(headers) > 0 {
			fileHeader = headers[0]
			break
		}
	}
	if fileHeader == nil {
		writeError(w, r, &engine.ValidationError{Err: engine.ErrInvalidFilename, Message: "multipart form carries no file parts"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		writeError(w, r, &engine.ValidationError{Err: engine.ErrInvalidFilename, Message: "could not open uploaded file part"})
		return
	}
	defer f.Close()

	claimed := fileHeader.Header.Get("Content-Type")
	resp, err := s.eng.Upload(r.Context(), bucket, fileHeader.Filename, f, claimed, 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, objectToDTO(resp))
}

func (s *Server) handleDownloadByID(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if r.Method == http.MethodHead {
		obj, err := s.eng.HeadByID(r.Context(), vars["bucket"], vars["docId"])
		s.serveHead(w, r, obj, err)
		return
	}
	dl, err := s.eng.DownloadByID(r.Context(), vars["bucket"], vars["docId"])
	s.serveDownload(w, r, dl, err)
}

func (s *Server) handleDownloadByName(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	filename, err := validate.Normalize(vars["key"])
	if err != nil {
		writeError(w, r, &engine.ValidationError{Err: engine.ErrInvalidFilename, Message: "filename is not validly percent-encoded"})
		return
	}
	if r.Method == http.MethodHead {
		obj, err := s.eng.HeadByName(r.Context(), vars["bucket"], filename)
		s.serveHead(w, r, obj, err)
		return
	}
	dl, err := s.eng.DownloadByName(r.Context(), vars["bucket"], filename)
	s.serveDownload(w, r, dl, err)
}

func (s *Server) handleDownloadAny(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	dl, err := s.eng.DownloadByDocIDAny(r.Context(), vars["docId"])
	s.serveDownload(w, r, dl, err)
}

func (s *Server) serveDownload(w http.ResponseWriter, r *http.Request, dl engine.Download, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer dl.Body.Close()

	s.setObjectHeaders(w, dl.Object)
	io.Copy(w, dl.Body)
}

// serveHead answers a HEAD request from the catalog row alone: it
// confirms the blob exists on disk via statBlob but never opens it,
// per spec.md §4.5b.
func (s *Server) serveHead(w http.ResponseWriter, r *http.Request, obj catalog.Object, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.setObjectHeaders(w, obj)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) setObjectHeaders(w http.ResponseWriter, obj catalog.Object) {
	w.Header().Set("Content-Type", obj.ServedContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(obj.SizeBytes, 10))
	w.Header().Set("ETag", hexDigest(obj.SHA256))
	w.Header().Set("Content-Disposition", s.eng.ContentDisposition(obj))
}

func (s *Server) handleDeleteByID(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.eng.DeleteByID(r.Context(), vars["bucket"], vars["docId"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteByName(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	filename, err := validate.Normalize(vars["key"])
	if err != nil {
		writeError(w, r, &engine.ValidationError{Err: engine.ErrInvalidFilename, Message: "filename is not validly percent-encoded"})
		return
	}
	if err := s.eng.DeleteByName(r.Context(), vars["bucket"], filename); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAny(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.eng.DeleteByDocIDAny(r.Context(), vars["docId"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
