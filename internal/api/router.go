package api

import (
	"net/http"
)

func NewRouter(h *APIHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)

	mux.HandleFunc("POST /jobs", h.CreateJob)
	mux.HandleFunc("POST /jobs/{jobID}/uploads", h.UploadResumes)
	mux.HandleFunc("GET /jobs/{jobID}/stats", h.JobStats)
	mux.HandleFunc("GET /jobs/{jobID}/candidates", h.ListCandidates)

	mux.HandleFunc("GET /uploads/{uploadID}", h.UploadStatus)
	mux.HandleFunc("POST /uploads/{uploadID}/reprocess", h.Reprocess)

	return mux
}
