package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"resume-triage/internal/errs"
	"resume-triage/internal/models"
	"resume-triage/internal/queue"
)

// maxUploadMemory bounds how much of a multipart body is buffered in memory.
const maxUploadMemory = 32 << 20

// Store is what the handlers need from persistence.
type Store interface {
	CreateJob(ctx context.Context, job *models.Job) error
	JobByID(ctx context.Context, jobID uuid.UUID) (*models.Job, error)
	CreateUpload(ctx context.Context, upload *models.Upload) error
	UploadByID(ctx context.Context, uploadID uuid.UUID) (*models.Upload, error)
	ResetUpload(ctx context.Context, uploadID uuid.UUID) error
	CountsByStatus(ctx context.Context, jobID uuid.UUID) (map[string]int, error)
	CountsByCategory(ctx context.Context, jobID uuid.UUID) (map[string]int, error)
	ScoresByJob(ctx context.Context, jobID uuid.UUID) ([]models.CandidateScore, error)
}

// Uploader is the write side of the object store.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, bucket, key, contentType string) (string, error)
}

type APIHandler struct {
	store    Store
	queue    queue.Producer
	uploader Uploader
	bucket   string
	log      *zap.Logger
}

func NewAPIHandler(store Store, producer queue.Producer, uploader Uploader, bucket string, log *zap.Logger) *APIHandler {
	return &APIHandler{
		store:    store,
		queue:    producer,
		uploader: uploader,
		bucket:   bucket,
		log:      log,
	}
}

// acceptedMimeTypes are the document formats the parse stage can read.
var acceptedMimeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/rtf": true,
	"application/vnd.oasis.opendocument.text": true,
	"text/plain": true,
}

type createJobRequest struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	RequiredSkills     []string `json:"required_skills"`
	PreferredSkills    []string `json:"preferred_skills"`
	MinYearsExperience *float64 `json:"min_years_experience"`
	PreferredEducation []string `json:"preferred_education"`
}

func (h *APIHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body.", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		http.Error(w, "Both title and description are required.", http.StatusBadRequest)
		return
	}
	if req.MinYearsExperience != nil && *req.MinYearsExperience < 0 {
		http.Error(w, "min_years_experience must not be negative.", http.StatusBadRequest)
		return
	}

	job := &models.Job{
		ID:                 uuid.New(),
		Title:              req.Title,
		Description:        req.Description,
		RequiredSkills:     req.RequiredSkills,
		PreferredSkills:    req.PreferredSkills,
		MinYearsExperience: req.MinYearsExperience,
		PreferredEducation: req.PreferredEducation,
	}
	if err := h.store.CreateJob(r.Context(), job); err != nil {
		h.log.Error("create job failed", zap.Error(err))
		http.Error(w, "Failed to create job.", http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusCreated, job)
}

// uploadResult is the per-file outcome of a batch ingest. Accepted files
// carry an upload id; rejected files carry the reason instead.
type uploadResult struct {
	Filename string `json:"filename"`
	UploadID string `json:"upload_id,omitempty"`
	Status   string `json:"status,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (h *APIHandler) UploadResumes(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	jobID, err := uuid.Parse(r.PathValue("jobID"))
	if err != nil {
		http.Error(w, "Invalid job id.", http.StatusBadRequest)
		return
	}
	if _, err := h.store.JobByID(r.Context(), jobID); err != nil {
		if errs.IsNotFound(err) {
			http.Error(w, "Job not found.", http.StatusNotFound)
			return
		}
		h.log.Error("job lookup failed", zap.Error(err))
		http.Error(w, "Failed to look up job.", http.StatusInternalServerError)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		http.Error(w, "Expected a multipart form with one or more files under \"resumes\".", http.StatusBadRequest)
		return
	}
	files := r.MultipartForm.File["resumes"]
	if len(files) == 0 {
		http.Error(w, "No files found under the \"resumes\" field.", http.StatusBadRequest)
		return
	}

	results := make([]uploadResult, 0, len(files))
	accepted := 0
	for _, header := range files {
		res := h.ingestOne(r.Context(), jobID, header)
		if res.Error == "" {
			accepted++
		}
		results = append(results, res)
	}

	status := http.StatusAccepted
	if accepted == 0 {
		status = http.StatusBadRequest
	}
	h.respondJSON(w, status, map[string]any{
		"accepted": accepted,
		"results":  results,
	})
}

// ingestOne stores one file and arms its parse task. Each file is accepted or
// rejected independently so one bad file does not fail the batch.
func (h *APIHandler) ingestOne(ctx context.Context, jobID uuid.UUID, header *multipart.FileHeader) uploadResult {
	res := uploadResult{Filename: header.Filename}

	contentType := detectMimeType(header)
	if !acceptedMimeTypes[contentType] {
		res.Error = fmt.Sprintf("unsupported file type %q", contentType)
		return res
	}

	file, err := header.Open()
	if err != nil {
		res.Error = "could not read file"
		return res
	}
	defer file.Close()

	uploadID := uuid.New()
	key := fmt.Sprintf("%s/%s%s", jobID, uploadID, filepath.Ext(header.Filename))

	if _, err := h.uploader.Upload(ctx, file, h.bucket, key, contentType); err != nil {
		h.log.Error("file upload failed", zap.String("key", key), zap.Error(err))
		res.Error = "could not store file"
		return res
	}

	upload := &models.Upload{
		ID:               uploadID,
		JobID:            jobID,
		FileKey:          key,
		OriginalFilename: header.Filename,
		FileSize:         header.Size,
		MimeType:         contentType,
		Status:           models.StatusStored,
	}
	if err := h.store.CreateUpload(ctx, upload); err != nil {
		h.log.Error("create upload failed", zap.String("upload_id", uploadID.String()), zap.Error(err))
		res.Error = "could not record upload"
		return res
	}

	if err := h.queue.Enqueue(ctx, models.Task{UploadID: uploadID, Stage: models.StageParse}); err != nil {
		// The file and the row are durable; a reprocess re-arms the task.
		h.log.Error("enqueue failed, upload stored but not queued",
			zap.String("upload_id", uploadID.String()), zap.Error(err))
		res.Error = "upload stored but could not be queued; retry via reprocess"
		return res
	}

	res.UploadID = uploadID.String()
	res.Status = models.StatusStored.String()
	return res
}

func (h *APIHandler) UploadStatus(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	uploadID, err := uuid.Parse(r.PathValue("uploadID"))
	if err != nil {
		http.Error(w, "Invalid upload id.", http.StatusBadRequest)
		return
	}

	upload, err := h.store.UploadByID(r.Context(), uploadID)
	if err != nil {
		if errs.IsNotFound(err) {
			http.Error(w, "Upload not found.", http.StatusNotFound)
			return
		}
		h.log.Error("upload lookup failed", zap.Error(err))
		http.Error(w, "Failed to look up upload.", http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusOK, upload)
}

// Reprocess rewinds an upload to its initial status and re-arms parsing. The
// stored file is reused; nothing needs re-uploading.
func (h *APIHandler) Reprocess(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	uploadID, err := uuid.Parse(r.PathValue("uploadID"))
	if err != nil {
		http.Error(w, "Invalid upload id.", http.StatusBadRequest)
		return
	}

	if err := h.store.ResetUpload(r.Context(), uploadID); err != nil {
		if errs.IsNotFound(err) {
			http.Error(w, "Upload not found.", http.StatusNotFound)
			return
		}
		h.log.Error("reset upload failed", zap.Error(err))
		http.Error(w, "Failed to reset upload.", http.StatusInternalServerError)
		return
	}

	if err := h.queue.Enqueue(r.Context(), models.Task{UploadID: uploadID, Stage: models.StageParse}); err != nil {
		h.log.Error("enqueue failed after reset", zap.String("upload_id", uploadID.String()), zap.Error(err))
		http.Error(w, "Upload was reset but could not be queued; retry.", http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusAccepted, map[string]string{
		"upload_id": uploadID.String(),
		"status":    models.StatusStored.String(),
	})
}

func (h *APIHandler) JobStats(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	jobID, err := uuid.Parse(r.PathValue("jobID"))
	if err != nil {
		http.Error(w, "Invalid job id.", http.StatusBadRequest)
		return
	}
	if _, err := h.store.JobByID(r.Context(), jobID); err != nil {
		if errs.IsNotFound(err) {
			http.Error(w, "Job not found.", http.StatusNotFound)
			return
		}
		h.log.Error("job lookup failed", zap.Error(err))
		http.Error(w, "Failed to look up job.", http.StatusInternalServerError)
		return
	}

	statuses, err := h.store.CountsByStatus(r.Context(), jobID)
	if err != nil {
		h.log.Error("status counts failed", zap.Error(err))
		http.Error(w, "Failed to compute stats.", http.StatusInternalServerError)
		return
	}
	categories, err := h.store.CountsByCategory(r.Context(), jobID)
	if err != nil {
		h.log.Error("category counts failed", zap.Error(err))
		http.Error(w, "Failed to compute stats.", http.StatusInternalServerError)
		return
	}

	total := 0
	for _, n := range statuses {
		total += n
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"job_id":     jobID.String(),
		"total":      total,
		"statuses":   statuses,
		"categories": categories,
	})
}

// ListCandidates returns the job's scored candidates, best composite first.
func (h *APIHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	jobID, err := uuid.Parse(r.PathValue("jobID"))
	if err != nil {
		http.Error(w, "Invalid job id.", http.StatusBadRequest)
		return
	}
	if _, err := h.store.JobByID(r.Context(), jobID); err != nil {
		if errs.IsNotFound(err) {
			http.Error(w, "Job not found.", http.StatusNotFound)
			return
		}
		h.log.Error("job lookup failed", zap.Error(err))
		http.Error(w, "Failed to look up job.", http.StatusInternalServerError)
		return
	}

	scores, err := h.store.ScoresByJob(r.Context(), jobID)
	if err != nil {
		h.log.Error("score listing failed", zap.Error(err))
		http.Error(w, "Failed to list candidates.", http.StatusInternalServerError)
		return
	}
	if scores == nil {
		scores = []models.CandidateScore{}
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"job_id":     jobID.String(),
		"candidates": scores,
	})
}

// Health is the liveness probe.
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *APIHandler) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("failed to encode response", zap.Error(err))
	}
}

// detectMimeType prefers the part's declared content type and falls back to
// the filename extension. Browsers sometimes send octet-stream for documents.
func detectMimeType(header *multipart.FileHeader) string {
	ct := header.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(ct); err == nil && mt != "" && mt != "application/octet-stream" {
		return mt
	}
	if byExt := mime.TypeByExtension(filepath.Ext(header.Filename)); byExt != "" {
		if mt, _, err := mime.ParseMediaType(byExt); err == nil {
			return mt
		}
	}
	return ct
}
