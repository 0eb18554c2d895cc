package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"resume-triage/internal/api"
	"resume-triage/internal/errs"
	"resume-triage/internal/models"
	"resume-triage/mocks"
)

const testBucket = "resumes"

func setUpHandler() (*mocks.MockStore, *mocks.MockTaskQueue, *mocks.MockFileStorer, http.Handler) {
	store := new(mocks.MockStore)
	q := new(mocks.MockTaskQueue)
	files := new(mocks.MockFileStorer)
	h := api.NewAPIHandler(store, q, files, testBucket, zap.NewNop())
	return store, q, files, api.NewRouter(h)
}

func TestHealth(t *testing.T) {
	_, _, _, router := setUpHandler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestCreateJob(t *testing.T) {
	store, _, _, router := setUpHandler()

	store.On("CreateJob", mock.Anything, mock.MatchedBy(func(j *models.Job) bool {
		return j.Title == "Backend Engineer" && j.ID != uuid.Nil
	})).Return(nil)

	body := `{"title":"Backend Engineer","description":"Build services in Go","required_skills":["Go"]}`
	req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var got models.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Backend Engineer", got.Title)
	assert.NotEqual(t, uuid.Nil, got.ID)
	store.AssertExpectations(t)
}

func TestCreateJobWithOnlyTitleAndDescription(t *testing.T) {
	store, _, _, router := setUpHandler()

	store.On("CreateJob", mock.Anything, mock.MatchedBy(func(j *models.Job) bool {
		return j.Title == "Data Engineer" && j.RequiredSkills == nil
	})).Return(nil)

	body := `{"title":"Data Engineer","description":"Build pipelines"}`
	req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	store.AssertExpectations(t)
}

func TestCreateJobRejectsMissingFields(t *testing.T) {
	_, _, _, router := setUpHandler()

	req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(`{"title":"x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)
	for filename, contentType := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="resumes"; filename=%q`, filename))
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte("file content for " + filename))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestUploadResumesAcceptsSupportedAndRejectsUnsupported(t *testing.T) {
	store, q, files, router := setUpHandler()
	jobID := uuid.New()

	store.On("JobByID", mock.Anything, jobID).Return(&models.Job{ID: jobID}, nil)
	files.On("Upload", mock.Anything, mock.Anything, testBucket, mock.Anything, "application/pdf").
		Return("key", nil)
	store.On("CreateUpload", mock.Anything, mock.MatchedBy(func(u *models.Upload) bool {
		return u.JobID == jobID && u.Status == models.StatusStored && u.MimeType == "application/pdf"
	})).Return(nil)
	q.On("Enqueue", mock.Anything, mock.MatchedBy(func(task models.Task) bool {
		return task.Stage == models.StageParse
	})).Return(nil)

	body, contentType := multipartBody(t, map[string]string{
		"resume.pdf":  "application/pdf",
		"archive.zip": "application/zip",
	})
	req := httptest.NewRequest(http.MethodPost, "/jobs/"+jobID.String()+"/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp struct {
		Accepted int `json:"accepted"`
		Results  []struct {
			Filename string `json:"filename"`
			UploadID string `json:"upload_id"`
			Error    string `json:"error"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Accepted)
	require.Len(t, resp.Results, 2)

	for _, r := range resp.Results {
		switch r.Filename {
		case "resume.pdf":
			assert.NotEmpty(t, r.UploadID)
			assert.Empty(t, r.Error)
		case "archive.zip":
			assert.Empty(t, r.UploadID)
			assert.Contains(t, r.Error, "unsupported")
		default:
			t.Fatalf("unexpected filename %q", r.Filename)
		}
	}
	store.AssertExpectations(t)
	q.AssertExpectations(t)
	files.AssertExpectations(t)
}

func TestUploadResumesUnknownJob(t *testing.T) {
	store, _, _, router := setUpHandler()
	jobID := uuid.New()

	store.On("JobByID", mock.Anything, jobID).Return(nil, errs.ErrNotFound)

	body, contentType := multipartBody(t, map[string]string{"resume.pdf": "application/pdf"})
	req := httptest.NewRequest(http.MethodPost, "/jobs/"+jobID.String()+"/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadStatus(t *testing.T) {
	store, _, _, router := setUpHandler()
	upload := &models.Upload{
		ID:     uuid.New(),
		JobID:  uuid.New(),
		Status: models.StatusParsed,
	}

	store.On("UploadByID", mock.Anything, upload.ID).Return(upload, nil)

	req := httptest.NewRequest(http.MethodGet, "/uploads/"+upload.ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "parsed", got["status"])
}

func TestUploadStatusNotFound(t *testing.T) {
	store, _, _, router := setUpHandler()
	id := uuid.New()

	store.On("UploadByID", mock.Anything, id).Return(nil, errs.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/uploads/"+id.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReprocessResetsAndRequeues(t *testing.T) {
	store, q, _, router := setUpHandler()
	id := uuid.New()

	store.On("ResetUpload", mock.Anything, id).Return(nil)
	q.On("Enqueue", mock.Anything, models.Task{UploadID: id, Stage: models.StageParse}).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/uploads/"+id.String()+"/reprocess", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	store.AssertExpectations(t)
	q.AssertExpectations(t)
}

func TestReprocessUnknownUpload(t *testing.T) {
	store, _, _, router := setUpHandler()
	id := uuid.New()

	store.On("ResetUpload", mock.Anything, id).Return(errs.ErrNotFound)

	req := httptest.NewRequest(http.MethodPost, "/uploads/"+id.String()+"/reprocess", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobStats(t *testing.T) {
	store, _, _, router := setUpHandler()
	jobID := uuid.New()

	store.On("JobByID", mock.Anything, jobID).Return(&models.Job{ID: jobID}, nil)
	store.On("CountsByStatus", mock.Anything, jobID).
		Return(map[string]int{"scored": 3, "error": 1}, nil)
	store.On("CountsByCategory", mock.Anything, jobID).
		Return(map[string]int{"top": 1, "moderate": 1, "reject": 1}, nil)

	req := httptest.NewRequest(http.MethodGet, "/jobs/"+jobID.String()+"/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Total      int            `json:"total"`
		Statuses   map[string]int `json:"statuses"`
		Categories map[string]int `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 4, got.Total)
	assert.Equal(t, 3, got.Statuses["scored"])
	assert.Equal(t, 1, got.Categories["top"])
}

func TestListCandidatesRanked(t *testing.T) {
	store, _, _, router := setUpHandler()
	jobID := uuid.New()

	scores := []models.CandidateScore{
		{CandidateID: uuid.New(), JobID: jobID, CompositeScore: 0.9, Category: models.CategoryTop},
		{CandidateID: uuid.New(), JobID: jobID, CompositeScore: 0.4, Category: models.CategoryReject},
	}
	store.On("JobByID", mock.Anything, jobID).Return(&models.Job{ID: jobID}, nil)
	store.On("ScoresByJob", mock.Anything, jobID).Return(scores, nil)

	req := httptest.NewRequest(http.MethodGet, "/jobs/"+jobID.String()+"/candidates", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Candidates []models.CandidateScore `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Candidates, 2)
	assert.Equal(t, models.CategoryTop, got.Candidates[0].Category)
}

func TestListCandidatesEmpty(t *testing.T) {
	store, _, _, router := setUpHandler()
	jobID := uuid.New()

	store.On("JobByID", mock.Anything, jobID).Return(&models.Job{ID: jobID}, nil)
	store.On("ScoresByJob", mock.Anything, jobID).Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/jobs/"+jobID.String()+"/candidates", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"candidates":[]`)
}
