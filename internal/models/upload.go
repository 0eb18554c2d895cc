package models

import (
	"time"

	"github.com/google/uuid"
)

// Upload is one submitted resume file and its processing status. Created by
// the ingest endpoint at StatusStored; mutated only by the pipeline as the
// status advances.
type Upload struct {
	ID               uuid.UUID `json:"id"`
	JobID            uuid.UUID `json:"job_id"`
	FileKey          string    `json:"file_key"`
	OriginalFilename string    `json:"original_filename"`
	FileSize         int64     `json:"file_size"`
	MimeType         string    `json:"mime_type"`
	Status           Status    `json:"status"`
	ErrorMessage     *string   `json:"error_message,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
