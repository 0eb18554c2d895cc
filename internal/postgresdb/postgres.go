// Package postgresdb is the persistence adapter for jobs, uploads, parsed
// candidates and scores. The pipeline owns every write to upload status and
// score fields through the operations defined here; single-row updates are
// atomic and status transitions are guarded by a compare-and-set WHERE
// clause, so racing or stale writers lose safely.
package postgresdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"resume-triage/internal/errs"
	"resume-triage/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, connString string) (*Store, error) {
	if connString == "" {
		return nil, fmt.Errorf("database connection string is required")
	}

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func notFound(err error, what string, id uuid.UUID) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, errs.ErrNotFound)
	}
	return err
}

// orEmpty keeps nil slices out of the insert arguments: pgx encodes a nil
// slice as SQL NULL, and the array columns are NOT NULL.
func orEmpty(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

// ---- jobs ----

func (s *Store) CreateJob(ctx context.Context, job *models.Job) error {
	sql := `
		INSERT INTO jobs (id, title, description, required_skills, preferred_skills,
		                  min_years_experience, preferred_education, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING created_at`

	err := s.Pool.QueryRow(ctx, sql,
		job.ID, job.Title, job.Description, orEmpty(job.RequiredSkills), orEmpty(job.PreferredSkills),
		job.MinYearsExperience, orEmpty(job.PreferredEducation),
	).Scan(&job.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

func (s *Store) JobByID(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	sql := `
		SELECT id, title, description, required_skills, preferred_skills,
		       min_years_experience, preferred_education, embedding, created_at
		FROM jobs
		WHERE id = $1`

	var job models.Job
	var embedding *pgvector.Vector

	err := s.Pool.QueryRow(ctx, sql, jobID).Scan(
		&job.ID, &job.Title, &job.Description, &job.RequiredSkills, &job.PreferredSkills,
		&job.MinYearsExperience, &job.PreferredEducation, &embedding, &job.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, "job", jobID)
	}
	if embedding != nil {
		job.Embedding = embedding.Slice()
	}
	return &job, nil
}

// SetJobEmbedding writes the job-description embedding exactly once. It
// reports false when another writer got there first.
func (s *Store) SetJobEmbedding(ctx context.Context, jobID uuid.UUID, vec []float32) (bool, error) {
	sql := `UPDATE jobs SET embedding = $2 WHERE id = $1 AND embedding IS NULL`

	tag, err := s.Pool.Exec(ctx, sql, jobID, pgvector.NewVector(vec))
	if err != nil {
		return false, fmt.Errorf("failed to set job embedding: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ---- uploads ----

func (s *Store) CreateUpload(ctx context.Context, upload *models.Upload) error {
	sql := `
		INSERT INTO uploads (id, job_id, file_key, original_filename, file_size,
		                     mime_type, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING created_at, updated_at`

	err := s.Pool.QueryRow(ctx, sql,
		upload.ID, upload.JobID, upload.FileKey, upload.OriginalFilename,
		upload.FileSize, upload.MimeType, upload.Status.String(),
	).Scan(&upload.CreatedAt, &upload.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert upload: %w", err)
	}
	return nil
}

func (s *Store) UploadByID(ctx context.Context, uploadID uuid.UUID) (*models.Upload, error) {
	sql := `
		SELECT id, job_id, file_key, original_filename, file_size, mime_type,
		       status, error_message, created_at, updated_at
		FROM uploads
		WHERE id = $1`

	var upload models.Upload
	var statusStr string

	err := s.Pool.QueryRow(ctx, sql, uploadID).Scan(
		&upload.ID, &upload.JobID, &upload.FileKey, &upload.OriginalFilename,
		&upload.FileSize, &upload.MimeType, &statusStr, &upload.ErrorMessage,
		&upload.CreatedAt, &upload.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "upload", uploadID)
	}

	upload.Status, err = models.ParseStatus(statusStr)
	if err != nil {
		return nil, fmt.Errorf("database contains %w", err)
	}
	return &upload, nil
}

// AdvanceUploadStatus moves an upload from one expected status to the next,
// clearing any stale error message in the same statement. It reports false
// when the upload is no longer at the expected status, which tells the caller
// its work is stale.
func (s *Store) AdvanceUploadStatus(ctx context.Context, uploadID uuid.UUID, from, to models.Status) (bool, error) {
	sql := `
		UPDATE uploads
		SET status = $3, error_message = NULL, updated_at = now()
		WHERE id = $1 AND status = $2`

	tag, err := s.Pool.Exec(ctx, sql, uploadID, from.String(), to.String())
	if err != nil {
		return false, fmt.Errorf("failed to advance upload %s to %s: %w", uploadID, to, err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkUploadError records a processing failure atomically on the
// (status, error_message) pair. The expected-status guard keeps a stale
// failure from clobbering an upload that a reprocess has already reset.
func (s *Store) MarkUploadError(ctx context.Context, uploadID uuid.UUID, from models.Status, message string) (bool, error) {
	sql := `
		UPDATE uploads
		SET status = $3, error_message = $4, updated_at = now()
		WHERE id = $1 AND status = $2`

	tag, err := s.Pool.Exec(ctx, sql, uploadID, from.String(), models.StatusError.String(), message)
	if err != nil {
		return false, fmt.Errorf("failed to mark upload %s failed: %w", uploadID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ResetUpload is the reprocess edge: back to stored from any state, error
// message cleared.
func (s *Store) ResetUpload(ctx context.Context, uploadID uuid.UUID) error {
	sql := `
		UPDATE uploads
		SET status = $2, error_message = NULL, updated_at = now()
		WHERE id = $1`

	tag, err := s.Pool.Exec(ctx, sql, uploadID, models.StatusStored.String())
	if err != nil {
		return fmt.Errorf("failed to reset upload %s: %w", uploadID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("upload %s: %w", uploadID, errs.ErrNotFound)
	}
	return nil
}

// CountsByStatus aggregates a job's uploads per lifecycle status.
func (s *Store) CountsByStatus(ctx context.Context, jobID uuid.UUID) (map[string]int, error) {
	sql := `SELECT status, count(*) FROM uploads WHERE job_id = $1 GROUP BY status`

	rows, err := s.Pool.Query(ctx, sql, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to count uploads by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// ---- candidates ----

func (s *Store) UpsertCandidate(ctx context.Context, c *models.Candidate) error {
	workExp, err := json.Marshal(c.WorkExperience)
	if err != nil {
		return fmt.Errorf("failed to marshal work experience: %w", err)
	}
	education, err := json.Marshal(c.Education)
	if err != nil {
		return fmt.Errorf("failed to marshal education: %w", err)
	}

	sql := `
		INSERT INTO candidates (id, job_id, upload_id, raw_text, name, email, phone,
		                        skills, work_experience, education, total_years_exp, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (upload_id) DO UPDATE SET
			raw_text = EXCLUDED.raw_text,
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			skills = EXCLUDED.skills,
			work_experience = EXCLUDED.work_experience,
			education = EXCLUDED.education,
			total_years_exp = EXCLUDED.total_years_exp`

	_, err = s.Pool.Exec(ctx, sql,
		c.ID, c.JobID, c.UploadID, c.RawText, c.Name, c.Email, c.Phone,
		orEmpty(c.Skills), workExp, education, c.TotalYearsExp,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert candidate: %w", err)
	}
	return nil
}

func (s *Store) CandidateByUploadID(ctx context.Context, uploadID uuid.UUID) (*models.Candidate, error) {
	sql := `
		SELECT id, job_id, upload_id, raw_text, name, email, phone,
		       skills, work_experience, education, total_years_exp, embedding, created_at
		FROM candidates
		WHERE upload_id = $1`

	var c models.Candidate
	var workExp, education []byte
	var embedding *pgvector.Vector

	err := s.Pool.QueryRow(ctx, sql, uploadID).Scan(
		&c.ID, &c.JobID, &c.UploadID, &c.RawText, &c.Name, &c.Email, &c.Phone,
		&c.Skills, &workExp, &education, &c.TotalYearsExp, &embedding, &c.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, "candidate for upload", uploadID)
	}

	if err := json.Unmarshal(workExp, &c.WorkExperience); err != nil {
		return nil, fmt.Errorf("failed to unmarshal work experience: %w", err)
	}
	if err := json.Unmarshal(education, &c.Education); err != nil {
		return nil, fmt.Errorf("failed to unmarshal education: %w", err)
	}
	if embedding != nil {
		c.Embedding = embedding.Slice()
	}
	return &c, nil
}

// SetCandidateEmbedding writes a candidate's embedding exactly once.
func (s *Store) SetCandidateEmbedding(ctx context.Context, candidateID uuid.UUID, vec []float32) (bool, error) {
	sql := `UPDATE candidates SET embedding = $2 WHERE id = $1 AND embedding IS NULL`

	tag, err := s.Pool.Exec(ctx, sql, candidateID, pgvector.NewVector(vec))
	if err != nil {
		return false, fmt.Errorf("failed to set candidate embedding: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ---- scores ----

func (s *Store) UpsertScore(ctx context.Context, score *models.CandidateScore) error {
	sql := `
		INSERT INTO candidate_scores (candidate_id, job_id, semantic_score, skills_score,
		                              experience_score, education_score, composite_score,
		                              category, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (candidate_id, job_id) DO UPDATE SET
			semantic_score = EXCLUDED.semantic_score,
			skills_score = EXCLUDED.skills_score,
			experience_score = EXCLUDED.experience_score,
			education_score = EXCLUDED.education_score,
			composite_score = EXCLUDED.composite_score,
			category = EXCLUDED.category,
			updated_at = now()`

	_, err := s.Pool.Exec(ctx, sql,
		score.CandidateID, score.JobID, score.SemanticScore, score.SkillsScore,
		score.ExperienceScore, score.EducationScore, score.CompositeScore,
		string(score.Category),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert candidate score: %w", err)
	}
	return nil
}

// ScoresByJob returns a job's candidate scores ranked best-first.
func (s *Store) ScoresByJob(ctx context.Context, jobID uuid.UUID) ([]models.CandidateScore, error) {
	sql := `
		SELECT candidate_id, job_id, semantic_score, skills_score, experience_score,
		       education_score, composite_score, category, updated_at
		FROM candidate_scores
		WHERE job_id = $1
		ORDER BY composite_score DESC`

	rows, err := s.Pool.Query(ctx, sql, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	defer rows.Close()

	var scores []models.CandidateScore
	for rows.Next() {
		var sc models.CandidateScore
		var category string
		if err := rows.Scan(
			&sc.CandidateID, &sc.JobID, &sc.SemanticScore, &sc.SkillsScore,
			&sc.ExperienceScore, &sc.EducationScore, &sc.CompositeScore,
			&category, &sc.UpdatedAt,
		); err != nil {
			return nil, err
		}
		sc.Category = models.Category(category)
		scores = append(scores, sc)
	}
	return scores, rows.Err()
}

// CountsByCategory aggregates a job's scored candidates per category.
func (s *Store) CountsByCategory(ctx context.Context, jobID uuid.UUID) (map[string]int, error) {
	sql := `SELECT category, count(*) FROM candidate_scores WHERE job_id = $1 GROUP BY category`

	rows, err := s.Pool.Query(ctx, sql, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to count scores by category: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		counts[category] = n
	}
	return counts, rows.Err()
}
