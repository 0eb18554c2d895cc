// Package pipeline executes stage-transition tasks: it routes each task to
// the right stage handler, enforces the status preconditions that make
// at-least-once delivery safe, retries transient failures with exponential
// backoff, and records permanent failures on the upload.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"resume-triage/internal/errs"
	"resume-triage/internal/extract"
	"resume-triage/internal/models"
	"resume-triage/internal/objectstore"
	"resume-triage/internal/parser"
	"resume-triage/internal/queue"
	"resume-triage/internal/scoring"
)

// Store is what the dispatcher needs from persistence.
type Store interface {
	UploadByID(ctx context.Context, uploadID uuid.UUID) (*models.Upload, error)
	AdvanceUploadStatus(ctx context.Context, uploadID uuid.UUID, from, to models.Status) (bool, error)
	MarkUploadError(ctx context.Context, uploadID uuid.UUID, from models.Status, message string) (bool, error)
	JobByID(ctx context.Context, jobID uuid.UUID) (*models.Job, error)
	SetJobEmbedding(ctx context.Context, jobID uuid.UUID, vec []float32) (bool, error)
	UpsertCandidate(ctx context.Context, c *models.Candidate) error
	CandidateByUploadID(ctx context.Context, uploadID uuid.UUID) (*models.Candidate, error)
	SetCandidateEmbedding(ctx context.Context, candidateID uuid.UUID, vec []float32) (bool, error)
	UpsertScore(ctx context.Context, score *models.CandidateScore) error
}

// Outcome is what happened to one task delivery.
type Outcome int

const (
	// OutcomeCompleted: the stage ran and its transition was recorded.
	OutcomeCompleted Outcome = iota
	// OutcomeSkipped: duplicate delivery for an upload already past the
	// target stage; nothing was mutated.
	OutcomeSkipped
	// OutcomeDropped: the task was invalid (missing upload, or it would
	// skip a stage). Logged as a defect signal, not surfaced to users.
	OutcomeDropped
	// OutcomeFailed: the failure was recorded on the upload.
	OutcomeFailed
	// OutcomeAborted: shutdown interrupted the task; it must not be acked
	// so it is redelivered.
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeDropped:
		return "dropped"
	case OutcomeFailed:
		return "failed"
	case OutcomeAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

type Config struct {
	// MaxAttempts bounds transient retries before a failure escalates to
	// permanent.
	MaxAttempts int
	// RetryBase is the first backoff delay; it doubles per attempt.
	RetryBase time.Duration
	// TaskTimeout bounds one stage execution.
	TaskTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryBase <= 0 {
		c.RetryBase = time.Second
	}
	if c.TaskTimeout <= 0 {
		c.TaskTimeout = 2 * time.Minute
	}
	return c
}

type Dispatcher struct {
	store      Store
	queue      queue.Producer
	files      objectstore.FileStorer
	bucket     string
	extractor  extract.FieldExtractor
	embedder   extract.Embedder
	thresholds scoring.Thresholds
	cfg        Config
	log        *zap.Logger
}

func NewDispatcher(
	store Store,
	producer queue.Producer,
	files objectstore.FileStorer,
	bucket string,
	extractor extract.FieldExtractor,
	embedder extract.Embedder,
	cfg Config,
	log *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		store:      store,
		queue:      producer,
		files:      files,
		bucket:     bucket,
		extractor:  extractor,
		embedder:   embedder,
		thresholds: scoring.DefaultThresholds(),
		cfg:        cfg.withDefaults(),
		log:        log,
	}
}

// Handle executes one task delivery end to end. The queue may deliver the
// same task more than once; status preconditions collapse replays into
// no-ops, so the store only ever sees each transition once.
func (d *Dispatcher) Handle(ctx context.Context, task models.Task) Outcome {
	log := d.log.With(
		zap.String("upload_id", task.UploadID.String()),
		zap.String("stage", string(task.Stage)),
	)

	for attempt := 1; ; attempt++ {
		outcome, err := d.attempt(ctx, task, log)
		if err == nil {
			return outcome
		}

		if errs.IsInvalidTransition(err) {
			log.Error("task inconsistent with upload status, dropping", zap.Error(err))
			return OutcomeDropped
		}

		if ctx.Err() != nil {
			log.Warn("task interrupted by shutdown, leaving for redelivery")
			return OutcomeAborted
		}

		if !errs.IsPermanent(err) && attempt < d.cfg.MaxAttempts {
			delay := d.cfg.RetryBase * (1 << (attempt - 1))
			log.Warn("transient stage failure, backing off",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(err))
			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return OutcomeAborted
			}
		}

		d.recordFailure(ctx, task, err, log)
		return OutcomeFailed
	}
}

// attempt re-reads the upload on every try so a racing reprocess or a
// concurrent worker is observed before any work starts.
func (d *Dispatcher) attempt(ctx context.Context, task models.Task, log *zap.Logger) (Outcome, error) {
	upload, err := d.store.UploadByID(ctx, task.UploadID)
	if errs.IsNotFound(err) {
		log.Error("task references missing upload, dropping")
		return OutcomeDropped, nil
	}
	if err != nil {
		return OutcomeFailed, err
	}

	required := task.Stage.Requires()
	switch {
	case upload.Status == required:
		// fall through to run the stage

	case upload.Status == task.Stage.Advances():
		// The stage already completed (a replay, or a previous delivery
		// that died between advancing and enqueueing). Re-arm the next
		// stage; its own precondition makes a duplicate harmless.
		log.Info("stage already completed, re-arming next stage")
		if next := task.Stage.Next(); next != "" {
			if err := d.queue.Enqueue(ctx, models.Task{UploadID: task.UploadID, Stage: next}); err != nil {
				return OutcomeFailed, err
			}
		}
		return OutcomeSkipped, nil

	case upload.Status.After(required):
		log.Info("duplicate task for advanced upload, skipping",
			zap.String("status", upload.Status.String()))
		return OutcomeSkipped, nil

	case upload.Status == models.StatusError:
		// A crash between recording a failure and acking leaves the task
		// for redelivery. The recorded error already covers it.
		log.Info("upload already in error state, skipping")
		return OutcomeSkipped, nil

	default:
		return OutcomeDropped, fmt.Errorf("%s task against status %s: %w",
			task.Stage, upload.Status, errs.ErrInvalidTransition)
	}

	sctx, cancel := context.WithTimeout(ctx, d.cfg.TaskTimeout)
	defer cancel()

	switch task.Stage {
	case models.StageParse:
		err = d.parse(sctx, upload, log)
	case models.StageEmbed:
		err = d.embed(sctx, upload, log)
	case models.StageScore:
		err = d.score(sctx, upload, log)
	default:
		return OutcomeDropped, fmt.Errorf("unknown stage %q: %w", task.Stage, errs.ErrInvalidTransition)
	}
	if err != nil {
		return OutcomeFailed, err
	}

	log.Info("stage completed")
	return OutcomeCompleted, nil
}

// recordFailure turns the error into the upload's user-visible error state.
// The compare-and-set guard means a concurrent reprocess wins over a stale
// failure.
func (d *Dispatcher) recordFailure(ctx context.Context, task models.Task, cause error, log *zap.Logger) {
	message := fmt.Sprintf("%s failed: %v", task.Stage, cause)
	log.Error("stage failed permanently", zap.Error(cause))

	ok, err := d.store.MarkUploadError(ctx, task.UploadID, task.Stage.Requires(), message)
	if err != nil {
		log.Error("could not record failure", zap.Error(err))
		return
	}
	if !ok {
		log.Warn("upload status moved before failure could be recorded, leaving as is")
	}
}

// advance records the stage transition and arms the next stage. A false
// compare-and-set means this worker's output is stale (a reprocess raced it);
// the work is discarded without error.
func (d *Dispatcher) advance(ctx context.Context, stage models.Stage, uploadID uuid.UUID, log *zap.Logger) error {
	ok, err := d.store.AdvanceUploadStatus(ctx, uploadID, stage.Requires(), stage.Advances())
	if err != nil {
		return err
	}
	if !ok {
		log.Warn("upload status changed mid-stage, discarding stale result")
		return nil
	}

	if next := stage.Next(); next != "" {
		return d.queue.Enqueue(ctx, models.Task{UploadID: uploadID, Stage: next})
	}
	return nil
}

func (d *Dispatcher) parse(ctx context.Context, upload *models.Upload, log *zap.Logger) error {
	data, err := d.files.Download(ctx, d.bucket, upload.FileKey)
	if err != nil {
		return err
	}

	text, err := parser.ExtractText(data, upload.MimeType)
	if err != nil {
		return err
	}

	fields, err := d.extractor.ExtractFields(ctx, text)
	if err != nil {
		// The chain exhausted every extractor. Raw text is still worth
		// keeping; the candidate just carries empty structured fields.
		log.Warn("field extraction failed, keeping raw text only", zap.Error(err))
		fields = &extract.Fields{}
	}

	totalYears := fields.TotalYearsExp
	if totalYears == 0 {
		totalYears = parser.TotalYears(fields.WorkExperience)
	}

	candidate := &models.Candidate{
		ID:             upload.ID,
		JobID:          upload.JobID,
		UploadID:       upload.ID,
		RawText:        text,
		Name:           fields.Name,
		Email:          fields.Email,
		Phone:          fields.Phone,
		Skills:         fields.Skills,
		WorkExperience: fields.WorkExperience,
		Education:      fields.Education,
		TotalYearsExp:  totalYears,
	}
	if err := d.store.UpsertCandidate(ctx, candidate); err != nil {
		return err
	}

	return d.advance(ctx, models.StageParse, upload.ID, log)
}

func (d *Dispatcher) embed(ctx context.Context, upload *models.Upload, log *zap.Logger) error {
	candidate, err := d.store.CandidateByUploadID(ctx, upload.ID)
	if errs.IsNotFound(err) {
		return errs.Permanentf("no parsed resume for upload %s", upload.ID)
	}
	if err != nil {
		return err
	}

	job, err := d.store.JobByID(ctx, candidate.JobID)
	if err != nil {
		return err
	}

	// The job-description embedding is produced lazily by the first resume
	// that reaches this stage, and set exactly once.
	if len(job.Embedding) == 0 {
		if strings.TrimSpace(job.Description) == "" {
			return errs.Permanentf("job %s has no description to embed", job.ID)
		}
		vec, err := d.embedder.Embed(ctx, job.Description)
		if err != nil {
			return err
		}
		if _, err := d.store.SetJobEmbedding(ctx, job.ID, extract.Normalize(vec)); err != nil {
			return err
		}
	}

	if len(candidate.Embedding) == 0 {
		if strings.TrimSpace(candidate.RawText) == "" {
			return errs.Permanentf("candidate %s has no text to embed", candidate.ID)
		}
		vec, err := d.embedder.Embed(ctx, candidate.RawText)
		if err != nil {
			return err
		}
		if _, err := d.store.SetCandidateEmbedding(ctx, candidate.ID, extract.Normalize(vec)); err != nil {
			return err
		}
	}

	return d.advance(ctx, models.StageEmbed, upload.ID, log)
}

func (d *Dispatcher) score(ctx context.Context, upload *models.Upload, log *zap.Logger) error {
	candidate, err := d.store.CandidateByUploadID(ctx, upload.ID)
	if errs.IsNotFound(err) {
		return errs.Permanentf("no parsed resume for upload %s", upload.ID)
	}
	if err != nil {
		return err
	}

	job, err := d.store.JobByID(ctx, candidate.JobID)
	if err != nil {
		return err
	}

	score, err := scoring.Score(candidate, job, d.thresholds)
	if err != nil {
		return errs.Permanentf("scoring failed: %v", err)
	}

	if err := d.store.UpsertScore(ctx, score); err != nil {
		return err
	}

	return d.advance(ctx, models.StageScore, upload.ID, log)
}
