package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Stage is one unit of pipeline work. The string values double as the wire
// representation on the queue.
type Stage string

const (
	StageParse Stage = "parse"
	StageEmbed Stage = "embed"
	StageScore Stage = "score"
)

func (s Stage) Valid() bool {
	return s == StageParse || s == StageEmbed || s == StageScore
}

// Requires returns the upload status a task of this stage expects to find.
func (s Stage) Requires() Status {
	switch s {
	case StageParse:
		return StatusStored
	case StageEmbed:
		return StatusParsed
	case StageScore:
		return StatusEmbedded
	default:
		return StatusUnknown
	}
}

// Advances returns the upload status recorded after this stage succeeds.
func (s Stage) Advances() Status {
	switch s {
	case StageParse:
		return StatusParsed
	case StageEmbed:
		return StatusEmbedded
	case StageScore:
		return StatusScored
	default:
		return StatusUnknown
	}
}

// Next returns the stage enqueued after this one, or "" for the terminal
// score stage.
func (s Stage) Next() Stage {
	switch s {
	case StageParse:
		return StageEmbed
	case StageEmbed:
		return StageScore
	default:
		return ""
	}
}

// Task is the queue message: which upload, and which stage to run on it.
// Delivery is at-least-once, so handlers must tolerate replays.
type Task struct {
	UploadID uuid.UUID `json:"upload_id"`
	Stage    Stage     `json:"stage"`
}

func (t Task) Validate() error {
	if t.UploadID == uuid.Nil {
		return fmt.Errorf("task has no upload id")
	}
	if !t.Stage.Valid() {
		return fmt.Errorf("task has invalid stage: %q", t.Stage)
	}
	return nil
}
