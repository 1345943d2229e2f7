package models

import (
	"time"

	"github.com/google/uuid"
)

// AttemptRecord is one row of the activity log: a single answer to a single
// question. The same question can appear any number of times per user.
// WasCorrect is nullable because legacy clients recorded skipped questions
// without a verdict; only an explicit true counts as correct.
type AttemptRecord struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	QuestionID  string    `json:"question_id"`
	Subject     string    `json:"subject"`
	WasCorrect  *bool     `json:"was_correct"`
	AttemptedAt time.Time `json:"attempted_at"`
}

type RecordAttemptRequest struct {
	QuestionID string `json:"question_id"`
	Subject    string `json:"subject"`
	WasCorrect *bool  `json:"was_correct"`
}
