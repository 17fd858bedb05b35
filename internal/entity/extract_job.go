package entity

import (
	"time"

	"github.com/google/uuid"
)

// ExtractJob is one ledger row describing an extraction or resolve attempt.
type ExtractJob struct {
	ID            uuid.UUID  `json:"id"`
	ExamID        string     `json:"exam_id"`
	Layout        string     `json:"layout"`
	SourcePath    string     `json:"source_path"`
	Status        string     `json:"status"`
	QuestionCount int        `json:"question_count"`
	ImageCount    int        `json:"image_count"`
	ErrorMessage  *string    `json:"error_message,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}
