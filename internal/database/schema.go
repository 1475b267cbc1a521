package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	TaskSingle string = "single"
	TaskBatch  string = "batch"
)

const (
	TaskAccepted string = "accepted"
	TaskQueued   string = "queued"
	TaskReady    string = "ready"
	TaskError    string = "error"
)

// validTransitions lists the allowed forward moves of the task lifecycle.
// Terminal statuses have no entries, so any move out of them is rejected.
var validTransitions = map[string][]string{
	TaskAccepted: {TaskQueued, TaskError},
	TaskQueued:   {TaskReady, TaskError},
}

func CanTransition(from, to string) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsTerminalStatus(status string) bool {
	return status == TaskReady || status == TaskError
}

type Task struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Type   string `gorm:"size:10;not null;index:idx_tasks_latest,priority:2"`
	Status string `gorm:"size:20;not null;index"`

	UserId string `gorm:"size:255;not null;index:idx_tasks_latest,priority:1"`

	StartedAt   time.Time `gorm:"not null;index:idx_tasks_latest,priority:3"`
	CompletedAt sql.NullTime

	// Input: text for single tasks, storage key of the uploaded file for
	// batch tasks.
	Text      string
	ObjectKey sql.NullString
	Metadata  datatypes.JSON `gorm:"type:jsonb"`

	Sentiment  sql.NullString `gorm:"size:20"`
	Confidence sql.NullFloat64

	TotalReviews       int     `gorm:"default:0"`
	Positive           int     `gorm:"default:0"`
	Negative           int     `gorm:"default:0"`
	Neutral            int     `gorm:"default:0"`
	PositivePercentage float64 `gorm:"default:0"`
	NegativePercentage float64 `gorm:"default:0"`
	NeutralPercentage  float64 `gorm:"default:0"`

	ErrorCode        sql.NullString `gorm:"size:5"`
	ErrorDescription sql.NullString
}

type Review struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Text       string  `gorm:"not null"`
	Sentiment  string  `gorm:"size:20;not null;index"`
	Confidence float64 `gorm:"not null"`
	Source     string  `gorm:"size:100"`

	CreatedAt time.Time `gorm:"index"`
}
