package api

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const (
	TaskTypeSingle = "single"
	TaskTypeBatch  = "batch"
)

const (
	StatusAccepted = "accepted"
	StatusQueued   = "queued"
	StatusReady    = "ready"
	StatusError    = "error"
)

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Coarse failure categories reported on tasks that reached the error status.
// Clients treat the value as opaque beyond the category.
const (
	ErrCodeProcessing   = "01"
	ErrCodeInvalidInput = "02"
	ErrCodeSystem       = "03"
)

type Task struct {
	TaskId uuid.UUID `json:"task_id"`
	Type   string    `json:"type"`
	Status string    `json:"status"`
	Start  int64     `json:"start"`
	End    *int64    `json:"end,omitempty"`

	Result json.RawMessage `json:"result,omitempty"`
	Error  *TaskError      `json:"error,omitempty"`
}

func (t *Task) Terminal() bool {
	return t.Status == StatusReady || t.Status == StatusError
}

// SingleResult decodes the result payload of a completed single task.
func (t *Task) SingleResult() (SingleResult, error) {
	var res SingleResult
	if t.Status != StatusReady {
		return res, fmt.Errorf("task %v has no result, status is '%s'", t.TaskId, t.Status)
	}
	if err := json.Unmarshal(t.Result, &res); err != nil {
		return res, fmt.Errorf("error parsing single task result: %w", err)
	}
	return res, nil
}

// BatchResult decodes the result payload of a completed batch task.
func (t *Task) BatchResult() (BatchResult, error) {
	var res BatchResult
	if t.Status != StatusReady {
		return res, fmt.Errorf("task %v has no result, status is '%s'", t.TaskId, t.Status)
	}
	if err := json.Unmarshal(t.Result, &res); err != nil {
		return res, fmt.Errorf("error parsing batch task result: %w", err)
	}
	return res, nil
}

type SingleResult struct {
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
	Text       string  `json:"text,omitempty"`
}

type BatchResult struct {
	TotalReviews       int     `json:"total_reviews"`
	Positive           int     `json:"positive"`
	Negative           int     `json:"negative"`
	Neutral            int     `json:"neutral"`
	PositivePercentage float64 `json:"positive_percentage"`
	NegativePercentage float64 `json:"negative_percentage"`
	NeutralPercentage  float64 `json:"neutral_percentage"`
}

type TaskError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type RunSingleRequest struct {
	UserId string `json:"user_id"`
	Text   string `json:"text"`
}

type GetResultRequest struct {
	UserId string `json:"user_id"`
}

// ApiError is the body returned for any non-2xx response.
type ApiError struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type Review struct {
	Id         uuid.UUID `json:"id"`
	Text       string    `json:"text"`
	Sentiment  string    `json:"sentiment"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source,omitempty"`
	CreatedAt  int64     `json:"created_at"`
}

type AnalyzeReviewRequest struct {
	Text string `json:"text"`
}

type ListReviewsRequest struct {
	Skip  int `schema:"skip"`
	Limit int `schema:"limit"`
}

type ReviewList struct {
	Reviews []Review `json:"reviews"`
	Total   int64    `json:"total"`
}

type SentimentStatistics struct {
	TotalReviews       int64   `json:"total_reviews"`
	Positive           int64   `json:"positive"`
	Negative           int64   `json:"negative"`
	Neutral            int64   `json:"neutral"`
	PositivePercentage float64 `json:"positive_percentage"`
	NegativePercentage float64 `json:"negative_percentage"`
	NeutralPercentage  float64 `json:"neutral_percentage"`
}

type AnalyticsSummary struct {
	Statistics SentimentStatistics `json:"statistics"`
}
