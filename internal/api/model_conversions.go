package api

import (
	"encoding/json"
	"log/slog"

	"review-backend/internal/database"
	"review-backend/pkg/api"
)

// convertTask maps a task row to its wire representation. Result and error
// are only populated once the task reached the matching terminal status.
func convertTask(task database.Task) api.Task {
	out := api.Task{
		TaskId: task.Id,
		Type:   task.Type,
		Status: task.Status,
		Start:  task.StartedAt.Unix(),
	}

	if task.CompletedAt.Valid {
		end := task.CompletedAt.Time.Unix()
		out.End = &end
	}

	switch task.Status {
	case database.TaskReady:
		var result any
		if task.Type == database.TaskSingle {
			result = api.SingleResult{
				Sentiment:  task.Sentiment.String,
				Confidence: task.Confidence.Float64,
				Text:       task.Text,
			}
		} else {
			result = api.BatchResult{
				TotalReviews:       task.TotalReviews,
				Positive:           task.Positive,
				Negative:           task.Negative,
				Neutral:            task.Neutral,
				PositivePercentage: task.PositivePercentage,
				NegativePercentage: task.NegativePercentage,
				NeutralPercentage:  task.NeutralPercentage,
			}
		}

		payload, err := json.Marshal(result)
		if err != nil {
			slog.Error("error serializing task result", "task_id", task.Id, "error", err)
		} else {
			out.Result = payload
		}
	case database.TaskError:
		description := task.ErrorDescription.String
		if description == "" {
			description = "Unknown error"
		}
		out.Error = &api.TaskError{
			Code:        task.ErrorCode.String,
			Description: description,
		}
	}

	return out
}

func convertReview(review database.Review) api.Review {
	return api.Review{
		Id:         review.Id,
		Text:       review.Text,
		Sentiment:  review.Sentiment,
		Confidence: review.Confidence,
		Source:     review.Source,
		CreatedAt:  review.CreatedAt.Unix(),
	}
}
