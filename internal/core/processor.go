package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"review-backend/internal/core/utils"
	"review-backend/internal/database"
	"review-backend/internal/messaging"
	"review-backend/internal/storage"
	"review-backend/pkg/api"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultProcessingDelay simulates analysis time before a task completes.
const DefaultProcessingDelay = 5 * time.Second

const classifyWorkers = 8

type TaskProcessor struct {
	db         *gorm.DB
	storage    storage.Provider
	reciever   messaging.Reciever
	classifier Classifier

	uploadBucket    string
	processingDelay time.Duration
}

func NewTaskProcessor(db *gorm.DB, storage storage.Provider, reciever messaging.Reciever, classifier Classifier, uploadBucket string, processingDelay time.Duration) *TaskProcessor {
	return &TaskProcessor{
		db:              db,
		storage:         storage,
		reciever:        reciever,
		classifier:      classifier,
		uploadBucket:    uploadBucket,
		processingDelay: processingDelay,
	}
}

func (proc *TaskProcessor) Start() {
	slog.Info("starting task processor")

	for task := range proc.reciever.Tasks() {
		proc.ProcessTask(task)
	}
}

func (proc *TaskProcessor) Stop() {
	slog.Info("stopping task processor")

	proc.reciever.Close()
}

func (proc *TaskProcessor) ProcessTask(task messaging.Task) {
	ctx := context.Background()

	var err error
	switch task.Type() {

	case messaging.SingleTaskQueue:
		var payload messaging.SingleTaskPayload
		if err = json.Unmarshal(task.Payload(), &payload); err != nil {
			slog.Error("error unmarshalling single task", "error", err)
			if err := task.Reject(); err != nil { // Discard malformed message
				slog.Error("error rejecting message from queue", "error", err)
			}
			return
		}
		err = proc.processSingleTask(ctx, payload)

	case messaging.BatchTaskQueue:
		var payload messaging.BatchTaskPayload
		if err = json.Unmarshal(task.Payload(), &payload); err != nil {
			slog.Error("error unmarshalling batch task", "error", err)
			if err := task.Reject(); err != nil { // Discard malformed message
				slog.Error("error rejecting message from queue", "error", err)
			}
			return
		}
		err = proc.processBatchTask(ctx, payload)

	default:
		slog.Error("received unknown task type", "queue", task.Type())
		if err := task.Reject(); err != nil { // reject unknown message type
			slog.Error("error rejecting message from queue", "error", err)
		}
		return
	}

	if err != nil {
		slog.Error("error processing task", "queue", task.Type(), "error", err)
		if err := task.Nack(); err != nil {
			slog.Error("error reporting processing failure on message from queue", "error", err)
		}
	} else {
		slog.Info("successfully processed task", "queue", task.Type())
		if err := task.Ack(); err != nil {
			slog.Error("error acknowledging message from queue", "error", err)
		}
	}
}

// claimTask loads the task and marks it queued. Tasks already in a terminal
// status are returned with claimed=false so that redelivered messages get
// acknowledged without reprocessing.
func (proc *TaskProcessor) claimTask(ctx context.Context, taskId uuid.UUID) (database.Task, bool, error) {
	var task database.Task
	if err := proc.db.WithContext(ctx).First(&task, "id = ?", taskId).Error; err != nil {
		slog.Error("error fetching task", "task_id", taskId, "error", err)
		return database.Task{}, false, fmt.Errorf("error getting task: %w", err)
	}

	if database.IsTerminalStatus(task.Status) {
		slog.Info("task already in terminal status, skipping", "task_id", taskId, "status", task.Status)
		return task, false, nil
	}

	if task.Status == database.TaskAccepted {
		if err := database.UpdateTaskStatus(ctx, proc.db, taskId, database.TaskQueued, nil); err != nil {
			return database.Task{}, false, fmt.Errorf("error marking task as queued: %w", err)
		}
	}

	return task, true, nil
}

func (proc *TaskProcessor) processSingleTask(ctx context.Context, payload messaging.SingleTaskPayload) error {
	taskId := payload.TaskId

	slog.Info("processing single task", "task_id", taskId)

	task, claimed, err := proc.claimTask(ctx, taskId)
	if err != nil || !claimed {
		return err
	}

	time.Sleep(proc.processingDelay)

	sentiment, confidence, err := proc.classifier.Classify(task.Text)
	if err != nil {
		slog.Error("error classifying text", "task_id", taskId, "error", err)
		database.FailTask(ctx, proc.db, taskId, api.ErrCodeProcessing, "sentiment analysis failed") //nolint:errcheck
		return fmt.Errorf("error classifying text: %w", err)
	}

	if err := database.UpdateTaskStatus(ctx, proc.db, taskId, database.TaskReady, map[string]any{
		"sentiment":  sentiment,
		"confidence": confidence,
	}); err != nil {
		return fmt.Errorf("error updating task status to ready: %w", err)
	}

	slog.Info("single task completed successfully", "task_id", taskId, "sentiment", sentiment)

	return nil
}

func (proc *TaskProcessor) processBatchTask(ctx context.Context, payload messaging.BatchTaskPayload) error {
	taskId := payload.TaskId

	slog.Info("processing batch task", "task_id", taskId)

	task, claimed, err := proc.claimTask(ctx, taskId)
	if err != nil || !claimed {
		return err
	}

	time.Sleep(proc.processingDelay)

	var meta UploadMetadata
	if err := json.Unmarshal(task.Metadata, &meta); err != nil || !task.ObjectKey.Valid {
		slog.Error("batch task has no usable upload reference", "task_id", taskId, "error", err)
		database.FailTask(ctx, proc.db, taskId, api.ErrCodeSystem, "uploaded file reference is missing") //nolint:errcheck
		return fmt.Errorf("batch task %v has no usable upload reference", taskId)
	}

	stream, err := proc.storage.GetObjectStream(proc.uploadBucket, task.ObjectKey.String)
	if err != nil {
		slog.Error("error opening uploaded file", "task_id", taskId, "key", task.ObjectKey.String, "error", err)
		database.FailTask(ctx, proc.db, taskId, api.ErrCodeSystem, "could not read uploaded file") //nolint:errcheck
		return fmt.Errorf("error opening uploaded file: %w", err)
	}

	items, err := ParseReviews(meta.Filename, stream)
	if err != nil {
		slog.Error("error parsing uploaded file", "task_id", taskId, "filename", meta.Filename, "error", err)
		database.FailTask(ctx, proc.db, taskId, api.ErrCodeProcessing, fmt.Sprintf("failed to process file %s", meta.Filename)) //nolint:errcheck
		return fmt.Errorf("error parsing uploaded file: %w", err)
	}

	summary, reviews, err := proc.classifyReviews(items, meta.Filename)
	if err != nil {
		slog.Error("error classifying reviews", "task_id", taskId, "error", err)
		database.FailTask(ctx, proc.db, taskId, api.ErrCodeProcessing, "sentiment analysis failed") //nolint:errcheck
		return fmt.Errorf("error classifying reviews: %w", err)
	}

	if summary.TotalReviews == 0 {
		slog.Warn("no valid review texts in uploaded file", "task_id", taskId, "filename", meta.Filename)
		database.FailTask(ctx, proc.db, taskId, api.ErrCodeInvalidInput, "no valid review texts found in the file") //nolint:errcheck
		return fmt.Errorf("no valid review texts in file %s", meta.Filename)
	}

	if err := proc.db.WithContext(ctx).CreateInBatches(&reviews, 100).Error; err != nil {
		slog.Error("error saving reviews to database", "task_id", taskId, "error", err)
		database.FailTask(ctx, proc.db, taskId, api.ErrCodeSystem, "could not store analyzed reviews") //nolint:errcheck
		return fmt.Errorf("error saving reviews: %w", err)
	}

	if err := database.UpdateTaskStatus(ctx, proc.db, taskId, database.TaskReady, map[string]any{
		"total_reviews":       summary.TotalReviews,
		"positive":            summary.Positive,
		"negative":            summary.Negative,
		"neutral":             summary.Neutral,
		"positive_percentage": summary.PositivePercentage,
		"negative_percentage": summary.NegativePercentage,
		"neutral_percentage":  summary.NeutralPercentage,
	}); err != nil {
		return fmt.Errorf("error updating task status to ready: %w", err)
	}

	slog.Info("batch task completed successfully", "task_id", taskId, "total_reviews", summary.TotalReviews)

	return nil
}

type classifiedReview struct {
	text       string
	sentiment  string
	confidence float64
}

// classifyReviews labels every non-blank item concurrently and aggregates the
// outcome. Review rows come back in file order.
func (proc *TaskProcessor) classifyReviews(items []string, source string) (BatchSummary, []database.Review, error) {
	texts := make([]string, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item) == "" { // blank entries are not counted
			continue
		}
		texts = append(texts, item)
	}

	completed := utils.RunInPool(func(text string) (classifiedReview, error) {
		sentiment, confidence, err := proc.classifier.Classify(text)
		if err != nil {
			return classifiedReview{}, err
		}
		return classifiedReview{text: text, sentiment: sentiment, confidence: confidence}, nil
	}, texts, classifyWorkers)

	var positive, negative, neutral int
	reviews := make([]database.Review, 0, len(completed))
	now := time.Now().UTC()

	for _, result := range completed {
		if result.Error != nil {
			return BatchSummary{}, nil, result.Error
		}

		switch result.Result.sentiment {
		case api.SentimentPositive:
			positive++
		case api.SentimentNegative:
			negative++
		default:
			neutral++
		}

		reviews = append(reviews, database.Review{
			Id:         uuid.New(),
			Text:       result.Result.text,
			Sentiment:  result.Result.sentiment,
			Confidence: result.Result.confidence,
			Source:     source,
			CreatedAt:  now,
		})
	}

	return SummarizeCounts(positive, negative, neutral), reviews, nil
}
