package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrInvalidTransition = errors.New("invalid task status transition")
)

// UpdateTaskStatus moves a task to newStatus, applying any extra column
// updates (result or error payload) in the same statement. The move must be
// a valid forward transition, and the update is guarded on the status the
// task was read at, so concurrent transitions cannot leapfrog each other or
// resurrect a terminal task.
func UpdateTaskStatus(ctx context.Context, txn *gorm.DB, taskId uuid.UUID, newStatus string, extra map[string]any) error {
	var task Task
	if err := txn.WithContext(ctx).Select("id", "status").First(&task, "id = ?", taskId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("error fetching task %v: %w", taskId, err)
	}

	if !CanTransition(task.Status, newStatus) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, task.Status, newStatus)
	}

	updates := map[string]any{"status": newStatus}
	for column, value := range extra {
		updates[column] = value
	}
	if IsTerminalStatus(newStatus) {
		updates["completed_at"] = time.Now().UTC()
	}

	res := txn.WithContext(ctx).
		Model(&Task{}).
		Where("id = ? AND status = ?", taskId, task.Status).
		Updates(updates)
	if res.Error != nil {
		slog.Error("error updating task status", "task_id", taskId, "status", newStatus, "error", res.Error)
		return fmt.Errorf("error updating task %v status: %w", taskId, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: task %v left status '%s' concurrently", ErrInvalidTransition, taskId, task.Status)
	}

	return nil
}

// FailTask moves a task to the error status with the given code and
// description.
func FailTask(ctx context.Context, txn *gorm.DB, taskId uuid.UUID, code, description string) error {
	return UpdateTaskStatus(ctx, txn, taskId, TaskError, map[string]any{
		"error_code":        code,
		"error_description": description,
	})
}

// GetLatestTask returns the most recently started task for the user and task
// type. Older tasks for the same pair are shadowed: only the newest one is
// reachable through the result endpoints.
func GetLatestTask(ctx context.Context, db *gorm.DB, userId, taskType string) (Task, error) {
	var task Task
	err := db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userId, taskType).
		Order("started_at DESC").
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Task{}, ErrTaskNotFound
		}
		return Task{}, fmt.Errorf("error fetching latest %s task: %w", taskType, err)
	}
	return task, nil
}

// CountReviewsBySentiment returns stored review counts grouped by sentiment
// label, along with the overall total.
func CountReviewsBySentiment(ctx context.Context, db *gorm.DB) (map[string]int64, int64, error) {
	var rows []struct {
		Sentiment string
		Count     int64
	}
	if err := db.WithContext(ctx).
		Model(&Review{}).
		Select("sentiment, count(*) as count").
		Group("sentiment").
		Scan(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting reviews by sentiment: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	var total int64
	for _, row := range rows {
		counts[row.Sentiment] = row.Count
		total += row.Count
	}
	return counts, total, nil
}
