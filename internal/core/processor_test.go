package core

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"review-backend/internal/database"
	"review-backend/internal/messaging"
	"review-backend/internal/storage"
	"review-backend/pkg/api"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testUploadBucket = "reviews"

func setupProcessorTest(t *testing.T) (*TaskProcessor, *gorm.DB, *storage.LocalProvider, *messaging.InMemoryQueue) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.GetMigrator(db).Migrate())

	provider := storage.NewLocalProvider(t.TempDir())
	queue := messaging.NewInMemoryQueue()

	classifier, err := NewKeywordClassifier()
	require.NoError(t, err)

	proc := NewTaskProcessor(db, provider, queue, classifier, testUploadBucket, 0)

	return proc, db, provider, queue
}

func createSingleTask(t *testing.T, db *gorm.DB, text string) uuid.UUID {
	t.Helper()

	taskId := uuid.New()
	require.NoError(t, db.Create(&database.Task{
		Id:        taskId,
		Type:      database.TaskSingle,
		Status:    database.TaskAccepted,
		UserId:    "user-1",
		StartedAt: time.Now().UTC(),
		Text:      text,
	}).Error)
	return taskId
}

func createBatchTask(t *testing.T, db *gorm.DB, taskId uuid.UUID, objectKey, filename string, size int64) {
	t.Helper()

	meta, err := json.Marshal(UploadMetadata{Filename: filename, Size: size, Format: filepath.Ext(filename)})
	require.NoError(t, err)

	require.NoError(t, db.Create(&database.Task{
		Id:        taskId,
		Type:      database.TaskBatch,
		Status:    database.TaskAccepted,
		UserId:    "user-1",
		StartedAt: time.Now().UTC(),
		ObjectKey: sql.NullString{String: objectKey, Valid: true},
		Metadata:  datatypes.JSON(meta),
	}).Error)
}

func nextTask(t *testing.T, queue *messaging.InMemoryQueue) messaging.Task {
	t.Helper()

	select {
	case task := <-queue.Tasks():
		return task
	case <-time.After(time.Second):
		t.Fatal("no task available on queue")
		return nil
	}
}

func TestProcessSingleTask(t *testing.T) {
	proc, db, _, queue := setupProcessorTest(t)

	taskId := createSingleTask(t, db, "Great product, love it!")
	require.NoError(t, queue.PublishSingleTask(context.Background(), messaging.SingleTaskPayload{TaskId: taskId}))

	proc.ProcessTask(nextTask(t, queue))

	var task database.Task
	require.NoError(t, db.First(&task, "id = ?", taskId).Error)
	assert.Equal(t, database.TaskReady, task.Status)
	assert.True(t, task.CompletedAt.Valid)
	assert.Equal(t, api.SentimentPositive, task.Sentiment.String)
	assert.InDelta(t, 0.85, task.Confidence.Float64, 1e-9)
	assert.False(t, task.ErrorCode.Valid)
}

func TestProcessSingleTaskSkipsTerminal(t *testing.T) {
	proc, db, _, queue := setupProcessorTest(t)

	taskId := createSingleTask(t, db, "Great product")
	require.NoError(t, database.FailTask(context.Background(), db, taskId, api.ErrCodeProcessing, "boom"))

	require.NoError(t, queue.PublishSingleTask(context.Background(), messaging.SingleTaskPayload{TaskId: taskId}))
	proc.ProcessTask(nextTask(t, queue))

	var task database.Task
	require.NoError(t, db.First(&task, "id = ?", taskId).Error)
	assert.Equal(t, database.TaskError, task.Status)
	assert.Equal(t, api.ErrCodeProcessing, task.ErrorCode.String)
	assert.False(t, task.Sentiment.Valid)
}

func TestProcessBatchTask(t *testing.T) {
	proc, db, provider, queue := setupProcessorTest(t)

	content := "Отлично, рекомендую!\nGreat quality\nTerrible, do not buy\nочень плохо\narrived on a tuesday\n"
	taskId := uuid.New()
	objectKey := "uploads/" + taskId.String() + "/reviews.txt"
	require.NoError(t, provider.PutObject(context.Background(), testUploadBucket, objectKey, bytes.NewReader([]byte(content))))

	createBatchTask(t, db, taskId, objectKey, "reviews.txt", int64(len(content)))

	require.NoError(t, queue.PublishBatchTask(context.Background(), messaging.BatchTaskPayload{TaskId: taskId}))
	proc.ProcessTask(nextTask(t, queue))

	var task database.Task
	require.NoError(t, db.First(&task, "id = ?", taskId).Error)
	assert.Equal(t, database.TaskReady, task.Status)
	assert.True(t, task.CompletedAt.Valid)
	assert.Equal(t, 5, task.TotalReviews)
	assert.Equal(t, 2, task.Positive)
	assert.Equal(t, 2, task.Negative)
	assert.Equal(t, 1, task.Neutral)
	assert.InDelta(t, 40.0, task.PositivePercentage, 1e-9)
	assert.InDelta(t, 40.0, task.NegativePercentage, 1e-9)
	assert.InDelta(t, 20.0, task.NeutralPercentage, 1e-9)

	var reviews []database.Review
	require.NoError(t, db.Find(&reviews, "source = ?", "reviews.txt").Error)
	assert.Len(t, reviews, 5)
	for _, review := range reviews {
		assert.NotEmpty(t, review.Text)
		assert.Contains(t, []string{api.SentimentPositive, api.SentimentNegative, api.SentimentNeutral}, review.Sentiment)
	}
}

func TestProcessBatchTaskNoValidReviews(t *testing.T) {
	proc, db, provider, queue := setupProcessorTest(t)

	taskId := uuid.New()
	objectKey := "uploads/" + taskId.String() + "/empty.txt"
	require.NoError(t, provider.PutObject(context.Background(), testUploadBucket, objectKey, bytes.NewReader([]byte("\n   \n\n"))))

	createBatchTask(t, db, taskId, objectKey, "empty.txt", 6)

	require.NoError(t, queue.PublishBatchTask(context.Background(), messaging.BatchTaskPayload{TaskId: taskId}))
	proc.ProcessTask(nextTask(t, queue))

	var task database.Task
	require.NoError(t, db.First(&task, "id = ?", taskId).Error)
	assert.Equal(t, database.TaskError, task.Status)
	assert.True(t, task.CompletedAt.Valid)
	assert.Equal(t, api.ErrCodeInvalidInput, task.ErrorCode.String)
	assert.True(t, task.ErrorDescription.Valid)
	assert.Zero(t, task.TotalReviews)
}

func TestProcessBatchTaskMissingUpload(t *testing.T) {
	proc, db, _, queue := setupProcessorTest(t)

	taskId := uuid.New()
	createBatchTask(t, db, taskId, "uploads/"+taskId.String()+"/ghost.txt", "ghost.txt", 10)

	require.NoError(t, queue.PublishBatchTask(context.Background(), messaging.BatchTaskPayload{TaskId: taskId}))
	proc.ProcessTask(nextTask(t, queue))

	var task database.Task
	require.NoError(t, db.First(&task, "id = ?", taskId).Error)
	assert.Equal(t, database.TaskError, task.Status)
	assert.Equal(t, api.ErrCodeSystem, task.ErrorCode.String)
}
