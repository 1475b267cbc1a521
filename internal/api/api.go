package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"review-backend/internal/core"
	"review-backend/internal/database"
	"review-backend/internal/messaging"
	"review-backend/internal/storage"
	"review-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// MaxTextLength is the longest text accepted for single analysis,
	// measured in characters, not bytes.
	MaxTextLength = 512

	// MaxUploadSize caps batch upload files at 10MB.
	MaxUploadSize = 10 << 20
)

type BackendService struct {
	db           *gorm.DB
	storage      storage.Provider
	publisher    messaging.Publisher
	classifier   core.Classifier
	uploadBucket string
}

func NewBackendService(db *gorm.DB, store storage.Provider, pub messaging.Publisher, classifier core.Classifier, uploadBucket string) *BackendService {
	return &BackendService{db: db, storage: store, publisher: pub, classifier: classifier, uploadBucket: uploadBucket}
}

func (s *BackendService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return nil, nil }))
	r.Route("/task", func(r chi.Router) {
		r.Post("/run/single", RestHandler(s.SubmitSingleTask))
		r.Post("/run/batch", RestHandler(s.SubmitBatchTask))
		r.Post("/result/single", RestHandler(s.GetSingleTaskResult))
		r.Post("/result/batch", RestHandler(s.GetBatchTaskResult))
	})
	r.Route("/reviews", func(r chi.Router) {
		r.Post("/analyze", RestHandler(s.AnalyzeReview))
		r.Get("/", RestHandler(s.ListReviews))
		r.Get("/{review_id}", RestHandler(s.GetReview))
	})
	r.Get("/analytics/summary", RestHandler(s.GetAnalyticsSummary))
}

func (s *BackendService) SubmitSingleTask(r *http.Request) (any, error) {
	req, err := ParseRequest[api.RunSingleRequest](r)
	if err != nil {
		return nil, err
	}

	if req.UserId == "" {
		return nil, CodedErrorf(http.StatusUnprocessableEntity, "user_id is required")
	}
	if req.Text == "" {
		return nil, CodedErrorf(http.StatusUnprocessableEntity, "text is required")
	}
	if utf8.RuneCountInString(req.Text) > MaxTextLength {
		return nil, CodedErrorf(http.StatusUnprocessableEntity, "text exceeds maximum length of %d characters", MaxTextLength)
	}

	ctx := r.Context()

	task := database.Task{
		Id:        uuid.New(),
		Type:      database.TaskSingle,
		Status:    database.TaskAccepted,
		UserId:    req.UserId,
		StartedAt: time.Now().UTC(),
		Text:      req.Text,
	}

	if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
		slog.Error("error creating single task", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create task")
	}

	if err := s.publisher.PublishSingleTask(ctx, messaging.SingleTaskPayload{TaskId: task.Id}); err != nil {
		slog.Error("error publishing single task", "task_id", task.Id, "error", err)
		if failErr := database.FailTask(ctx, s.db, task.Id, api.ErrCodeSystem, "could not queue task for processing"); failErr != nil {
			slog.Error("error failing unpublished task", "task_id", task.Id, "error", failErr)
		}
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to queue task")
	}

	slog.Info("submitted single task", "task_id", task.Id, "user_id", req.UserId)
	return convertTask(task), nil
}

func (s *BackendService) SubmitBatchTask(r *http.Request) (any, error) {
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		slog.Error("error parsing multipart form", "error", err)
		return nil, CodedErrorf(http.StatusBadRequest, "unable to parse multipart form")
	}

	userId := r.FormValue("user_id")
	if userId == "" {
		return nil, CodedErrorf(http.StatusUnprocessableEntity, "user_id is required")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, CodedErrorf(http.StatusUnprocessableEntity, "file is required")
	}
	defer file.Close()

	if header.Size > MaxUploadSize {
		return nil, CodedErrorf(http.StatusRequestEntityTooLarge, "File size exceeds the maximum limit of 10MB.")
	}

	format, ok := core.FileFormat(header.Filename)
	if !ok {
		return nil, CodedErrorf(http.StatusUnsupportedMediaType, "Unsupported file format: %s for file %s", strings.TrimPrefix(format, "."), header.Filename)
	}

	ctx := r.Context()

	taskId := uuid.New()
	objectKey := fmt.Sprintf("uploads/%s/%s", taskId, header.Filename)

	if err := s.storage.PutObject(ctx, s.uploadBucket, objectKey, file); err != nil {
		slog.Error("error storing uploaded file", "task_id", taskId, "filename", header.Filename, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to store uploaded file")
	}

	metadata, err := json.Marshal(core.UploadMetadata{Filename: header.Filename, Size: header.Size, Format: format})
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to encode upload metadata")
	}

	task := database.Task{
		Id:        taskId,
		Type:      database.TaskBatch,
		Status:    database.TaskAccepted,
		UserId:    userId,
		StartedAt: time.Now().UTC(),
		ObjectKey: sql.NullString{String: objectKey, Valid: true},
		Metadata:  datatypes.JSON(metadata),
	}

	if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
		slog.Error("error creating batch task", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create task")
	}

	if err := s.publisher.PublishBatchTask(ctx, messaging.BatchTaskPayload{TaskId: task.Id}); err != nil {
		slog.Error("error publishing batch task", "task_id", task.Id, "error", err)
		if failErr := database.FailTask(ctx, s.db, task.Id, api.ErrCodeSystem, "could not queue task for processing"); failErr != nil {
			slog.Error("error failing unpublished task", "task_id", task.Id, "error", failErr)
		}
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to queue task")
	}

	slog.Info("submitted batch task", "task_id", task.Id, "user_id", userId, "filename", header.Filename, "size", header.Size)
	return convertTask(task), nil
}

func (s *BackendService) GetSingleTaskResult(r *http.Request) (any, error) {
	req, err := ParseRequest[api.GetResultRequest](r)
	if err != nil {
		return nil, err
	}
	if req.UserId == "" {
		return nil, CodedErrorf(http.StatusUnprocessableEntity, "user_id is required")
	}

	task, err := database.GetLatestTask(r.Context(), s.db, req.UserId, database.TaskSingle)
	if err != nil {
		if errors.Is(err, database.ErrTaskNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "No single task found for this user")
		}
		slog.Error("error fetching latest single task", "user_id", req.UserId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving task")
	}

	return convertTask(task), nil
}

func (s *BackendService) GetBatchTaskResult(r *http.Request) (any, error) {
	req, err := ParseRequest[api.GetResultRequest](r)
	if err != nil {
		return nil, err
	}
	if req.UserId == "" {
		return nil, CodedErrorf(http.StatusUnprocessableEntity, "user_id is required")
	}

	task, err := database.GetLatestTask(r.Context(), s.db, req.UserId, database.TaskBatch)
	if err != nil {
		if errors.Is(err, database.ErrTaskNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "No batch task found for this user")
		}
		slog.Error("error fetching latest batch task", "user_id", req.UserId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving task")
	}

	return convertTask(task), nil
}
