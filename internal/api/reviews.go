package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"review-backend/internal/core"
	"review-backend/internal/database"
	"review-backend/pkg/api"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultReviewPageSize bounds listings when no limit is given.
const DefaultReviewPageSize = 100

func (s *BackendService) AnalyzeReview(r *http.Request) (any, error) {
	req, err := ParseRequest[api.AnalyzeReviewRequest](r)
	if err != nil {
		return nil, err
	}

	if req.Text == "" {
		return nil, CodedErrorf(http.StatusUnprocessableEntity, "text is required")
	}
	if utf8.RuneCountInString(req.Text) > MaxTextLength {
		return nil, CodedErrorf(http.StatusUnprocessableEntity, "text exceeds maximum length of %d characters", MaxTextLength)
	}

	sentiment, confidence, err := s.classifier.Classify(req.Text)
	if err != nil {
		slog.Error("error classifying review", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "sentiment analysis failed")
	}

	review := database.Review{
		Id:         uuid.New(),
		Text:       req.Text,
		Sentiment:  sentiment,
		Confidence: confidence,
		Source:     "api",
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.db.WithContext(r.Context()).Create(&review).Error; err != nil {
		slog.Error("error storing review", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to store review")
	}

	return convertReview(review), nil
}

func (s *BackendService) ListReviews(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.ListReviewsRequest](r)
	if err != nil {
		return nil, err
	}

	if params.Limit <= 0 {
		params.Limit = DefaultReviewPageSize
	}
	if params.Skip < 0 {
		params.Skip = 0
	}

	ctx := r.Context()

	var total int64
	if err := s.db.WithContext(ctx).Model(&database.Review{}).Count(&total).Error; err != nil {
		slog.Error("error counting reviews", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error listing reviews")
	}

	var reviews []database.Review
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(params.Skip).
		Limit(params.Limit).
		Find(&reviews).Error; err != nil {
		slog.Error("error listing reviews", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error listing reviews")
	}

	list := api.ReviewList{Reviews: make([]api.Review, 0, len(reviews)), Total: total}
	for _, review := range reviews {
		list.Reviews = append(list.Reviews, convertReview(review))
	}

	return list, nil
}

func (s *BackendService) GetReview(r *http.Request) (any, error) {
	reviewId, err := URLParamUUID(r, "review_id")
	if err != nil {
		return nil, err
	}

	var review database.Review
	if err := s.db.WithContext(r.Context()).First(&review, "id = ?", reviewId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "review not found")
		}
		slog.Error("error getting review", "review_id", reviewId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving review")
	}

	return convertReview(review), nil
}

func (s *BackendService) GetAnalyticsSummary(r *http.Request) (any, error) {
	counts, total, err := database.CountReviewsBySentiment(r.Context(), s.db)
	if err != nil {
		slog.Error("error computing analytics summary", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error computing analytics summary")
	}

	stats := api.SentimentStatistics{
		TotalReviews: total,
		Positive:     counts[api.SentimentPositive],
		Negative:     counts[api.SentimentNegative],
		Neutral:      counts[api.SentimentNeutral],
	}
	if total > 0 {
		stats.PositivePercentage = core.Percentage(stats.Positive, total, 2)
		stats.NegativePercentage = core.Percentage(stats.Negative, total, 2)
		stats.NeutralPercentage = core.Percentage(stats.Neutral, total, 2)
	}

	return api.AnalyticsSummary{Statistics: stats}, nil
}
