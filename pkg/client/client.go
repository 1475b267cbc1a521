// Package client provides a Go client for the review backend task api,
// along with a poller that drives a submitted task to its terminal status.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"review-backend/pkg/api"

	"github.com/go-resty/resty/v2"
)

// ErrNoTask is returned by the result methods when the user has never
// submitted a task of the requested kind.
var ErrNoTask = errors.New("no task found for user")

type Client struct {
	http *resty.Client
}

// New creates a client for a backend reachable at baseURL, which should
// include the api prefix, e.g. "http://localhost:8000/api/v1".
func New(baseURL string) *Client {
	return &Client{http: resty.New().SetBaseURL(baseURL)}
}

func (c *Client) Health(ctx context.Context) error {
	res, err := c.http.R().SetContext(ctx).Get("/health")
	if err != nil {
		return fmt.Errorf("error checking backend health: %w", err)
	}
	if !res.IsSuccess() {
		return fmt.Errorf("backend health check returned status %d", res.StatusCode())
	}
	return nil
}

// SubmitSingle submits a text for sentiment analysis. The returned task is
// at the accepted status, poll one of the result methods to observe its
// progress.
func (c *Client) SubmitSingle(ctx context.Context, userId, text string) (api.Task, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(api.RunSingleRequest{UserId: userId, Text: text}).
		Post("/task/run/single")
	if err != nil {
		return api.Task{}, fmt.Errorf("error submitting single task: %w", err)
	}

	return parseTaskResponse(res)
}

// SubmitBatch uploads a file of reviews for batch analysis.
func (c *Client) SubmitBatch(ctx context.Context, userId, filename string, file io.Reader) (api.Task, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", filename, file).
		SetFormData(map[string]string{"user_id": userId}).
		Post("/task/run/batch")
	if err != nil {
		return api.Task{}, fmt.Errorf("error submitting batch task: %w", err)
	}

	return parseTaskResponse(res)
}

// GetSingleResult returns the latest single task for the user, whatever its
// status. Returns ErrNoTask if the user has no single tasks.
func (c *Client) GetSingleResult(ctx context.Context, userId string) (api.Task, error) {
	return c.getResult(ctx, "/task/result/single", userId)
}

// GetBatchResult returns the latest batch task for the user, whatever its
// status. Returns ErrNoTask if the user has no batch tasks.
func (c *Client) GetBatchResult(ctx context.Context, userId string) (api.Task, error) {
	return c.getResult(ctx, "/task/result/batch", userId)
}

func (c *Client) getResult(ctx context.Context, endpoint, userId string) (api.Task, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(api.GetResultRequest{UserId: userId}).
		Post(endpoint)
	if err != nil {
		return api.Task{}, fmt.Errorf("error fetching task result: %w", err)
	}

	if res.StatusCode() == http.StatusNotFound {
		return api.Task{}, ErrNoTask
	}

	return parseTaskResponse(res)
}

func parseTaskResponse(res *resty.Response) (api.Task, error) {
	if !res.IsSuccess() {
		var apiErr api.ApiError
		if err := json.Unmarshal(res.Body(), &apiErr); err == nil && apiErr.Message != "" {
			return api.Task{}, fmt.Errorf("request failed with status %d: %s", res.StatusCode(), apiErr.Message)
		}
		return api.Task{}, fmt.Errorf("request failed with status %d", res.StatusCode())
	}

	var task api.Task
	if err := json.Unmarshal(res.Body(), &task); err != nil {
		return api.Task{}, fmt.Errorf("error parsing task response: %w", err)
	}

	return task, nil
}
