package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	SingleTaskQueue = "single_task_queue"
	BatchTaskQueue  = "batch_task_queue"
	RetryDelay      = 5 * time.Second
	MaxConnectRetry = 5
)

type Task interface {
	Type() string

	Payload() []byte

	Ack() error

	Nack() error

	Reject() error
}

type SingleTaskPayload struct {
	TaskId uuid.UUID `json:"task_id"`
}

type BatchTaskPayload struct {
	TaskId uuid.UUID `json:"task_id"`
}

type Publisher interface {
	PublishSingleTask(ctx context.Context, payload SingleTaskPayload) error

	PublishBatchTask(ctx context.Context, payload BatchTaskPayload) error

	Close()
}

type Reciever interface {
	Tasks() <-chan Task

	Close()
}
