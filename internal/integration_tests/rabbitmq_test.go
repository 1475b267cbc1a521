package integrationtests

import (
	"context"
	"encoding/json"
	"review-backend/internal/messaging"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRabbitMQ(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	publisher, reciever := setupRabbitMQContainer(t, ctx)

	t.Run("Publish and Receive SingleTask", func(t *testing.T) {
		payload := messaging.SingleTaskPayload{TaskId: uuid.New()}
		err := publisher.PublishSingleTask(ctx, payload)
		require.NoError(t, err)

		select {
		case task := <-reciever.Tasks():
			assert.Equal(t, messaging.SingleTaskQueue, task.Type())

			var receivedPayload messaging.SingleTaskPayload
			err := json.Unmarshal(task.Payload(), &receivedPayload)
			require.NoError(t, err)
			assert.Equal(t, payload, receivedPayload)

			err = task.Ack()
			require.NoError(t, err)
		case <-time.After(4 * time.Second):
			t.Fatal("Timed out waiting for task")
		}
	})

	t.Run("Publish and Receive BatchTask", func(t *testing.T) {
		payload := messaging.BatchTaskPayload{TaskId: uuid.New()}
		err := publisher.PublishBatchTask(ctx, payload)
		require.NoError(t, err)

		select {
		case task := <-reciever.Tasks():
			assert.Equal(t, messaging.BatchTaskQueue, task.Type())

			var receivedPayload messaging.BatchTaskPayload
			err := json.Unmarshal(task.Payload(), &receivedPayload)
			require.NoError(t, err)
			assert.Equal(t, payload, receivedPayload)

			err = task.Ack()
			require.NoError(t, err)
		case <-time.After(4 * time.Second):
			t.Fatal("Timed out waiting for task")
		}
	})
}
