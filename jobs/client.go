package jobs

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
)

// Client enqueues finconsol tasks.
type Client struct {
	client *asynq.Client
}

// NewClient connects an asynq client.
func NewClient(redisOpts asynq.RedisConnOpt) (*Client, error) {
	if redisOpts == nil {
		return nil, errors.New("jobs: redis connection required")
	}
	return &Client{client: asynq.NewClient(redisOpts)}, nil
}

// EnqueueValidate queues validation of an upload. The task ID is derived from
// the upload so a repeated call does not queue a second run.
func (c *Client) EnqueueValidate(ctx context.Context, uploadID string) error {
	task, err := NewIngestValidateTask(uploadID)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.TaskID(TaskIngestValidate+":"+uploadID))
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// EnqueueDashboardWarmup queues an out-of-schedule dashboard warmup.
func (c *Client) EnqueueDashboardWarmup(ctx context.Context, payload DashboardWarmupPayload) (*asynq.TaskInfo, error) {
	task, err := NewDashboardWarmupTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task)
}

// Close releases the client connection.
func (c *Client) Close() error {
	return c.client.Close()
}
