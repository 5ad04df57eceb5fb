package jobs

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskIngestValidate validates an uploaded market budget file.
	TaskIngestValidate = "ingest:validate"
	// TaskDashboardWarmup pre-builds the cached dashboard overview.
	TaskDashboardWarmup = "dashboard:warmup"
)

// IngestValidatePayload identifies the upload to validate.
type IngestValidatePayload struct {
	UploadID string `json:"upload_id"`
}

// NewIngestValidateTask constructs the validation task.
func NewIngestValidateTask(uploadID string) (*asynq.Task, error) {
	if strings.TrimSpace(uploadID) == "" {
		return nil, errors.New("jobs: upload id required")
	}
	data, err := json.Marshal(IngestValidatePayload{UploadID: uploadID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIngestValidate, data, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// DashboardWarmupPayload lists the currency views to warm. Empty means all.
// Refresh drops cached figures before rebuilding them.
type DashboardWarmupPayload struct {
	Currencies []string `json:"currencies,omitempty"`
	Refresh    bool     `json:"refresh,omitempty"`
}

// NewDashboardWarmupTask constructs the warmup task.
func NewDashboardWarmupTask(payload DashboardWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data, asynq.Queue(QueueDefault)), nil
}
