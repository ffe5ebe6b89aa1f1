package job

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// ErrJobNotFound is returned by UpdateStatus for an unknown job id
var ErrJobNotFound = errors.New("job not found")

// Job represents a background job
type Job struct {
	ID        int64           `json:"id,string" gorm:"primaryKey;autoIncrement:false"`
	TaskType  string          `json:"task_type" gorm:"index"`
	Payload   json.RawMessage `json:"payload"`
	Status    JobStatus       `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *string         `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// JobRepository defines the interface for job persistence.
// Get returns nil, nil for an unknown id.
type JobRepository interface {
	Create(ctx context.Context, taskType string, payload json.RawMessage) (*Job, error)
	Get(ctx context.Context, id int64) (*Job, error)
	UpdateStatus(ctx context.Context, id int64, status JobStatus, result json.RawMessage, err *string) error
}
