package job

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

// MemoryJobRepository keeps jobs in process memory. Jobs are lost on restart.
type MemoryJobRepository struct {
	mu        sync.RWMutex
	jobs      map[int64]Job
	snowflake *snowflake.Node
}

func NewMemoryJobRepository() (*MemoryJobRepository, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}
	return &MemoryJobRepository{jobs: make(map[int64]Job), snowflake: node}, nil
}

func (r *MemoryJobRepository) Create(_ context.Context, taskType string, payload json.RawMessage) (*Job, error) {
	now := time.Now()
	job := Job{
		ID:        r.snowflake.Generate().Int64(),
		TaskType:  taskType,
		Payload:   payload,
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	return &job, nil
}

func (r *MemoryJobRepository) Get(_ context.Context, id int64) (*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	return &job, nil
}

func (r *MemoryJobRepository) UpdateStatus(_ context.Context, id int64, status JobStatus, result json.RawMessage, err *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = status
	job.Error = err
	if result != nil {
		job.Result = result
	}
	job.UpdatedAt = time.Now()
	r.jobs[id] = job
	return nil
}
