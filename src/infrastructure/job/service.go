package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Topic is the topic job messages are published on
const Topic = "jobs"

// TaskHandler runs one job payload and returns the result to store with the job.
type TaskHandler func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)

type JobService struct {
	publisher message.Publisher
	repo      JobRepository
	logger    watermill.LoggerAdapter
	tasks     map[string]TaskHandler
}

type JobMessage struct {
	JobID    int64           `json:"job_id,string"`
	TaskType string          `json:"task_type"`
	Payload  json.RawMessage `json:"payload"`
}

func NewJobService(
	publisher message.Publisher,
	repo JobRepository,
	logger watermill.LoggerAdapter,
) *JobService {
	return &JobService{
		publisher: publisher,
		repo:      repo,
		logger:    logger,
		tasks:     make(map[string]TaskHandler),
	}
}

// RegisterTask installs the handler for a task type. It must be called before messages are processed.
func (s *JobService) RegisterTask(taskType string, handler TaskHandler) {
	s.tasks[taskType] = handler
}

// EnqueueJob creates a new job and publishes it to the message queue
func (s *JobService) EnqueueJob(ctx context.Context, taskType string, payload json.RawMessage) (*Job, error) {
	if _, ok := s.tasks[taskType]; !ok {
		return nil, fmt.Errorf("unknown task type: %s", taskType)
	}

	job, err := s.repo.Create(ctx, taskType, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	msgPayload, err := json.Marshal(JobMessage{
		JobID:    job.ID,
		TaskType: job.TaskType,
		Payload:  job.Payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job message: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), msgPayload)
	if err := s.publisher.Publish(Topic, msg); err != nil {
		return nil, fmt.Errorf("failed to publish job message: %w", err)
	}

	return job, nil
}

// GetJob returns the job with id, or nil if there is none.
func (s *JobService) GetJob(ctx context.Context, id int64) (*Job, error) {
	return s.repo.Get(ctx, id)
}

// ProcessJobMessage processes a job message from the queue. A failing task marks the job failed
// and acknowledges the message; only storage and decoding errors are returned for redelivery.
func (s *JobService) ProcessJobMessage(msg *message.Message) error {
	var jobMsg JobMessage
	if err := json.Unmarshal(msg.Payload, &jobMsg); err != nil {
		return fmt.Errorf("failed to unmarshal job message: %w", err)
	}

	ctx := msg.Context()

	job, err := s.repo.Get(ctx, jobMsg.JobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}
	if job == nil {
		return fmt.Errorf("job not found: %d", jobMsg.JobID)
	}
	if job.Status == JobStatusCompleted || job.Status == JobStatusFailed {
		s.logger.Info("Skipping finished job", watermill.LogFields{"job_id": job.ID, "status": job.Status})
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, job.ID, JobStatusRunning, nil, nil); err != nil {
		return fmt.Errorf("failed to update job status to running: %w", err)
	}

	result, err := s.processJob(ctx, job)
	if err != nil {
		errStr := err.Error()
		s.logger.Error("Job failed", err, watermill.LogFields{"job_id": job.ID, "task_type": job.TaskType})
		if updateErr := s.repo.UpdateStatus(ctx, job.ID, JobStatusFailed, nil, &errStr); updateErr != nil {
			return fmt.Errorf("failed to update job status to failed: %w", updateErr)
		}
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, job.ID, JobStatusCompleted, result, nil); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}
	s.logger.Info("Job completed", watermill.LogFields{"job_id": job.ID, "task_type": job.TaskType})

	return nil
}

func (s *JobService) processJob(ctx context.Context, job *Job) (json.RawMessage, error) {
	handler, ok := s.tasks[job.TaskType]
	if !ok {
		return nil, fmt.Errorf("unknown task type: %s", job.TaskType)
	}
	return handler(ctx, job.Payload)
}
