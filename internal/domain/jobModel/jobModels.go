package jobModel

import (
	"context"
	"time"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	ProcessInit   InternalStatus = "Init"
	ExtractCall   InternalStatus = "Extract"
	ChunkCall     InternalStatus = "Chunk"
	EmbeddingCall InternalStatus = "Embedding"
	IndexCall     InternalStatus = "VectorIndex"
	Error         InternalStatus = "Error"
	Complete      InternalStatus = "Complete"

	JobTypeProcess   JobType = "Process"
	JobTypeReprocess JobType = "Reprocess"
)

// Job is the unit handed to the worker pool: one document to push through the
// processing pipeline.
type Job struct {
	Id          string         `json:"id"`
	DocumentId  string         `json:"document_id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobStore interface {
	SaveJob(ctx context.Context, job Job) error
	GetJob(ctx context.Context, jobId string) (Job, bool)
	DeleteJob(ctx context.Context, jobId string)
}
