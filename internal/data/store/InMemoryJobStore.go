package store

import (
	"context"
	"sync"

	"github.com/akolanti/DocQA/internal/domain/jobModel"
)

type InMemoryJobStore struct {
	mu   *sync.RWMutex
	jobs map[string]jobModel.Job
}

func InitInMemoryJobStore() *InMemoryJobStore {
	return &InMemoryJobStore{
		mu:   new(sync.RWMutex),
		jobs: make(map[string]jobModel.Job),
	}
}

func (s *InMemoryJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.Id] = job
	return nil
}

func (s *InMemoryJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, found := s.jobs[jobId]
	return job, found
}

func (s *InMemoryJobStore) DeleteJob(ctx context.Context, jobId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobId)
}
