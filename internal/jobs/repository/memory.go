package repository

import (
	"sync"
	"time"

	"github.com/amankumarsingh77/media-convert-server/internal/jobs"
	"github.com/amankumarsingh77/media-convert-server/internal/models"
	"github.com/google/uuid"
)

type memoryRegistry struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

func NewMemoryRegistry() jobs.Registry {
	return &memoryRegistry{
		jobs: make(map[string]*models.Job),
	}
}

func (r *memoryRegistry) Create(sourceURL string, metadata *models.Metadata) *models.Job {
	job := &models.Job{
		ID:        uuid.New().String(),
		SourceURL: sourceURL,
		Metadata:  metadata,
		Status:    models.JobStatusQueued,
		Progress:  0,
		CreatedAt: time.Now(),
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	return cloneJob(job)
}

func (r *memoryRegistry) Get(id string) (*models.Job, error) {
	r.mu.RLock()
	job, ok := r.jobs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, jobs.ErrJobNotFound
	}
	return cloneJob(job), nil
}

// Update applies mutate under the write lock so concurrent read-modify-write
// cycles on the same id never interleave.
func (r *memoryRegistry) Update(id string, mutate func(job *models.Job)) (*models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, jobs.ErrJobNotFound
	}
	mutate(job)
	return cloneJob(job), nil
}

func (r *memoryRegistry) Delete(id string) {
	r.mu.Lock()
	delete(r.jobs, id)
	r.mu.Unlock()
}

func (r *memoryRegistry) List() []*models.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ret := make([]*models.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		ret = append(ret, cloneJob(job))
	}
	return ret
}

func (r *memoryRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

func cloneJob(job *models.Job) *models.Job {
	cp := *job
	if job.Metadata != nil {
		md := *job.Metadata
		cp.Metadata = &md
	}
	if job.CompletedAt != nil {
		t := *job.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
