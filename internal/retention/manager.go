package retention

import (
	"os"
	"sync"
	"time"

	"github.com/amankumarsingh77/media-convert-server/internal/jobs"
	"github.com/amankumarsingh77/media-convert-server/pkg/logger"
)

const pendingQueueSize = 256

type deletion struct {
	jobID string
	due   time.Time
}

// Manager removes expired jobs via the age sweep and runs the deferred
// post-delivery deletion queue. Both paths are idempotent and tolerate
// already-missing files.
type Manager struct {
	registry jobs.Registry
	logger   logger.Logger

	pending  chan deletion
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewManager(registry jobs.Registry, log logger.Logger) *Manager {
	return &Manager{
		registry: registry,
		logger:   log,
		pending:  make(chan deletion, pendingQueueSize),
		stopCh:   make(chan struct{}),
	}
}

func (m *Manager) Start() {
	m.wg.Add(1)
	go m.worker()
}

// Stop abandons queued deletions; the age sweep is the backstop for anything
// dropped here.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
	})
}

// Sweep removes every job older than maxAge together with its artifact.
// Filesystem errors are logged per item and never abort the pass.
func (m *Manager) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, job := range m.registry.List() {
		if job.CreatedAt.After(cutoff) {
			continue
		}
		m.remove(job.ID)
		removed++
	}
	if removed > 0 {
		m.logger.Infof("retention sweep removed %d job(s) older than %s", removed, maxAge)
	}
	return removed
}

// ScheduleDeletion queues removal of a delivered job after the grace period.
func (m *Manager) ScheduleDeletion(jobID string, delay time.Duration) {
	d := deletion{jobID: jobID, due: time.Now().Add(delay)}
	select {
	case m.pending <- d:
	default:
		m.logger.Warnf("deferred deletion queue full, dropping job %s (sweep will reclaim it)", jobID)
	}
}

func (m *Manager) worker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			return
		case d := <-m.pending:
			timer := time.NewTimer(time.Until(d.due))
			select {
			case <-m.stopCh:
				timer.Stop()
				return
			case <-timer.C:
				m.remove(d.jobID)
			}
		}
	}
}

func (m *Manager) remove(jobID string) {
	job, err := m.registry.Get(jobID)
	if err != nil {
		// already gone, nothing to do
		return
	}
	if job.OutputPath != "" {
		if err := os.Remove(job.OutputPath); err != nil && !os.IsNotExist(err) {
			m.logger.Errorf("removing artifact %s for job %s: %v", job.OutputPath, jobID, err)
		}
	}
	m.registry.Delete(jobID)
	m.logger.Infof("job %s removed by retention", jobID)
}
