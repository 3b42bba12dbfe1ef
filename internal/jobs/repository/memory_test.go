package repository

import (
	"sync"
	"testing"

	"github.com/amankumarsingh77/media-convert-server/internal/jobs"
	"github.com/amankumarsingh77/media-convert-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRegistry_CreateAndGet(t *testing.T) {
	r := NewMemoryRegistry()

	created := r.Create("https://example.com/watch?v=abc", &models.Metadata{Title: "Big Buck Bunny"})
	require.NotEmpty(t, created.ID)
	assert.Equal(t, models.JobStatusQueued, created.Status)
	assert.Equal(t, 0, created.Progress)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := r.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Big Buck Bunny", got.Metadata.Title)
}

func TestMemoryRegistry_GetUnknownID(t *testing.T) {
	r := NewMemoryRegistry()

	_, err := r.Get("no-such-job")
	assert.ErrorIs(t, err, jobs.ErrJobNotFound)
}

func TestMemoryRegistry_SnapshotIsolation(t *testing.T) {
	r := NewMemoryRegistry()
	created := r.Create("url", &models.Metadata{Title: "original"})

	snapshot, err := r.Get(created.ID)
	require.NoError(t, err)
	snapshot.Status = models.JobStatusError
	snapshot.Metadata.Title = "mutated"

	fresh, err := r.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, fresh.Status)
	assert.Equal(t, "original", fresh.Metadata.Title)
}

func TestMemoryRegistry_UpdateIsAtomic(t *testing.T) {
	r := NewMemoryRegistry()
	created := r.Create("url", nil)

	const writers = 20
	const increments = 50

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < increments; j++ {
				_, err := r.Update(created.ID, func(job *models.Job) {
					job.Progress++
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	got, err := r.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, writers*increments, got.Progress)
}

func TestMemoryRegistry_UpdateUnknownID(t *testing.T) {
	r := NewMemoryRegistry()

	_, err := r.Update("missing", func(job *models.Job) {
		job.Progress = 50
	})
	assert.ErrorIs(t, err, jobs.ErrJobNotFound)
}

func TestMemoryRegistry_MonotonicProgressViaMax(t *testing.T) {
	r := NewMemoryRegistry()
	created := r.Create("url", nil)

	advance := func(p int) *models.Job {
		job, err := r.Update(created.ID, func(job *models.Job) {
			if p > job.Progress {
				job.Progress = p
			}
		})
		require.NoError(t, err)
		return job
	}

	assert.Equal(t, 31, advance(31).Progress)
	// out-of-order diagnostic line must not regress progress
	assert.Equal(t, 31, advance(12).Progress)
	assert.Equal(t, 80, advance(80).Progress)
}

func TestMemoryRegistry_DeleteIsIdempotent(t *testing.T) {
	r := NewMemoryRegistry()
	created := r.Create("url", nil)

	r.Delete(created.ID)
	r.Delete(created.ID)

	_, err := r.Get(created.ID)
	assert.ErrorIs(t, err, jobs.ErrJobNotFound)
	assert.Equal(t, 0, r.Count())
}

func TestMemoryRegistry_ListAndCount(t *testing.T) {
	r := NewMemoryRegistry()
	r.Create("a", nil)
	r.Create("b", nil)
	r.Create("c", nil)

	assert.Equal(t, 3, r.Count())
	assert.Len(t, r.List(), 3)
}
