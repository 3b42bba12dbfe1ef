package jobs

import (
	"context"
	"time"

	"github.com/amankumarsingh77/media-convert-server/internal/models"
)

type UseCase interface {
	Prepare(ctx context.Context, input *models.PrepareInput) (*models.Job, error)
	Convert(ctx context.Context, jobID string, input *models.ConvertInput) (*models.Job, error)
	Status(ctx context.Context, jobID string) (*models.StatusResponse, error)
	Download(ctx context.Context, jobID string) (*models.DownloadInfo, error)
	FinishDelivery(jobID string)
	Sweep(ctx context.Context, maxAge time.Duration) int
	Health(ctx context.Context) *models.HealthResponse
}

// Prober fetches immutable metadata for a source URL.
type Prober interface {
	Fetch(ctx context.Context, sourceURL string) (*models.Metadata, error)
}

// Converter supervises the external transcode process for one claimed job.
// Run blocks until the job reaches a terminal state and is expected to be
// invoked on its own goroutine.
type Converter interface {
	Run(ctx context.Context, jobID, format, quality string)
}

// Retention removes expired jobs and schedules post-delivery cleanup.
type Retention interface {
	Sweep(maxAge time.Duration) int
	ScheduleDeletion(jobID string, delay time.Duration)
}
