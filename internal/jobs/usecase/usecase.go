package usecase

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/amankumarsingh77/media-convert-server/internal/config"
	"github.com/amankumarsingh77/media-convert-server/internal/jobs"
	"github.com/amankumarsingh77/media-convert-server/internal/models"
	"github.com/amankumarsingh77/media-convert-server/pkg/logger"
	"github.com/amankumarsingh77/media-convert-server/pkg/utils"
	"github.com/pkg/errors"
)

// progress floor once a job is claimed for conversion
const initialProgress = 10

type jobsUC struct {
	cfg       *config.Config
	registry  jobs.Registry
	prober    jobs.Prober
	converter jobs.Converter
	retention jobs.Retention
	logger    logger.Logger
	startedAt time.Time
}

func NewJobsUseCase(
	cfg *config.Config,
	registry jobs.Registry,
	prober jobs.Prober,
	converter jobs.Converter,
	retention jobs.Retention,
	log logger.Logger,
) jobs.UseCase {
	return &jobsUC{
		cfg:       cfg,
		registry:  registry,
		prober:    prober,
		converter: converter,
		retention: retention,
		logger:    log,
		startedAt: time.Now(),
	}
}

func (u *jobsUC) Prepare(ctx context.Context, input *models.PrepareInput) (*models.Job, error) {
	if err := utils.ValidateStruct(ctx, input); err != nil {
		u.logger.Warnf("Prepare - ValidateStruct error: %v", err)
		return nil, errors.Wrap(jobs.ErrValidation, err.Error())
	}

	metadata, err := u.prober.Fetch(ctx, input.URL)
	if err != nil {
		u.logger.Errorf("Prepare - Fetch error for %s: %v", input.URL, err)
		return nil, err
	}

	job := u.registry.Create(input.URL, metadata)
	u.logger.Infof("job %s created for %s (%s)", job.ID, input.URL, metadata.Title)
	return job, nil
}

func (u *jobsUC) Convert(ctx context.Context, jobID string, input *models.ConvertInput) (*models.Job, error) {
	if input.Format != models.FormatAudio && input.Format != models.FormatVideo {
		return nil, jobs.ErrUnsupportedFormat
	}
	if err := utils.ValidateStruct(ctx, input); err != nil {
		u.logger.Warnf("Convert - ValidateStruct error: %v", err)
		return nil, errors.Wrap(jobs.ErrValidation, err.Error())
	}

	// atomic queued -> downloading claim; guarantees at most one active
	// orchestrator per job id
	claimed := false
	job, err := u.registry.Update(jobID, func(j *models.Job) {
		if j.Status != models.JobStatusQueued {
			return
		}
		j.Status = models.JobStatusDownloading
		if j.Progress < initialProgress {
			j.Progress = initialProgress
		}
		claimed = true
	})
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, jobs.ErrJobAlreadyStarted
	}

	u.warnIfOverloaded()

	// detached from the request context: orchestration outlives the caller
	go u.converter.Run(context.Background(), jobID, input.Format, input.Quality)

	return job, nil
}

func (u *jobsUC) Status(ctx context.Context, jobID string) (*models.StatusResponse, error) {
	job, err := u.registry.Get(jobID)
	if err != nil {
		return nil, err
	}
	return &models.StatusResponse{
		JobID:    job.ID,
		Status:   job.Status,
		Progress: job.Progress,
		Message:  statusMessage(job.Status),
		Error:    job.ErrorDetail,
		Metadata: job.Metadata,
	}, nil
}

func (u *jobsUC) Download(ctx context.Context, jobID string) (*models.DownloadInfo, error) {
	job, err := u.registry.Get(jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobStatusReady || job.OutputPath == "" {
		return nil, jobs.ErrDownloadNotReady
	}
	if _, err := os.Stat(job.OutputPath); err != nil {
		u.logger.Errorf("Download - artifact missing for ready job %s: %v", jobID, err)
		return nil, jobs.ErrDownloadNotReady
	}

	title := models.DefaultTitle
	if job.Metadata != nil {
		title = job.Metadata.Title
	}
	filename := utils.SanitizeTitle(title) + filepath.Ext(job.OutputPath)
	return &models.DownloadInfo{
		Path:     job.OutputPath,
		Filename: filename,
	}, nil
}

// FinishDelivery schedules removal of a fully streamed job after the grace
// period, tolerating client-side retry or resume in the meantime.
func (u *jobsUC) FinishDelivery(jobID string) {
	u.retention.ScheduleDeletion(jobID, u.cfg.Retention.DeliveryGrace())
}

func (u *jobsUC) Sweep(ctx context.Context, maxAge time.Duration) int {
	return u.retention.Sweep(maxAge)
}

func (u *jobsUC) Health(ctx context.Context) *models.HealthResponse {
	active := 0
	for _, job := range u.registry.List() {
		if !job.Status.Terminal() {
			active++
		}
	}
	_, usage := utils.CheckCPUUsage(u.cfg.Worker.MaxCPUUsage)
	return &models.HealthResponse{
		Status:        "OK",
		ActiveJobs:    active,
		UptimeSeconds: int64(time.Since(u.startedAt).Seconds()),
		CPUPercent:    usage,
	}
}

// warnIfOverloaded surfaces resource pressure without enforcing a cap; an
// admission-control layer in front of this service is expected to bound
// concurrent conversions.
func (u *jobsUC) warnIfOverloaded() {
	active := 0
	for _, job := range u.registry.List() {
		if !job.Status.Terminal() {
			active++
		}
	}
	if u.cfg.Worker.SoftJobLimit > 0 && active > u.cfg.Worker.SoftJobLimit {
		u.logger.Warnf("%d conversions in flight exceeds soft limit %d", active, u.cfg.Worker.SoftJobLimit)
	}
	if ok, usage := utils.CheckCPUUsage(u.cfg.Worker.MaxCPUUsage); !ok {
		u.logger.Warnf("CPU usage is high: %.2f%%", usage)
	}
}

func statusMessage(status models.JobStatus) string {
	switch status {
	case models.JobStatusQueued:
		return "waiting to start"
	case models.JobStatusDownloading:
		return "downloading source"
	case models.JobStatusConverting:
		return "converting media"
	case models.JobStatusReady:
		return "ready for download"
	case models.JobStatusError:
		return "conversion failed"
	default:
		return ""
	}
}
