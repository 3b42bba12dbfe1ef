package models

import "time"

const (
	FormatAudio = "audio"
	FormatVideo = "video"
)

type JobStatus string

const (
	JobStatusQueued      JobStatus = "queued"
	JobStatusDownloading JobStatus = "downloading"
	JobStatusConverting  JobStatus = "converting"
	JobStatusReady       JobStatus = "ready"
	JobStatusError       JobStatus = "error"
)

// Terminal reports whether no further transition may leave the status.
func (s JobStatus) Terminal() bool {
	return s == JobStatusReady || s == JobStatusError
}

type Job struct {
	ID          string     `json:"job_id"`
	SourceURL   string     `json:"source_url"`
	Metadata    *Metadata  `json:"metadata,omitempty"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	OutputPath  string     `json:"-"`
	ErrorDetail string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type PrepareInput struct {
	URL string `json:"url" validate:"required,url"`
}

type ConvertInput struct {
	Format  string `json:"format" validate:"required,lte=20"`
	Quality string `json:"quality" validate:"omitempty,lte=10"`
}

type PrepareResponse struct {
	JobID    string    `json:"job_id"`
	Metadata *Metadata `json:"metadata"`
}

type ConvertResponse struct {
	JobID  string    `json:"job_id"`
	Status JobStatus `json:"status"`
}

type StatusResponse struct {
	JobID    string    `json:"job_id"`
	Status   JobStatus `json:"status"`
	Progress int       `json:"progress"`
	Message  string    `json:"message"`
	Error    string    `json:"error,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// DownloadInfo points the delivery layer at a ready artifact.
type DownloadInfo struct {
	Path     string
	Filename string
}

type HealthResponse struct {
	Status        string  `json:"status"`
	ActiveJobs    int     `json:"active_jobs"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
}
