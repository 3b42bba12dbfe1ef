package http

import (
	"github.com/amankumarsingh77/media-convert-server/internal/jobs"
	"github.com/labstack/echo/v4"
)

func MapJobsRoutes(jobsGroup *echo.Group, h jobs.Handlers) {
	jobsGroup.POST("/prepare", h.Prepare())
	jobsGroup.POST("/:job_id/convert", h.Convert())
	jobsGroup.GET("/:job_id/status", h.Status())
	jobsGroup.GET("/:job_id/download", h.Download())
	jobsGroup.POST("/sweep", h.Sweep())
}
