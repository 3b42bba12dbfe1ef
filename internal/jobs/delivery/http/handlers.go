package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/amankumarsingh77/media-convert-server/internal/config"
	"github.com/amankumarsingh77/media-convert-server/internal/jobs"
	"github.com/amankumarsingh77/media-convert-server/internal/models"
	"github.com/amankumarsingh77/media-convert-server/pkg/logger"
	"github.com/labstack/echo/v4"
)

type jobsHandler struct {
	cfg    *config.Config
	jobsUC jobs.UseCase
	logger logger.Logger
}

func NewJobsHandlers(cfg *config.Config, jobsUC jobs.UseCase, log logger.Logger) jobs.Handlers {
	return &jobsHandler{
		cfg:    cfg,
		jobsUC: jobsUC,
		logger: log,
	}
}

func (h *jobsHandler) Prepare() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.PrepareInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		job, err := h.jobsUC.Prepare(c.Request().Context(), input)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(http.StatusOK, &models.PrepareResponse{
			JobID:    job.ID,
			Metadata: job.Metadata,
		})
	}
}

func (h *jobsHandler) Convert() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.ConvertInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		job, err := h.jobsUC.Convert(c.Request().Context(), c.Param("job_id"), input)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(http.StatusOK, &models.ConvertResponse{
			JobID:  job.ID,
			Status: job.Status,
		})
	}
}

func (h *jobsHandler) Status() echo.HandlerFunc {
	return func(c echo.Context) error {
		status, err := h.jobsUC.Status(c.Request().Context(), c.Param("job_id"))
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(http.StatusOK, status)
	}
}

func (h *jobsHandler) Download() echo.HandlerFunc {
	return func(c echo.Context) error {
		jobID := c.Param("job_id")
		info, err := h.jobsUC.Download(c.Request().Context(), jobID)
		if err != nil {
			return errorResponse(c, err)
		}
		if err := c.Attachment(info.Path, info.Filename); err != nil {
			return err
		}
		// artifact fully streamed; deletion happens after the grace period
		h.jobsUC.FinishDelivery(jobID)
		return nil
	}
}

func (h *jobsHandler) Sweep() echo.HandlerFunc {
	return func(c echo.Context) error {
		maxAge := h.cfg.Retention.MaxAge()
		if raw := c.QueryParam("max_age"); raw != "" {
			parsed, err := time.ParseDuration(raw)
			if err != nil || parsed <= 0 {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid max_age duration"})
			}
			maxAge = parsed
		}
		removed := h.jobsUC.Sweep(c.Request().Context(), maxAge)
		return c.JSON(http.StatusOK, map[string]int{"removed": removed})
	}
}

func errorResponse(c echo.Context, err error) error {
	var fetchErr *jobs.MetadataFetchError
	switch {
	case errors.Is(err, jobs.ErrJobNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, jobs.ErrValidation), errors.Is(err, jobs.ErrUnsupportedFormat):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, jobs.ErrJobAlreadyStarted), errors.Is(err, jobs.ErrDownloadNotReady):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.As(err, &fetchErr):
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
