package server

import (
	"net/http"

	"github.com/amankumarsingh77/media-convert-server/internal/converter"
	jobsHttp "github.com/amankumarsingh77/media-convert-server/internal/jobs/delivery/http"
	jobsRepository "github.com/amankumarsingh77/media-convert-server/internal/jobs/repository"
	jobsUsecase "github.com/amankumarsingh77/media-convert-server/internal/jobs/usecase"
	"github.com/amankumarsingh77/media-convert-server/internal/middleware"
	"github.com/amankumarsingh77/media-convert-server/internal/probe"
	"github.com/amankumarsingh77/media-convert-server/internal/retention"
	"github.com/amankumarsingh77/media-convert-server/pkg/utils"
	"github.com/labstack/echo/v4"
)

func (s *Server) MapHandlers(e *echo.Echo) error {
	registry := jobsRepository.NewMemoryRegistry()
	prober := probe.NewYtdlpProber(s.cfg, s.logger)
	conv := converter.NewYtdlpConverter(s.cfg, registry, s.logger)
	s.retention = retention.NewManager(registry, s.logger)

	jobsUC := jobsUsecase.NewJobsUseCase(s.cfg, registry, prober, conv, s.retention, s.logger)
	jobsHandlers := jobsHttp.NewJobsHandlers(s.cfg, jobsUC, s.logger)

	mw := middleware.NewMiddlewareManager(s.cfg, []string{"*"}, s.logger)
	e.Use(mw.RequestLoggerMiddleware)

	v1 := e.Group("/api/v1")
	health := v1.Group("/health")
	jobsGroup := v1.Group("/jobs")

	jobsHttp.MapJobsRoutes(jobsGroup, jobsHandlers)
	health.GET("", func(c echo.Context) error {
		s.logger.Infof("Health check RequestID: %s", utils.GetRequestID(c))
		return c.JSON(http.StatusOK, jobsUC.Health(c.Request().Context()))
	})
	return nil
}
