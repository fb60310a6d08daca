package handlers

import (
	"migration-portal-service/internal/core/services"

	"github.com/gin-gonic/gin"
)

// BasePath is where the API group mounts; file download URLs are built from it.
const BasePath = "/api/v1/migration-portal"

type Handler struct {
	runSvc      *services.RunService
	pipelineSvc *services.PipelineService
}

func New(runSvc *services.RunService, pipelineSvc *services.PipelineService) *Handler {
	return &Handler{
		runSvc:      runSvc,
		pipelineSvc: pipelineSvc,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	// Source technologies
	r.GET("/sources", h.ListSources)

	// Migration runs
	r.POST("/runs", h.SubmitRun)
	r.GET("/runs", h.ListRuns)
	r.GET("/runs/:id", h.GetRun)

	// Pipeline stages
	r.POST("/runs/:id/analyze", h.AnalyzeRun)
	r.POST("/runs/:id/transpile", h.TranspileRun)
	r.POST("/runs/:id/validate", h.ValidateRun)

	// Artifact downloads
	r.GET("/runs/:id/report", h.DownloadReport)
	r.GET("/runs/:id/files", h.ListRunFiles)
	r.GET("/runs/:id/files/*path", h.DownloadRunFile)
}
