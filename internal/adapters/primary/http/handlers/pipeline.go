package handlers

import (
	"net/http"

	"migration-portal-service/internal/adapters/primary/http/dto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) AnalyzeRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}

	run, err := h.pipelineSvc.Analyze(c.Request.Context(), id)
	if err != nil {
		log.WithError(err).Error("analyze stage failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRunResponse(run))
}

func (h *Handler) TranspileRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}

	run, err := h.pipelineSvc.Transpile(c.Request.Context(), id)
	if err != nil {
		log.WithError(err).Error("transpile stage failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRunResponse(run))
}

func (h *Handler) ValidateRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}

	run, err := h.pipelineSvc.Validate(c.Request.Context(), id)
	if err != nil {
		log.WithError(err).Error("validate stage failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRunResponse(run))
}
