package handlers

import (
	"net/http"

	"migration-portal-service/internal/adapters/primary/http/dto"
	"migration-portal-service/internal/core/domain"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListSources(c *gin.Context) {
	items := make([]dto.SourceTechnologyResponse, 0, len(domain.SourceCatalog))
	for _, s := range domain.SourceCatalog {
		items = append(items, dto.ToSourceTechnologyResponse(s))
	}

	c.JSON(http.StatusOK, dto.ListSourcesResponse{
		Items:   items,
		Default: domain.DefaultSourceTech,
	})
}
