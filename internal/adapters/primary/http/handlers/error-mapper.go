package handlers

import (
	"errors"
	"net/http"

	"migration-portal-service/internal/core/domain"

	"github.com/gin-gonic/gin"
)

func mapDomainError(c *gin.Context, err error) {
	switch {
	// Not found errors
	case errors.Is(err, domain.ErrRunNotFound),
		errors.Is(err, domain.ErrReportNotFound),
		errors.Is(err, domain.ErrFileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	// Bad request / validation errors
	case errors.Is(err, domain.ErrMissingUpload),
		errors.Is(err, domain.ErrEmptyUpload),
		errors.Is(err, domain.ErrMalformedXML),
		errors.Is(err, domain.ErrUnknownSource),
		errors.Is(err, domain.ErrBundleMissing):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrUploadTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})

	// Run state conflicts
	case errors.Is(err, domain.ErrRunTerminal),
		errors.Is(err, domain.ErrStageInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	// External tool failures
	case errors.Is(err, domain.ErrAnalyzerFailed),
		errors.Is(err, domain.ErrTranspilerFailed),
		errors.Is(err, domain.ErrEmptyVerdict):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})

	// Validation service failures
	case errors.Is(err, domain.ErrValidationUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrValidationTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
