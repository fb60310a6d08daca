package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"migration-portal-service/internal/adapters/primary/http/dto"
	"migration-portal-service/internal/core/domain"
	"migration-portal-service/internal/core/ports/output"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) SubmitRun(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrMissingUpload.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrMissingUpload.Error()})
		return
	}
	defer file.Close()

	run, err := h.runSvc.Submit(c.Request.Context(), c.PostForm("source_tech"), fileHeader.Filename, file)
	if err != nil {
		log.WithError(err).Error("submit run failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToRunResponse(run))
}

func (h *Handler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	filter := ports.RunListFilter{
		State:      c.Query("state"),
		SourceTech: c.Query("source_tech"),
		Limit:      limit,
		Offset:     offset,
	}

	runs, total, err := h.runSvc.List(c.Request.Context(), filter)
	if err != nil {
		log.WithError(err).Error("list runs failed")
		mapDomainError(c, err)
		return
	}

	items := make([]dto.RunResponse, 0, len(runs))
	for _, run := range runs {
		items = append(items, dto.ToRunResponse(run))
	}

	c.JSON(http.StatusOK, dto.ListRunsResponse{
		Items:      items,
		Total:      total,
		PageSize:   limit,
		NextOffset: offset + len(items),
	})
}

func (h *Handler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}

	run, err := h.runSvc.Get(c.Request.Context(), id)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	resp := dto.ToRunResponse(run)
	if links, err := h.runSvc.ArchiveLinks(c.Request.Context(), id); err != nil {
		log.WithError(err).Warn("failed to list archive links")
	} else if len(links) > 0 {
		resp.Archived = dto.ToArchivedObjectResponses(links)
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) DownloadReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}

	report, err := h.runSvc.Report(c.Request.Context(), id)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.FileAttachment(report.Path, report.Filename)
}

func (h *Handler) ListRunFiles(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}

	run, err := h.runSvc.Get(c.Request.Context(), id)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	files := []dto.GeneratedFileResponse{}
	if run.Bundle != nil {
		for _, rel := range run.Bundle.CodeFiles {
			files = append(files, dto.GeneratedFileResponse{Path: rel, URL: fileURL(run.ID, rel)})
		}
		if run.Bundle.WorkflowFile != "" {
			files = append(files, dto.GeneratedFileResponse{
				Path: run.Bundle.WorkflowFile,
				URL:  fileURL(run.ID, run.Bundle.WorkflowFile),
			})
		}
	}

	resp := dto.ListRunFilesResponse{Files: files}
	if links, err := h.runSvc.ArchiveLinks(c.Request.Context(), id); err != nil {
		log.WithError(err).Warn("failed to list archive links")
	} else if len(links) > 0 {
		resp.Archived = dto.ToArchivedObjectResponses(links)
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) DownloadRunFile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}

	path, err := h.runSvc.BundleFilePath(c.Request.Context(), id, c.Param("path"))
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.FileAttachment(path, filepath.Base(path))
}

func fileURL(runID uuid.UUID, rel string) string {
	return fmt.Sprintf("%s/runs/%s/files/%s", BasePath, runID, rel)
}
