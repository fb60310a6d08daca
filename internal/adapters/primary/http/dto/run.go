package dto

import (
	"time"

	"github.com/google/uuid"

	"migration-portal-service/internal/core/domain"
	"migration-portal-service/internal/core/ports/output"
)

// ============================================================================
// Source Technology DTOs
// ============================================================================

type SourceTechnologyResponse struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type ListSourcesResponse struct {
	Items   []SourceTechnologyResponse `json:"items"`
	Default string                     `json:"default"`
}

func ToSourceTechnologyResponse(s domain.SourceTechnology) SourceTechnologyResponse {
	return SourceTechnologyResponse{Key: s.Key, Label: s.Label}
}

// ============================================================================
// Migration Run DTOs
// ============================================================================

type UploadResponse struct {
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type ReportResponse struct {
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	CompletedAt time.Time `json:"completed_at"`
}

type BundleResponse struct {
	CodeFiles    []string               `json:"code_files"`
	Code         string                 `json:"code"`
	Workflow     map[string]interface{} `json:"workflow"`
	WorkflowFile string                 `json:"workflow_file,omitempty"`
	CompletedAt  time.Time              `json:"completed_at"`
}

type VerdictResponse struct {
	Assessment  string    `json:"assessment"`
	Passed      *bool     `json:"passed"`
	Model       string    `json:"model"`
	Mock        bool      `json:"mock"`
	CompletedAt time.Time `json:"completed_at"`
}

type RunResponse struct {
	ID            uuid.UUID                `json:"id"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
	SourceTech    string                   `json:"source_tech"`
	State         string                   `json:"state"`
	FailureReason string                   `json:"failure_reason,omitempty"`
	Upload        *UploadResponse          `json:"upload,omitempty"`
	Report        *ReportResponse          `json:"report,omitempty"`
	Bundle        *BundleResponse          `json:"bundle,omitempty"`
	Verdict       *VerdictResponse         `json:"verdict,omitempty"`
	Archived      []ArchivedObjectResponse `json:"archived,omitempty"`
}

type ListRunsResponse struct {
	Items      []RunResponse `json:"items"`
	Total      int           `json:"total"`
	PageSize   int           `json:"page_size"`
	NextOffset int           `json:"next_offset"`
}

func ToRunResponse(run *domain.Run) RunResponse {
	resp := RunResponse{
		ID:            run.ID,
		CreatedAt:     run.CreatedAt,
		UpdatedAt:     run.UpdatedAt,
		SourceTech:    run.SourceTech,
		State:         string(run.State),
		FailureReason: run.FailureReason,
	}
	if run.Upload != nil {
		resp.Upload = &UploadResponse{
			Filename:   run.Upload.Filename,
			Size:       run.Upload.Size,
			UploadedAt: run.Upload.UploadedAt,
		}
	}
	if run.Report != nil {
		resp.Report = &ReportResponse{
			Filename:    run.Report.Filename,
			Size:        run.Report.Size,
			CompletedAt: run.Report.CompletedAt,
		}
	}
	if run.Bundle != nil {
		resp.Bundle = &BundleResponse{
			CodeFiles:    run.Bundle.CodeFiles,
			Code:         run.Bundle.Code,
			Workflow:     run.Bundle.Workflow,
			WorkflowFile: run.Bundle.WorkflowFile,
			CompletedAt:  run.Bundle.CompletedAt,
		}
	}
	if run.Verdict != nil {
		resp.Verdict = &VerdictResponse{
			Assessment:  run.Verdict.Assessment,
			Passed:      run.Verdict.Passed,
			Model:       run.Verdict.Model,
			Mock:        run.Verdict.Mock,
			CompletedAt: run.Verdict.CompletedAt,
		}
	}
	return resp
}

// ============================================================================
// Artifact DTOs
// ============================================================================

type GeneratedFileResponse struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

type ArchivedObjectResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type ListRunFilesResponse struct {
	Files    []GeneratedFileResponse  `json:"files"`
	Archived []ArchivedObjectResponse `json:"archived,omitempty"`
}

func ToArchivedObjectResponses(objects []ports.ArchivedObject) []ArchivedObjectResponse {
	out := make([]ArchivedObjectResponse, 0, len(objects))
	for _, o := range objects {
		out = append(out, ArchivedObjectResponse{Key: o.Key, URL: o.URL})
	}
	return out
}
