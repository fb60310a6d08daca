package ports

import (
	"context"

	"migration-portal-service/internal/core/domain"
)

// AnalyzerRequest describes one analyzer invocation
type AnalyzerRequest struct {
	SourceDir  string // directory holding the uploaded source file
	ReportFile string // absolute path the report must be written to
	SourceTech string // analyzer-side technology name from the source catalog
}

// Analyzer defines the contract for the external analysis tool
type Analyzer interface {
	// Analyze runs the tool and returns the verified report. The adapter must
	// confirm the report file exists and is non-empty before returning it.
	Analyze(ctx context.Context, req AnalyzerRequest) (*domain.AnalysisReport, error)

	// IsAvailable checks if the tool binary can be invoked
	IsAvailable() bool
}
