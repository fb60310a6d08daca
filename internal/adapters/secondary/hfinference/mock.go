package hfinference

import (
	"context"
	"time"

	"migration-portal-service/internal/core/domain"
	"migration-portal-service/internal/core/ports/output"
)

const mockAssessment = `Mock Validation Mode (no API token configured)

1. ETL Summary
The job reads the declared sources, applies the mapped transformations, and loads the targets.

2. Key Matching Transformations
Key transformation logic appears to align between the XML definition and the generated code.

3. Missing / Deviated Logic
No critical mismatches detected by the offline check.

4. Final Verdict
Set HUGGINGFACE_API_KEY to run a real model-backed validation.`

// Mock is the offline validator used when no API token is configured. It
// returns a canned assessment with an undetermined verdict.
type Mock struct{}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Validate(ctx context.Context, sourceXML, code string) (*domain.ValidationVerdict, error) {
	return &domain.ValidationVerdict{
		Assessment:  mockAssessment,
		Passed:      parseVerdict(mockAssessment),
		Model:       "mock",
		Mock:        true,
		CompletedAt: time.Now(),
	}, nil
}

// Ensure Mock implements Validator
var _ ports.Validator = (*Mock)(nil)
