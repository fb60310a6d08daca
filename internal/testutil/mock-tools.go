package testutil

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"migration-portal-service/internal/core/domain"
	"migration-portal-service/internal/core/ports/output"
)

// MockAnalyzer is a mock of Analyzer.
type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, req ports.AnalyzerRequest) (*domain.AnalysisReport, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisReport), args.Error(1)
}

func (m *MockAnalyzer) IsAvailable() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockTranspiler is a mock of Transpiler.
type MockTranspiler struct {
	mock.Mock
}

func (m *MockTranspiler) Transpile(ctx context.Context, req ports.TranspilerRequest) (*domain.TranspiledBundle, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TranspiledBundle), args.Error(1)
}

func (m *MockTranspiler) IsAvailable() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockValidator is a mock of Validator.
type MockValidator struct {
	mock.Mock
}

func (m *MockValidator) Validate(ctx context.Context, sourceXML, code string) (*domain.ValidationVerdict, error) {
	args := m.Called(ctx, sourceXML, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValidationVerdict), args.Error(1)
}

// MockArchive is a mock of ArtifactArchive.
type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Store(ctx context.Context, runID uuid.UUID, localPath string) error {
	args := m.Called(ctx, runID, localPath)
	return args.Error(0)
}

func (m *MockArchive) Links(ctx context.Context, runID uuid.UUID) ([]ports.ArchivedObject, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.ArchivedObject), args.Error(1)
}

func (m *MockArchive) IsAvailable() bool {
	args := m.Called()
	return args.Bool(0)
}
