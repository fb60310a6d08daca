package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"migration-portal-service/internal/core/domain"
	"migration-portal-service/internal/core/ports/output"
	"migration-portal-service/internal/testutil"
)

// storedRun builds a run with a populated working directory, the shape a
// successful submit leaves behind.
func storedRun(t *testing.T, state domain.RunState) *domain.Run {
	t.Helper()
	workDir := t.TempDir()
	srcDir := filepath.Join(workDir, sourceDirName)
	assert.NoError(t, os.MkdirAll(srcDir, 0o755))
	path := filepath.Join(srcDir, "wf_orders.xml")
	assert.NoError(t, os.WriteFile(path, []byte(sampleXML), 0o644))

	now := time.Now()
	return &domain.Run{
		ID:         uuid.New(),
		CreatedAt:  now,
		UpdatedAt:  now,
		SourceTech: "powercenter",
		State:      state,
		WorkDir:    workDir,
		Upload: &domain.UploadedArtifact{
			Filename:   "wf_orders.xml",
			Size:       int64(len(sampleXML)),
			Path:       path,
			UploadedAt: now,
		},
	}
}

func TestPipelineService_Analyze(t *testing.T) {
	repo := new(testutil.MockRunRepo)
	analyzer := new(testutil.MockAnalyzer)
	svc := NewPipelineService(repo, analyzer, nil, nil, nil)

	run := storedRun(t, domain.RunStateUploaded)
	report := &domain.AnalysisReport{
		Filename:    reportFileName,
		Size:        2048,
		Path:        filepath.Join(run.WorkDir, analysisDirName, reportFileName),
		CompletedAt: time.Now(),
	}

	repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
	analyzer.On("Analyze", mock.Anything, mock.MatchedBy(func(req ports.AnalyzerRequest) bool {
		return req.SourceTech == "Informatica - PC" &&
			req.SourceDir == filepath.Join(run.WorkDir, sourceDirName) &&
			req.ReportFile == filepath.Join(run.WorkDir, analysisDirName, reportFileName)
	})).Return(report, nil)
	repo.On("Update", mock.Anything, run).Return(nil)

	updated, err := svc.Analyze(context.Background(), run.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.RunStateAnalyzed, updated.State)
	assert.Equal(t, report, updated.Report)
	repo.AssertExpectations(t)
	analyzer.AssertExpectations(t)
}

func TestPipelineService_Analyze_ToolFailure(t *testing.T) {
	repo := new(testutil.MockRunRepo)
	analyzer := new(testutil.MockAnalyzer)
	svc := NewPipelineService(repo, analyzer, nil, nil, nil)

	run := storedRun(t, domain.RunStateUploaded)
	toolErr := fmt.Errorf("%w: exit status 1: no mappings found", domain.ErrAnalyzerFailed)

	repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
	analyzer.On("Analyze", mock.Anything, mock.Anything).Return(nil, toolErr)
	repo.On("Update", mock.Anything, run).Return(nil)

	_, err := svc.Analyze(context.Background(), run.ID)
	assert.ErrorIs(t, err, domain.ErrAnalyzerFailed)
	assert.Equal(t, domain.RunStateFailed, run.State)
	assert.Contains(t, run.FailureReason, "exit status 1")
	repo.AssertExpectations(t)
}

func TestPipelineService_Analyze_TerminalRun(t *testing.T) {
	for _, state := range []domain.RunState{domain.RunStateValidated, domain.RunStateFailed} {
		repo := new(testutil.MockRunRepo)
		analyzer := new(testutil.MockAnalyzer)
		svc := NewPipelineService(repo, analyzer, nil, nil, nil)

		run := storedRun(t, state)
		repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)

		_, err := svc.Analyze(context.Background(), run.ID)
		assert.ErrorIs(t, err, domain.ErrRunTerminal, string(state))
	}
}

func TestPipelineService_Analyze_RunNotFound(t *testing.T) {
	repo := new(testutil.MockRunRepo)
	svc := NewPipelineService(repo, new(testutil.MockAnalyzer), nil, nil, nil)

	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(nil, domain.ErrRunNotFound)

	_, err := svc.Analyze(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestPipelineService_Transpile(t *testing.T) {
	repo := new(testutil.MockRunRepo)
	transpiler := new(testutil.MockTranspiler)
	svc := NewPipelineService(repo, nil, transpiler, nil, nil)

	run := storedRun(t, domain.RunStateUploaded)
	bundle := &domain.TranspiledBundle{
		OutputDir:    filepath.Join(run.WorkDir, outputDirName),
		CodeFiles:    []string{"m_load_orders.py"},
		Code:         "df = spark.read.table(\"orders\")",
		Workflow:     map[string]interface{}{"name": "wf_orders", "tasks": []interface{}{"m_load_orders"}},
		WorkflowFile: "workflow.json",
		CompletedAt:  time.Now(),
	}

	repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
	transpiler.On("Transpile", mock.Anything, mock.MatchedBy(func(req ports.TranspilerRequest) bool {
		return req.Dialect == "informatica (desktop edition)" &&
			req.InputFile == run.Upload.Path &&
			req.OutputDir == filepath.Join(run.WorkDir, outputDirName)
	})).Return(bundle, nil)
	repo.On("Update", mock.Anything, run).Return(nil)

	updated, err := svc.Transpile(context.Background(), run.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.RunStateTranspiled, updated.State)
	assert.Equal(t, bundle, updated.Bundle)
	transpiler.AssertExpectations(t)
}

func TestPipelineService_Transpile_RerunReplacesBundle(t *testing.T) {
	repo := new(testutil.MockRunRepo)
	transpiler := new(testutil.MockTranspiler)
	svc := NewPipelineService(repo, nil, transpiler, nil, nil)

	run := storedRun(t, domain.RunStateTranspiled)
	run.Bundle = &domain.TranspiledBundle{
		OutputDir: filepath.Join(run.WorkDir, outputDirName),
		CodeFiles: []string{"m_load_orders.py"},
		Workflow:  map[string]interface{}{"name": "wf_orders"},
	}
	fresh := &domain.TranspiledBundle{
		OutputDir: filepath.Join(run.WorkDir, outputDirName),
		CodeFiles: []string{"m_load_orders.py"},
		Workflow:  map[string]interface{}{"name": "wf_orders"},
	}

	repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
	transpiler.On("Transpile", mock.Anything, mock.Anything).Return(fresh, nil)
	repo.On("Update", mock.Anything, run).Return(nil)

	previous := run.Bundle
	updated, err := svc.Transpile(context.Background(), run.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.RunStateTranspiled, updated.State)
	assert.Same(t, fresh, updated.Bundle)
	// a deterministic transpiler yields the same workflow on every run
	assert.Equal(t, previous.Workflow, updated.Bundle.Workflow)
}

func TestPipelineService_Analyze_AfterTranspileKeepsProgress(t *testing.T) {
	repo := new(testutil.MockRunRepo)
	analyzer := new(testutil.MockAnalyzer)
	svc := NewPipelineService(repo, analyzer, nil, nil, nil)

	run := storedRun(t, domain.RunStateTranspiled)
	report := &domain.AnalysisReport{Filename: reportFileName, Size: 1024}

	repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
	analyzer.On("Analyze", mock.Anything, mock.Anything).Return(report, nil)
	repo.On("Update", mock.Anything, run).Return(nil)

	updated, err := svc.Analyze(context.Background(), run.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.RunStateTranspiled, updated.State)
	assert.Equal(t, report, updated.Report)
}

func TestPipelineService_Validate(t *testing.T) {
	repo := new(testutil.MockRunRepo)
	validator := new(testutil.MockValidator)
	svc := NewPipelineService(repo, nil, nil, validator, nil)

	run := storedRun(t, domain.RunStateTranspiled)
	run.Bundle = &domain.TranspiledBundle{
		OutputDir: filepath.Join(run.WorkDir, outputDirName),
		CodeFiles: []string{"m_load_orders.py"},
		Code:      "df = spark.read.table(\"orders\")",
		Workflow:  map[string]interface{}{"name": "wf_orders"},
	}

	passed := true
	verdict := &domain.ValidationVerdict{
		Assessment:  "### Final Verdict: Pass",
		Passed:      &passed,
		Model:       "HuggingFaceH4/zephyr-7b-beta",
		CompletedAt: time.Now(),
	}

	repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
	validator.On("Validate", mock.Anything, sampleXML, run.Bundle.Code).Return(verdict, nil)
	repo.On("Update", mock.Anything, run).Return(nil)

	updated, err := svc.Validate(context.Background(), run.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.RunStateValidated, updated.State)
	assert.Equal(t, verdict, updated.Verdict)
	validator.AssertExpectations(t)
}

func TestPipelineService_Validate_NoBundle(t *testing.T) {
	repo := new(testutil.MockRunRepo)
	validator := new(testutil.MockValidator)
	svc := NewPipelineService(repo, nil, nil, validator, nil)

	run := storedRun(t, domain.RunStateAnalyzed)
	repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)

	_, err := svc.Validate(context.Background(), run.ID)
	assert.ErrorIs(t, err, domain.ErrBundleMissing)
	validator.AssertNotCalled(t, "Validate", mock.Anything, mock.Anything, mock.Anything)
}

func TestPipelineService_Validate_ServiceFailure(t *testing.T) {
	repo := new(testutil.MockRunRepo)
	validator := new(testutil.MockValidator)
	svc := NewPipelineService(repo, nil, nil, validator, nil)

	run := storedRun(t, domain.RunStateTranspiled)
	run.Bundle = &domain.TranspiledBundle{Code: "df = spark.read"}

	repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
	validator.On("Validate", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: status 502", domain.ErrValidationUnavailable))
	repo.On("Update", mock.Anything, run).Return(nil)

	_, err := svc.Validate(context.Background(), run.ID)
	assert.ErrorIs(t, err, domain.ErrValidationUnavailable)
	assert.Equal(t, domain.RunStateFailed, run.State)
}

func TestPipelineService_RejectsConcurrentStage(t *testing.T) {
	repo := new(testutil.MockRunRepo)
	analyzer := new(testutil.MockAnalyzer)
	svc := NewPipelineService(repo, analyzer, nil, nil, nil)

	run := storedRun(t, domain.RunStateUploaded)
	started := make(chan struct{})
	release := make(chan struct{})

	repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
	repo.On("Update", mock.Anything, run).Return(nil)
	analyzer.On("Analyze", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(&domain.AnalysisReport{Filename: reportFileName}, nil)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Analyze(context.Background(), run.ID)
		done <- err
	}()

	<-started
	_, err := svc.Transpile(context.Background(), run.ID)
	assert.ErrorIs(t, err, domain.ErrStageInFlight)

	close(release)
	assert.NoError(t, <-done)
}
