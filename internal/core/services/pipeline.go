package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"migration-portal-service/internal/core/domain"
	"migration-portal-service/internal/core/ports/output"
)

// PipelineService drives the analyze, transpile and validate stages. Stages
// run synchronously; one stage at a time per run, a second concurrent
// invocation on the same run is rejected.
type PipelineService struct {
	repo       ports.RunRepository
	analyzer   ports.Analyzer
	transpiler ports.Transpiler
	validator  ports.Validator
	archive    ports.ArtifactArchive

	mu       sync.Mutex
	inFlight map[uuid.UUID]bool
}

func NewPipelineService(repo ports.RunRepository, analyzer ports.Analyzer, transpiler ports.Transpiler, validator ports.Validator, archive ports.ArtifactArchive) *PipelineService {
	return &PipelineService{
		repo:       repo,
		analyzer:   analyzer,
		transpiler: transpiler,
		validator:  validator,
		archive:    archive,
		inFlight:   make(map[uuid.UUID]bool),
	}
}

// Analyze runs the analyzer against the run's uploaded source and records
// the report. A tool failure marks the run failed.
func (s *PipelineService) Analyze(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	if err := s.begin(id); err != nil {
		return nil, err
	}
	defer s.end(id)

	run, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.State.IsTerminal() {
		return nil, domain.ErrRunTerminal
	}

	source, err := domain.LookupSource(run.SourceTech)
	if err != nil {
		return nil, err
	}

	reportDir := filepath.Join(run.WorkDir, analysisDirName)
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return nil, err
	}

	report, err := s.analyzer.Analyze(ctx, ports.AnalyzerRequest{
		SourceDir:  filepath.Join(run.WorkDir, sourceDirName),
		ReportFile: filepath.Join(reportDir, reportFileName),
		SourceTech: source.AnalyzerTech,
	})
	if err != nil {
		s.fail(ctx, run, err)
		return nil, err
	}

	run.RecordReport(report)
	if err := s.repo.Update(ctx, run); err != nil {
		return nil, err
	}

	archiveFile(ctx, s.archive, run.ID, report.Path)

	return run, nil
}

// Transpile runs the transpiler against the run's uploaded source and records
// the bundle. Re-running replaces the previous bundle wholesale.
func (s *PipelineService) Transpile(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	if err := s.begin(id); err != nil {
		return nil, err
	}
	defer s.end(id)

	run, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.State.IsTerminal() {
		return nil, domain.ErrRunTerminal
	}

	source, err := domain.LookupSource(run.SourceTech)
	if err != nil {
		return nil, err
	}

	bundle, err := s.transpiler.Transpile(ctx, ports.TranspilerRequest{
		InputFile: run.Upload.Path,
		OutputDir: filepath.Join(run.WorkDir, outputDirName),
		Dialect:   source.TranspilerDialect,
	})
	if err != nil {
		s.fail(ctx, run, err)
		return nil, err
	}

	run.RecordBundle(bundle)
	if err := s.repo.Update(ctx, run); err != nil {
		return nil, err
	}

	for _, f := range bundle.CodeFiles {
		archiveFile(ctx, s.archive, run.ID, filepath.Join(bundle.OutputDir, f))
	}
	if bundle.WorkflowFile != "" {
		archiveFile(ctx, s.archive, run.ID, filepath.Join(bundle.OutputDir, bundle.WorkflowFile))
	}

	return run, nil
}

// Validate sends the run's source and generated code to the language model
// and records the verdict. Requires a transpiled bundle.
func (s *PipelineService) Validate(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	if err := s.begin(id); err != nil {
		return nil, err
	}
	defer s.end(id)

	run, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.State.IsTerminal() {
		return nil, domain.ErrRunTerminal
	}
	if run.Bundle == nil {
		return nil, domain.ErrBundleMissing
	}

	xmlText, err := os.ReadFile(run.Upload.Path)
	if err != nil {
		return nil, fmt.Errorf("read uploaded source: %w", err)
	}

	verdict, err := s.validator.Validate(ctx, string(xmlText), run.Bundle.Code)
	if err != nil {
		s.fail(ctx, run, err)
		return nil, err
	}

	run.RecordVerdict(verdict)
	if err := s.repo.Update(ctx, run); err != nil {
		return nil, err
	}

	return run, nil
}

func (s *PipelineService) begin(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[id] {
		return domain.ErrStageInFlight
	}
	s.inFlight[id] = true
	return nil
}

func (s *PipelineService) end(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
}

func (s *PipelineService) fail(ctx context.Context, run *domain.Run, cause error) {
	run.Fail(cause.Error())
	if err := s.repo.Update(ctx, run); err != nil {
		log.WithError(err).Warn("failed to record run failure")
	}
}
