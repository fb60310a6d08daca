package services

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"migration-portal-service/internal/core/domain"
	"migration-portal-service/internal/core/ports/output"
)

// Layout of a run's working directory
const (
	sourceDirName   = "source"
	analysisDirName = "analysis"
	outputDirName   = "output"
	reportFileName  = "analysis_report.xlsx"
)

// RunService owns run intake and artifact access. Every run gets its own
// directory under workDir; a rejected submit leaves nothing behind.
type RunService struct {
	repo      ports.RunRepository
	archive   ports.ArtifactArchive
	workDir   string
	maxUpload int64
}

func NewRunService(repo ports.RunRepository, archive ports.ArtifactArchive, workDir string, maxUpload int64) *RunService {
	return &RunService{repo: repo, archive: archive, workDir: workDir, maxUpload: maxUpload}
}

func (s *RunService) Submit(ctx context.Context, sourceTech, filename string, content io.Reader) (*domain.Run, error) {
	if sourceTech == "" {
		sourceTech = domain.DefaultSourceTech
	}
	if filename == "" || content == nil {
		return nil, domain.ErrMissingUpload
	}

	run, err := domain.NewRun(sourceTech)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(content, s.maxUpload+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.maxUpload {
		return nil, domain.ErrUploadTooLarge
	}
	if len(data) == 0 {
		return nil, domain.ErrEmptyUpload
	}
	if !wellFormedXML(data) {
		return nil, domain.ErrMalformedXML
	}

	run.WorkDir = filepath.Join(s.workDir, run.ID.String())
	sourceDir := filepath.Join(run.WorkDir, sourceDirName)
	if err := os.MkdirAll(sourceDir, 0o755); err != nil {
		return nil, err
	}

	name := filepath.Base(filename)
	path := filepath.Join(sourceDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		os.RemoveAll(run.WorkDir)
		return nil, err
	}

	run.RecordUpload(&domain.UploadedArtifact{
		Filename:   name,
		Size:       int64(len(data)),
		Path:       path,
		UploadedAt: time.Now(),
	})

	if err := s.repo.Create(ctx, run); err != nil {
		os.RemoveAll(run.WorkDir)
		return nil, err
	}

	archiveFile(ctx, s.archive, run.ID, path)

	return run, nil
}

func (s *RunService) Get(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *RunService) List(ctx context.Context, filter ports.RunListFilter) ([]*domain.Run, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	return s.repo.List(ctx, filter)
}

// Report returns the analyzer report for download
func (s *RunService) Report(ctx context.Context, id uuid.UUID) (*domain.AnalysisReport, error) {
	run, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.Report == nil {
		return nil, domain.ErrReportNotFound
	}
	if _, err := os.Stat(run.Report.Path); err != nil {
		return nil, domain.ErrReportNotFound
	}
	return run.Report, nil
}

// BundleFilePath resolves a generated file for download. Paths are confined
// to the run's output directory; anything outside it reads as not found.
func (s *RunService) BundleFilePath(ctx context.Context, id uuid.UUID, rel string) (string, error) {
	run, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if run.Bundle == nil {
		return "", domain.ErrFileNotFound
	}

	clean := filepath.Clean(strings.TrimPrefix(rel, "/"))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || filepath.IsAbs(clean) {
		return "", domain.ErrFileNotFound
	}
	target := filepath.Join(run.Bundle.OutputDir, clean)
	if !strings.HasPrefix(target, run.Bundle.OutputDir+string(filepath.Separator)) {
		return "", domain.ErrFileNotFound
	}

	info, err := os.Stat(target)
	if err != nil || info.IsDir() {
		return "", domain.ErrFileNotFound
	}
	return target, nil
}

// ArchiveLinks lists presigned download links when the archive is enabled
func (s *RunService) ArchiveLinks(ctx context.Context, id uuid.UUID) ([]ports.ArchivedObject, error) {
	if s.archive == nil || !s.archive.IsAvailable() {
		return nil, nil
	}
	return s.archive.Links(ctx, id)
}

// archiveFile mirrors a local artifact to the archive; failures only warn
func archiveFile(ctx context.Context, archive ports.ArtifactArchive, runID uuid.UUID, path string) {
	if archive == nil || !archive.IsAvailable() {
		return
	}
	if err := archive.Store(ctx, runID, path); err != nil {
		log.WithError(err).Warn("failed to archive run artifact")
	}
}

// wellFormedXML requires the payload to parse as XML with at least one element
func wellFormedXML(data []byte) bool {
	dec := xml.NewDecoder(bytes.NewReader(data))
	seen := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return seen
		}
		if err != nil {
			return false
		}
		if _, ok := tok.(xml.StartElement); ok {
			seen = true
		}
	}
}
