package lakebridge

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"migration-portal-service/internal/config"
	"migration-portal-service/internal/core/domain"
	"migration-portal-service/internal/core/ports/output"
)

// Lakebridge ships as a Databricks Labs extension; both tools are
// subcommands of the databricks CLI.
var (
	analyzeArgs   = []string{"labs", "lakebridge", "analyze"}
	transpileArgs = []string{"labs", "lakebridge", "transpile"}
)

// Analyzer invokes the Lakebridge analyze command
type Analyzer struct {
	bin     string
	timeout time.Duration
}

func NewAnalyzer(cfg *config.AnalyzerConfig) *Analyzer {
	bin := strings.TrimSpace(cfg.Bin)
	if bin == "" {
		bin = "databricks"
	}
	return &Analyzer{bin: bin, timeout: cfg.Timeout}
}

// IsAvailable checks if the tool binary can be invoked
func (a *Analyzer) IsAvailable() bool {
	_, err := exec.LookPath(a.bin)
	return err == nil
}

// Analyze runs the tool and verifies the report it claims to have written.
// A missing binary surfaces here as a failed run, not a failed server.
func (a *Analyzer) Analyze(ctx context.Context, req ports.AnalyzerRequest) (*domain.AnalysisReport, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	args := append(append([]string{}, analyzeArgs...),
		"--source-directory", req.SourceDir,
		"--report-file", req.ReportFile,
		"--source-tech", req.SourceTech,
	)

	cmd := exec.CommandContext(ctx, a.bin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %s", domain.ErrAnalyzerFailed, err, strings.TrimSpace(string(out)))
	}

	info, err := os.Stat(req.ReportFile)
	if err != nil || info.Size() == 0 {
		return nil, fmt.Errorf("%w: no report file was produced", domain.ErrAnalyzerFailed)
	}

	return &domain.AnalysisReport{
		Filename:    filepath.Base(req.ReportFile),
		Size:        info.Size(),
		Path:        req.ReportFile,
		CompletedAt: time.Now(),
	}, nil
}
