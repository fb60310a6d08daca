package lakebridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"migration-portal-service/internal/config"
	"migration-portal-service/internal/core/domain"
	"migration-portal-service/internal/core/ports/output"
)

// Transpiler invokes the Lakebridge transpile command and collects its output
type Transpiler struct {
	bin     string
	timeout time.Duration
}

func NewTranspiler(cfg *config.TranspilerConfig) *Transpiler {
	bin := strings.TrimSpace(cfg.Bin)
	if bin == "" {
		bin = "databricks"
	}
	return &Transpiler{bin: bin, timeout: cfg.Timeout}
}

// IsAvailable checks if the tool binary can be invoked
func (t *Transpiler) IsAvailable() bool {
	_, err := exec.LookPath(t.bin)
	return err == nil
}

// Transpile runs the tool against a fresh output directory and bundles what
// it generated. Wiping the directory first keeps re-runs reproducible.
func (t *Transpiler) Transpile(ctx context.Context, req ports.TranspilerRequest) (*domain.TranspiledBundle, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	if err := os.RemoveAll(req.OutputDir); err != nil {
		return nil, fmt.Errorf("%w: reset output folder: %v", domain.ErrTranspilerFailed, err)
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create output folder: %v", domain.ErrTranspilerFailed, err)
	}

	args := append(append([]string{}, transpileArgs...),
		"--input-source", req.InputFile,
		"--output-folder", req.OutputDir,
		"--source-dialect", req.Dialect,
	)

	cmd := exec.CommandContext(ctx, t.bin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %s", domain.ErrTranspilerFailed, err, strings.TrimSpace(string(out)))
	}

	return collectBundle(req.OutputDir)
}

// collectBundle gathers the generated code files and the workflow description
// from the output folder
func collectBundle(outputDir string) (*domain.TranspiledBundle, error) {
	var codeFiles, jsonFiles []string

	err := filepath.WalkDir(outputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(outputDir, path)
		if err != nil {
			return err
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".py":
			codeFiles = append(codeFiles, rel)
		case ".json":
			jsonFiles = append(jsonFiles, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scan output folder: %v", domain.ErrTranspilerFailed, err)
	}
	if len(codeFiles) == 0 {
		return nil, fmt.Errorf("%w: no code files were generated", domain.ErrTranspilerFailed)
	}
	sort.Strings(codeFiles)

	var code strings.Builder
	for i, rel := range codeFiles {
		data, err := os.ReadFile(filepath.Join(outputDir, rel))
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", domain.ErrTranspilerFailed, rel, err)
		}
		if i > 0 {
			code.WriteString("\n\n")
		}
		fmt.Fprintf(&code, "# === %s ===\n", rel)
		code.Write(data)
	}

	workflowFile := pickWorkflowFile(jsonFiles)
	if workflowFile == "" {
		return nil, fmt.Errorf("%w: no workflow description was generated", domain.ErrTranspilerFailed)
	}
	raw, err := os.ReadFile(filepath.Join(outputDir, workflowFile))
	if err != nil {
		return nil, fmt.Errorf("%w: read workflow: %v", domain.ErrTranspilerFailed, err)
	}
	var workflow map[string]interface{}
	if err := json.Unmarshal(raw, &workflow); err != nil {
		return nil, fmt.Errorf("%w: parse workflow: %v", domain.ErrTranspilerFailed, err)
	}

	return &domain.TranspiledBundle{
		OutputDir:    outputDir,
		CodeFiles:    codeFiles,
		Code:         code.String(),
		Workflow:     workflow,
		WorkflowFile: workflowFile,
		CompletedAt:  time.Now(),
	}, nil
}

// pickWorkflowFile prefers a workflow*.json, then the first JSON in lexical
// order
func pickWorkflowFile(jsonFiles []string) string {
	sort.Strings(jsonFiles)
	for _, f := range jsonFiles {
		if strings.HasPrefix(strings.ToLower(filepath.Base(f)), "workflow") {
			return f
		}
	}
	if len(jsonFiles) > 0 {
		return jsonFiles[0]
	}
	return ""
}
