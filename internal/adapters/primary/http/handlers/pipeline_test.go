package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"migration-portal-service/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// liveRun builds a run with a real working directory and stored source file.
func liveRun(t *testing.T, state domain.RunState) *domain.Run {
	t.Helper()
	run := storedRun(state)
	run.WorkDir = filepath.Join(t.TempDir(), run.ID.String())
	sourceDir := filepath.Join(run.WorkDir, "source")
	require.NoError(t, os.MkdirAll(sourceDir, 0o755))

	path := filepath.Join(sourceDir, "wf_orders.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleXML), 0o644))
	run.Upload = &domain.UploadedArtifact{
		Filename:   "wf_orders.xml",
		Size:       int64(len(sampleXML)),
		Path:       path,
		UploadedAt: time.Now(),
	}
	return run
}

func TestAnalyzeRun(t *testing.T) {
	m, r := setupRunRouter(t)

	run := liveRun(t, domain.RunStateUploaded)
	m.repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
	m.repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Run")).Return(nil)
	m.analyzer.On("Analyze", mock.Anything, mock.Anything).Return(&domain.AnalysisReport{
		Filename:    "analysis_report.xlsx",
		Size:        1024,
		Path:        filepath.Join(run.WorkDir, "analysis", "analysis_report.xlsx"),
		CompletedAt: time.Now(),
	}, nil)

	req, _ := http.NewRequest("POST", BasePath+"/runs/"+run.ID.String()+"/analyze", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "ANALYZED", resp["state"])
	assert.NotNil(t, resp["report"])
}

func TestAnalyzeRun_ToolFailure(t *testing.T) {
	m, r := setupRunRouter(t)

	run := liveRun(t, domain.RunStateUploaded)
	m.repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
	m.repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Run")).Return(nil)
	m.analyzer.On("Analyze", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: exit status 1: boom", domain.ErrAnalyzerFailed))

	req, _ := http.NewRequest("POST", BasePath+"/runs/"+run.ID.String()+"/analyze", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "analyzer failed")
	m.repo.AssertCalled(t, "Update", mock.Anything, mock.AnythingOfType("*domain.Run"))
}

func TestAnalyzeRun_TerminalRun(t *testing.T) {
	m, r := setupRunRouter(t)

	run := liveRun(t, domain.RunStateValidated)
	m.repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)

	req, _ := http.NewRequest("POST", BasePath+"/runs/"+run.ID.String()+"/analyze", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAnalyzeRun_InvalidID(t *testing.T) {
	_, r := setupRunRouter(t)

	req, _ := http.NewRequest("POST", BasePath+"/runs/not-a-uuid/analyze", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTranspileRun(t *testing.T) {
	m, r := setupRunRouter(t)

	run := liveRun(t, domain.RunStateUploaded)
	m.repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
	m.repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Run")).Return(nil)
	m.transpiler.On("Transpile", mock.Anything, mock.Anything).Return(&domain.TranspiledBundle{
		OutputDir:    filepath.Join(run.WorkDir, "output"),
		CodeFiles:    []string{"m_load_orders.py"},
		Code:         "df = spark.read",
		Workflow:     map[string]interface{}{"name": "wf_orders"},
		WorkflowFile: "workflow.json",
		CompletedAt:  time.Now(),
	}, nil)

	req, _ := http.NewRequest("POST", BasePath+"/runs/"+run.ID.String()+"/transpile", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "TRANSPILED", resp["state"])

	bundle, ok := resp["bundle"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "df = spark.read", bundle["code"])
}

func TestValidateRun(t *testing.T) {
	m, r := setupRunRouter(t)

	run := liveRun(t, domain.RunStateTranspiled)
	run.Bundle = &domain.TranspiledBundle{
		OutputDir: filepath.Join(run.WorkDir, "output"),
		CodeFiles: []string{"m_load_orders.py"},
		Code:      "df = spark.read",
	}
	passed := true
	m.repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
	m.repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Run")).Return(nil)
	m.validator.On("Validate", mock.Anything, sampleXML, "df = spark.read").Return(&domain.ValidationVerdict{
		Assessment:  "4. Final Verdict: Pass",
		Passed:      &passed,
		Model:       "HuggingFaceH4/zephyr-7b-beta",
		CompletedAt: time.Now(),
	}, nil)

	req, _ := http.NewRequest("POST", BasePath+"/runs/"+run.ID.String()+"/validate", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "VALIDATED", resp["state"])

	verdict, ok := resp["verdict"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, verdict["passed"])
}

func TestValidateRun_NoBundle(t *testing.T) {
	m, r := setupRunRouter(t)

	run := liveRun(t, domain.RunStateUploaded)
	m.repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)

	req, _ := http.NewRequest("POST", BasePath+"/runs/"+run.ID.String()+"/validate", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no transpiled bundle")
}

func TestValidateRun_ServiceTimeout(t *testing.T) {
	m, r := setupRunRouter(t)

	run := liveRun(t, domain.RunStateTranspiled)
	run.Bundle = &domain.TranspiledBundle{Code: "df = spark.read"}
	m.repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
	m.repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Run")).Return(nil)
	m.validator.On("Validate", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: context deadline exceeded", domain.ErrValidationTimeout))

	req, _ := http.NewRequest("POST", BasePath+"/runs/"+run.ID.String()+"/validate", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}
