package domain

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Value Objects
// ============================================================================

// RunState represents the lifecycle state of a migration run
type RunState string

const (
	RunStateCreated    RunState = "CREATED"
	RunStateUploaded   RunState = "UPLOADED"
	RunStateAnalyzed   RunState = "ANALYZED"
	RunStateTranspiled RunState = "TRANSPILED"
	RunStateValidated  RunState = "VALIDATED"
	RunStateFailed     RunState = "FAILED"
)

// stateRank orders states by pipeline progress. Advance never moves a run
// backwards: analyzing after a transpile keeps the run TRANSPILED.
var stateRank = map[RunState]int{
	RunStateCreated:    0,
	RunStateUploaded:   1,
	RunStateAnalyzed:   2,
	RunStateTranspiled: 3,
	RunStateValidated:  4,
}

// IsValid checks if the state is valid
func (s RunState) IsValid() bool {
	if s == RunStateFailed {
		return true
	}
	_, ok := stateRank[s]
	return ok
}

// IsTerminal returns true when no further stage may run against the run
func (s RunState) IsTerminal() bool {
	return s == RunStateValidated || s == RunStateFailed
}

// ============================================================================
// Stage Outputs
// ============================================================================

// UploadedArtifact is the source XML accepted by submit, stored inside the
// run's working directory for the lifetime of the run.
type UploadedArtifact struct {
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	Path       string    `json:"-"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// AnalysisReport points at the spreadsheet report produced by the analyzer
type AnalysisReport struct {
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	Path        string    `json:"-"`
	CompletedAt time.Time `json:"completed_at"`
}

// TranspiledBundle is the transpiler's output for one run. CodeFiles are
// relative to OutputDir; Code is the concatenated PySpark text.
type TranspiledBundle struct {
	OutputDir    string                 `json:"-"`
	CodeFiles    []string               `json:"code_files"`
	Code         string                 `json:"code"`
	Workflow     map[string]interface{} `json:"workflow"`
	WorkflowFile string                 `json:"workflow_file"`
	CompletedAt  time.Time              `json:"completed_at"`
}

// ValidationVerdict is the language model's assessment of the generated code.
// Passed is nil when the assessment text names no clear verdict.
type ValidationVerdict struct {
	Assessment  string    `json:"assessment"`
	Passed      *bool     `json:"passed"`
	Model       string    `json:"model"`
	Mock        bool      `json:"mock"`
	CompletedAt time.Time `json:"completed_at"`
}

// ============================================================================
// Entities
// ============================================================================

// Run is one end-to-end migration attempt for a single uploaded file
type Run struct {
	ID            uuid.UUID          `json:"id"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	SourceTech    string             `json:"source_tech"`
	State         RunState           `json:"state"`
	FailureReason string             `json:"failure_reason,omitempty"`
	WorkDir       string             `json:"-"`
	Upload        *UploadedArtifact  `json:"upload,omitempty"`
	Report        *AnalysisReport    `json:"report,omitempty"`
	Bundle        *TranspiledBundle  `json:"bundle,omitempty"`
	Verdict       *ValidationVerdict `json:"verdict,omitempty"`
}

// NewRun creates a new Run with validation
func NewRun(sourceTech string) (*Run, error) {
	if _, err := LookupSource(sourceTech); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Run{
		ID:         uuid.New(),
		CreatedAt:  now,
		UpdatedAt:  now,
		SourceTech: sourceTech,
		State:      RunStateCreated,
	}, nil
}

// Advance moves the run to next unless that would regress its progress
func (r *Run) Advance(next RunState) {
	if stateRank[next] > stateRank[r.State] {
		r.State = next
	}
	r.UpdatedAt = time.Now()
}

// RecordUpload attaches the stored source artifact
func (r *Run) RecordUpload(a *UploadedArtifact) {
	r.Upload = a
	r.Advance(RunStateUploaded)
}

// RecordReport attaches the analyzer report
func (r *Run) RecordReport(rep *AnalysisReport) {
	r.Report = rep
	r.Advance(RunStateAnalyzed)
}

// RecordBundle attaches the transpiler output, replacing any previous bundle
func (r *Run) RecordBundle(b *TranspiledBundle) {
	r.Bundle = b
	r.Advance(RunStateTranspiled)
}

// RecordVerdict attaches the validation verdict
func (r *Run) RecordVerdict(v *ValidationVerdict) {
	r.Verdict = v
	r.Advance(RunStateValidated)
}

// Fail marks the run failed and records the reason
func (r *Run) Fail(reason string) {
	r.State = RunStateFailed
	r.FailureReason = reason
	r.UpdatedAt = time.Now()
}

// Clone returns a deep copy safe to hand across goroutines
func (r *Run) Clone() *Run {
	cp := *r
	if r.Upload != nil {
		u := *r.Upload
		cp.Upload = &u
	}
	if r.Report != nil {
		rep := *r.Report
		cp.Report = &rep
	}
	if r.Bundle != nil {
		b := *r.Bundle
		b.CodeFiles = append([]string(nil), r.Bundle.CodeFiles...)
		if r.Bundle.Workflow != nil {
			b.Workflow = make(map[string]interface{}, len(r.Bundle.Workflow))
			for k, v := range r.Bundle.Workflow {
				b.Workflow[k] = v
			}
		}
		cp.Bundle = &b
	}
	if r.Verdict != nil {
		v := *r.Verdict
		if r.Verdict.Passed != nil {
			passed := *r.Verdict.Passed
			v.Passed = &passed
		}
		cp.Verdict = &v
	}
	return &cp
}
