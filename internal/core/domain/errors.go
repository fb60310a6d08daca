package domain

import "errors"

// ============================================================================
// Upload / Input Errors
// ============================================================================

var (
	ErrMissingUpload  = errors.New("no file was uploaded")
	ErrEmptyUpload    = errors.New("uploaded file is empty")
	ErrUploadTooLarge = errors.New("uploaded file exceeds the size limit")
	ErrMalformedXML   = errors.New("uploaded file is not well-formed XML")
	ErrUnknownSource  = errors.New("unknown source technology")
)

// ============================================================================
// Run Lifecycle Errors
// ============================================================================

// Not found errors
var (
	ErrRunNotFound    = errors.New("migration run not found")
	ErrReportNotFound = errors.New("analysis report not found for this run")
	ErrFileNotFound   = errors.New("generated file not found for this run")
)

// State errors
var (
	ErrRunTerminal   = errors.New("run is in a terminal state")
	ErrBundleMissing = errors.New("no transpiled bundle exists for this run")
	ErrStageInFlight = errors.New("another stage is already running for this run")
)

// ============================================================================
// External Tool Errors
// ============================================================================

var (
	ErrAnalyzerFailed   = errors.New("analyzer failed")
	ErrTranspilerFailed = errors.New("transpiler failed")
)

// ============================================================================
// Validation Service Errors
// ============================================================================

var (
	ErrValidationUnavailable = errors.New("validation service is unavailable")
	ErrValidationTimeout     = errors.New("validation service timed out")
	ErrEmptyVerdict          = errors.New("validation service returned an empty or malformed response")
)
