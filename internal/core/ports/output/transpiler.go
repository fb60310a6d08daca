package ports

import (
	"context"

	"migration-portal-service/internal/core/domain"
)

// TranspilerRequest describes one transpiler invocation
type TranspilerRequest struct {
	InputFile string // stored source XML
	OutputDir string // per-run output directory, wiped by the adapter before each run
	Dialect   string // transpiler-side source dialect from the source catalog
}

// Transpiler defines the contract for the external code generation tool
type Transpiler interface {
	// Transpile runs the tool and collects its output into a bundle: the
	// generated code files, their concatenated text, and the parsed workflow
	// description. At least one code file and a parseable workflow are required.
	Transpile(ctx context.Context, req TranspilerRequest) (*domain.TranspiledBundle, error)

	// IsAvailable checks if the tool binary can be invoked
	IsAvailable() bool
}
