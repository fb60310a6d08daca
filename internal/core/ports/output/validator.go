package ports

import (
	"context"

	"migration-portal-service/internal/core/domain"
)

// Validator defines the contract for the hosted language model that reviews
// generated code against the uploaded source
type Validator interface {
	// Validate sends the source XML and the generated code for assessment and
	// returns the parsed verdict
	Validate(ctx context.Context, sourceXML, code string) (*domain.ValidationVerdict, error)
}
