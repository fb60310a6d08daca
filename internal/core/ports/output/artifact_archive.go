package ports

import (
	"context"

	"github.com/google/uuid"
)

// ArchivedObject is one artifact mirrored to the archive bucket
type ArchivedObject struct {
	Key string `json:"key"`
	URL string `json:"url"` // time-limited presigned GET
}

// ArtifactArchive mirrors run artifacts to durable object storage
type ArtifactArchive interface {
	// Store uploads a local file under the run's prefix
	Store(ctx context.Context, runID uuid.UUID, localPath string) error

	// Links lists the run's archived objects with presigned download URLs
	Links(ctx context.Context, runID uuid.UUID) ([]ArchivedObject, error)

	// IsAvailable checks if the archive is enabled and configured
	IsAvailable() bool
}
