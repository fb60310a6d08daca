package objectstore

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"migration-portal-service/internal/config"
	"migration-portal-service/internal/core/ports/output"
)

// Archive mirrors run artifacts to an S3-compatible bucket. Objects are keyed
// <run id>/<filename>, so one prefix listing returns a whole run.
type Archive struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

func NewArchive(cfg *config.ArchiveConfig) (*Archive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}

	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &Archive{client: client, bucket: cfg.Bucket, expiry: expiry}, nil
}

// EnsureBucket creates the archive bucket when it does not exist yet
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check archive bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create archive bucket %s: %w", a.bucket, err)
	}
	return nil
}

// Store uploads a local file under the run's prefix
func (a *Archive) Store(ctx context.Context, runID uuid.UUID, localPath string) error {
	key := runID.String() + "/" + filepath.Base(localPath)
	opts := minio.PutObjectOptions{ContentType: contentTypeFor(localPath)}
	if _, err := a.client.FPutObject(ctx, a.bucket, key, localPath, opts); err != nil {
		return fmt.Errorf("archive %s: %w", key, err)
	}
	return nil
}

// Links lists the run's archived objects with presigned download URLs
func (a *Archive) Links(ctx context.Context, runID uuid.UUID) ([]ports.ArchivedObject, error) {
	prefix := runID.String() + "/"
	objects := []ports.ArchivedObject{}

	for info := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, fmt.Errorf("list archived objects: %w", info.Err)
		}
		u, err := a.client.PresignedGetObject(ctx, a.bucket, info.Key, a.expiry, nil)
		if err != nil {
			return nil, fmt.Errorf("presign %s: %w", info.Key, err)
		}
		objects = append(objects, ports.ArchivedObject{Key: info.Key, URL: u.String()})
	}
	return objects, nil
}

func (a *Archive) IsAvailable() bool {
	return a != nil && a.client != nil
}

func contentTypeFor(path string) string {
	switch filepath.Ext(path) {
	case ".py":
		return "text/x-python"
	case ".json":
		return "application/json"
	case ".xml":
		return "application/xml"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// Ensure Archive implements ArtifactArchive
var _ ports.ArtifactArchive = (*Archive)(nil)
