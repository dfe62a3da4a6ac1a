package storage

import (
	"context"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/pratik-mahalle/creatorhub/internal/config"
	"github.com/pratik-mahalle/creatorhub/internal/domain/snapshot"
)

// GCSArchiver writes snapshots to a Google Cloud Storage bucket
type GCSArchiver struct {
	client *gcs.Client
	bucket string
	prefix string
}

// NewGCSArchiver creates a client from a service account file, or from
// application default credentials when none is configured.
func NewGCSArchiver(ctx context.Context, cfg config.ArchiveConfig) (*GCSArchiver, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSArchiver{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Archive uploads snap as a JSON object
func (a *GCSArchiver) Archive(ctx context.Context, snap *snapshot.Snapshot) error {
	body, err := encodeDocument(snap)
	if err != nil {
		return err
	}

	w := a.client.Bucket(a.bucket).Object(objectKey(a.prefix, snap)).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// Backend returns "gcs"
func (a *GCSArchiver) Backend() string { return BackendGCS }

// Close releases the client
func (a *GCSArchiver) Close() error {
	return a.client.Close()
}
