package storage

import (
	"context"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
)

// GCSClient downloads document bytes from Google Cloud Storage. One
// instance per process; the underlying client reuses connections.
type GCSClient struct {
	client *gcs.Client
}

func NewGCSClient(ctx context.Context) (*GCSClient, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSClient{client: client}, nil
}

// Download reads the full object into memory. Documents are bounded by
// the upload limits of the companion app, so buffering is acceptable.
func (c *GCSClient) Download(ctx context.Context, bucket, object string) ([]byte, error) {
	reader, err := c.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", bucket, object, err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", bucket, object, err)
	}
	return content, nil
}

func (c *GCSClient) Close() error {
	return c.client.Close()
}
