package snapshot

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// GCSBlob writes artifacts to a Google Cloud Storage bucket. Authentication
// uses Application Default Credentials.
type GCSBlob struct {
	client *storage.Client
	bucket string
	logger *zap.Logger
}

// NewGCSBlob creates the GCS client and verifies the bucket is reachable so
// bad configuration fails at startup rather than mid-run.
func NewGCSBlob(ctx context.Context, bucket string, logger *zap.Logger) (*GCSBlob, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		if cerr := client.Close(); cerr != nil {
			logger.Warn("Failed to close gcs client after bucket check failure", zap.Error(cerr))
		}
		return nil, fmt.Errorf("get gcs bucket %q attributes: %w", bucket, err)
	}
	return &GCSBlob{client: client, bucket: bucket, logger: logger}, nil
}

// Put uploads data to the bucket and returns a gs:// URI.
func (s *GCSBlob) Put(ctx context.Context, key string, data []byte) (string, error) {
	wc := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if _, err := wc.Write(data); err != nil {
		if cerr := wc.Close(); cerr != nil {
			s.logger.Warn("Failed to close gcs writer after write failure", zap.Error(cerr))
		}
		return "", fmt.Errorf("write gcs object %s: %w", key, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("finalize gcs object %s: %w", key, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, key), nil
}

// Close releases the underlying client.
func (s *GCSBlob) Close() error {
	return s.client.Close()
}

// NoopBlob discards artifacts; useful for dry runs.
type NoopBlob struct{}

// Put implements Blob and discards the data.
func (NoopBlob) Put(_ context.Context, key string, _ []byte) (string, error) {
	return "noop://" + key, nil
}
