// Package snapshot archives raw fetched pages, compressed, for audit and
// replay. Snapshots are addressed by host and content hash and are never
// read back by the pipeline.
package snapshot

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"
)

// Blob writes a raw artifact and returns its URI.
type Blob interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
}

// Store compresses artifacts and hands them to the configured blob backend.
type Store struct {
	blob     Blob
	maxBytes int64
	logger   *zap.Logger
}

// NewStore builds a snapshot store. maxBytes bounds the uncompressed page
// size accepted for archival.
func NewStore(blob Blob, maxBytes int64, logger *zap.Logger) *Store {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &Store{blob: blob, maxBytes: maxBytes, logger: logger}
}

// SavePage archives one fetched page under pages/<host>/<sha1>.html.gz and
// returns the stored URI.
func (s *Store) SavePage(ctx context.Context, pageURL string, body []byte) (string, error) {
	if len(body) == 0 {
		return "", fmt.Errorf("empty page body")
	}
	if int64(len(body)) > s.maxBytes {
		return "", fmt.Errorf("page size %d exceeds max %d", len(body), s.maxBytes)
	}
	host := "unknown"
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		host = strings.ToLower(u.Host)
	}
	sum := sha1.Sum(body)
	key := path.Join("pages", host, hex.EncodeToString(sum[:])+".html.gz")
	return s.put(ctx, key, body)
}

// SaveDiscovery archives the raw POI service response for a run.
func (s *Store) SaveDiscovery(ctx context.Context, runID string, raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("empty discovery payload")
	}
	key := path.Join("discovery", runID+".json.gz")
	return s.put(ctx, key, raw)
}

func (s *Store) put(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context canceled: %w", err)
	}
	compressed, err := compress(data)
	if err != nil {
		return "", fmt.Errorf("compress snapshot: %w", err)
	}
	uri, err := s.blob.Put(ctx, key, compressed)
	if err != nil {
		return "", fmt.Errorf("store snapshot %s: %w", key, err)
	}
	s.logger.Debug("Snapshot stored",
		zap.String("key", key),
		zap.Int("raw_bytes", len(data)),
		zap.Int("stored_bytes", len(compressed)),
	)
	return uri, nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
