// Package app initializes and holds long-lived application services, acting
// as a dependency injection container for the CLI commands.
package app

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/platewise/menuharvest/internal/logging"
	"github.com/platewise/menuharvest/internal/publisher"
	"github.com/platewise/menuharvest/internal/snapshot"
)

// App holds the shared services built once at startup: the logger, the raw
// page snapshot store, and the run-summary publisher. Commands retrieve it
// from the cobra context.
type App struct {
	viper     *viper.Viper
	logger    *zap.Logger
	snapshots *snapshot.Store
	gcsBlob   *snapshot.GCSBlob
	publisher publisher.Publisher
}

// GetViper returns the configuration backing this run.
func (a *App) GetViper() *viper.Viper {
	return a.viper
}

// GetLogger returns the shared zap logger instance.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetSnapshots exposes the configured snapshot store.
func (a *App) GetSnapshots() *snapshot.Store {
	return a.snapshots
}

// GetPublisher returns the run-summary publisher.
func (a *App) GetPublisher() publisher.Publisher {
	return a.publisher
}

// NewApp instantiates the providers named in the configuration. It fails
// fast if any configured service cannot be reached.
func NewApp(ctx context.Context, v *viper.Viper) (*App, error) {
	l := logging.L
	a := &App{viper: v, logger: l}

	blob, err := a.buildBlob(ctx, v)
	if err != nil {
		return nil, err
	}
	a.snapshots = snapshot.NewStore(blob, v.GetInt64("harvest.max_page_bytes"), l)

	if err := a.buildPublisher(ctx, v); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *App) buildBlob(ctx context.Context, v *viper.Viper) (snapshot.Blob, error) {
	provider := v.GetString("snapshot.provider")
	switch provider {
	case "local":
		baseDir := v.GetString("snapshot.base_dir")
		a.logger.Info("Using local snapshot storage", zap.String("base_dir", baseDir))
		local, err := snapshot.NewLocalBlob(baseDir)
		if err != nil {
			return nil, fmt.Errorf("initialize local snapshots: %w", err)
		}
		return local, nil
	case "gcs":
		bucket := v.GetString("snapshot.gcs_bucket")
		if bucket == "" {
			return nil, fmt.Errorf("snapshot provider is 'gcs' but snapshot.gcs_bucket is not set")
		}
		a.logger.Info("Using GCS snapshot storage", zap.String("bucket", bucket))
		gcs, err := snapshot.NewGCSBlob(ctx, bucket, a.logger)
		if err != nil {
			return nil, fmt.Errorf("initialize gcs snapshots: %w", err)
		}
		a.gcsBlob = gcs
		return gcs, nil
	case "noop":
		a.logger.Info("Snapshot storage disabled, raw pages will be discarded")
		return snapshot.NoopBlob{}, nil
	default:
		return nil, fmt.Errorf("unknown snapshot provider: %s", provider)
	}
}

func (a *App) buildPublisher(ctx context.Context, v *viper.Viper) error {
	projectID := v.GetString("pubsub.project_id")
	topicID := v.GetString("pubsub.topic")
	if projectID == "" || topicID == "" {
		a.logger.Info("No Pub/Sub topic configured, run summaries stay local")
		a.publisher = publisher.Noop{}
		return nil
	}
	a.logger.Info("Connecting to Pub/Sub", zap.String("project", projectID), zap.String("topic", topicID))
	pub, err := publisher.NewPubSub(ctx, projectID, topicID, a.logger)
	if err != nil {
		return fmt.Errorf("initialize pubsub publisher: %w", err)
	}
	a.publisher = pub
	return nil
}

// Close gracefully shuts down all services. It is called by a cobra hook
// after the command finishes.
func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("Error closing publisher", zap.Error(err))
		}
	}
	if a.gcsBlob != nil {
		if err := a.gcsBlob.Close(); err != nil {
			a.logger.Warn("Error closing gcs client", zap.Error(err))
		}
	}
	if err := a.logger.Sync(); err != nil {
		a.logger.Warn("Error syncing logger on shutdown", zap.Error(err))
	}
}
