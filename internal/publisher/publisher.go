// Package publisher announces finished harvest runs so downstream
// consumers (indexers, embedding jobs) can pick up the new rows.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
)

// Publisher sends one message per completed run.
type Publisher interface {
	Publish(ctx context.Context, payload any) (string, error)
	Close() error
}

// PubSubPublisher publishes run summaries to a Google Cloud Pub/Sub topic.
type PubSubPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	logger *zap.Logger
}

// NewPubSub connects to the topic and verifies it exists. It authenticates
// using Application Default Credentials.
func NewPubSub(ctx context.Context, projectID, topicID string, logger *zap.Logger) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("Failed to close pubsub client after topic check failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("check pubsub topic %q: %w", topicID, err)
	}
	if !exists {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("Failed to close pubsub client after topic check failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("pubsub topic %q does not exist in project %q", topicID, projectID)
	}

	return &PubSubPublisher{client: client, topic: topic, logger: logger}, nil
}

// Publish marshals the payload to JSON, sends it, and waits for the server
// ack so a failed publish surfaces in the run exit code.
func (p *PubSubPublisher) Publish(ctx context.Context, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{Data: data})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish message: %w", err)
	}
	p.logger.Info("Published run summary", zap.String("message_id", id))
	return id, nil
}

// Close flushes pending messages and closes the client connection.
func (p *PubSubPublisher) Close() error {
	p.topic.Stop()
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}

// Noop discards every publish. Used when no topic is configured.
type Noop struct{}

// Publish does nothing and reports success.
func (Noop) Publish(context.Context, any) (string, error) { return "", nil }

// Close does nothing.
func (Noop) Close() error { return nil }
