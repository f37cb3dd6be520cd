package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
)

const (
	StreamCatalogImports = "CATALOG_IMPORTS"
	SubjectImportDone    = "catalog.import.completed"
)

// ImportCompletedEvent is published after every commit
type ImportCompletedEvent struct {
	EventType       string    `json:"eventType"`
	TenantID        string    `json:"tenantId"`
	Timestamp       time.Time `json:"timestamp"`
	Source          string    `json:"source"`
	Success         bool      `json:"success"`
	Imported        int       `json:"imported"`
	Updated         int       `json:"updated"`
	Failed          int       `json:"failed"`
	Skipped         int       `json:"skipped"`
	VariantsCreated int       `json:"variantsCreated"`
	ImagesCreated   int       `json:"imagesCreated"`
	CreatedIDs      []string  `json:"createdIds,omitempty"`
	UpdatedIDs      []string  `json:"updatedIds,omitempty"`
}

// Publisher sends catalog import events to JetStream
type Publisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *logrus.Entry
}

// NewPublisher connects to NATS and ensures the import stream exists
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	entry := logger.WithField("component", "catalog-events")

	nc, err := nats.Connect(natsURL,
		nats.Name("catalog-import-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.ReconnectBufSize(8*1024*1024),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			entry.WithField("url", nc.ConnectedUrl()).Info("Reconnected to NATS")
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			entry.WithError(err).Warn("Disconnected from NATS")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			entry.Info("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamCatalogImports,
		Subjects:  []string{"catalog.import.>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour * 7,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		entry.WithError(err).Warn("Failed to ensure catalog imports stream (may already exist)")
	}

	return &Publisher{nc: nc, js: js, logger: entry}, nil
}

// Close drains the NATS connection
func (p *Publisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
	}
}

// PublishImportCompleted publishes the outcome of a commit; a nil publisher is a no-op
func (p *Publisher) PublishImportCompleted(ctx context.Context, event *ImportCompletedEvent) error {
	if p == nil || p.js == nil {
		return nil
	}
	if event.EventType == "" {
		event.EventType = SubjectImportDone
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	if _, err := p.js.Publish(ctx, SubjectImportDone, data); err != nil {
		p.logger.WithFields(logrus.Fields{
			"eventType": event.EventType,
			"tenantID":  event.TenantID,
		}).WithError(err).Error("Failed to publish catalog import event")
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"eventType": event.EventType,
		"tenantID":  event.TenantID,
		"imported":  event.Imported,
		"updated":   event.Updated,
		"failed":    event.Failed,
	}).Info("Catalog import event published")
	return nil
}
