// Package events publishes domain events to SNS or Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/inkfinity/backend/models"
	"go.uber.org/zap"
)

// Publisher delivers one event. Implementations are safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event models.EventPayload) error
	Close() error
}

func NewEvent(eventType string, data map[string]interface{}) models.EventPayload {
	return models.EventPayload{
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

func encode(event models.EventPayload) ([]byte, error) {
	b, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", event.EventType, err)
	}
	return b, nil
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, models.EventPayload) error { return nil }
func (NoopPublisher) Close() error                                       { return nil }

// PublishAsync sends event on its own goroutine with a short timeout and
// only logs failures. Request handlers use it so a slow broker never delays
// the response.
func PublishAsync(p Publisher, event models.EventPayload, logger *zap.Logger) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.Publish(ctx, event); err != nil {
			logger.Warn("event publish failed",
				zap.String("event_type", event.EventType),
				zap.Error(err),
			)
		}
	}()
}
