package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/inkfinity/backend/models"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSource feeds a Dispatcher from a consumer group.
type KafkaSource struct {
	reader  messageReader
	logger  *zap.Logger
	backoff time.Duration
}

func NewKafkaSource(brokers []string, topic, groupID string, logger *zap.Logger) *KafkaSource {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1e3,
		MaxBytes: 1e6,
	})
	return &KafkaSource{reader: r, logger: logger, backoff: 2 * time.Second}
}

// Run consumes until ctx is cancelled. A message is committed only after
// the dispatcher accepts it; a failed message is retried after a pause.
func (s *KafkaSource) Run(ctx context.Context, d *Dispatcher) error {
	defer s.reader.Close()
	s.logger.Info("Kafka consumer started")

	for {
		m, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		var event models.EventPayload
		if err := json.Unmarshal(m.Value, &event); err != nil {
			s.logger.Error("invalid event payload", zap.Int64("offset", m.Offset), zap.Error(err))
		} else {
			for {
				err := d.Handle(ctx, event)
				if err == nil {
					break
				}
				s.logger.Warn("event handling failed, retrying",
					zap.String("event_type", event.EventType), zap.Error(err))
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(s.backoff):
				}
			}
		}

		if err := s.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("commit failed", zap.Error(err))
		}
	}
}
