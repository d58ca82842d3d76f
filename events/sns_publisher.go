package events

import (
	"context"

	"github.com/inkfinity/backend/models"
)

type snsClient interface {
	Publish(ctx context.Context, topicArn, eventType string, message []byte) error
}

// SNSPublisher fans events out through one SNS topic.
type SNSPublisher struct {
	client   snsClient
	topicArn string
}

func NewSNSPublisher(client snsClient, topicArn string) *SNSPublisher {
	return &SNSPublisher{client: client, topicArn: topicArn}
}

func (p *SNSPublisher) Publish(ctx context.Context, event models.EventPayload) error {
	body, err := encode(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.topicArn, event.EventType, body)
}

func (p *SNSPublisher) Close() error { return nil }
