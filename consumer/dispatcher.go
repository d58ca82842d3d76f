// Package consumer turns published events into owner notifications.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/inkfinity/backend/models"
	awspkg "github.com/inkfinity/backend/pkg/aws"
	"github.com/inkfinity/backend/sender"
	"go.uber.org/zap"
)

// Dispatcher notifies the company about new inquiries. Other event types
// are acknowledged and ignored.
type Dispatcher struct {
	email   sender.EmailSender
	sms     sender.SMSSender
	emailTo string
	smsTo   string
	metrics *awspkg.MetricsClient
	logger  *zap.Logger
}

type DispatcherConfig struct {
	Email   sender.EmailSender
	SMS     sender.SMSSender // optional
	EmailTo string
	SMSTo   string
	Metrics *awspkg.MetricsClient
	Logger  *zap.Logger
}

func NewDispatcher(cfg DispatcherConfig) (*Dispatcher, error) {
	if cfg.Email == nil {
		return nil, fmt.Errorf("email sender is required")
	}
	if cfg.EmailTo == "" {
		return nil, fmt.Errorf("notification e-mail address is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		email:   cfg.Email,
		sms:     cfg.SMS,
		emailTo: cfg.EmailTo,
		smsTo:   cfg.SMSTo,
		metrics: cfg.Metrics,
		logger:  logger,
	}, nil
}

// Handle processes one event. A returned error means the event should be
// redelivered.
func (d *Dispatcher) Handle(ctx context.Context, event models.EventPayload) error {
	switch event.EventType {
	case models.EventInquiryCreated:
		return d.inquiryCreated(ctx, event)
	default:
		d.logger.Debug("ignoring event", zap.String("event_type", event.EventType))
		return nil
	}
}

func (d *Dispatcher) inquiryCreated(ctx context.Context, event models.EventPayload) error {
	field := func(k string) string {
		if v, ok := event.Data[k].(string); ok {
			return v
		}
		return ""
	}
	name := field("name")

	subject := "New inquiry from " + name
	if _, err := d.email.SendEmail(ctx, d.emailTo, subject, inquiryBody(field)); err != nil {
		d.recordFailure(ctx, "email")
		return fmt.Errorf("send inquiry e-mail: %w", err)
	}

	// SMS is best effort; the e-mail already went out and a retry would
	// send it twice.
	if d.sms != nil && d.smsTo != "" {
		msg := fmt.Sprintf("New inquiry from %s (%s)", name, field("email"))
		if _, err := d.sms.SendSMS(ctx, d.smsTo, msg); err != nil {
			d.recordFailure(ctx, "sms")
			d.logger.Warn("inquiry SMS failed", zap.Error(err))
		}
	}

	d.logger.Info("inquiry notification sent", zap.String("inquiry_id", field("id")))
	return nil
}

func (d *Dispatcher) recordFailure(ctx context.Context, channel string) {
	_ = d.metrics.RecordCount(ctx, awspkg.MetricNotificationErr, map[string]string{"Channel": channel})
}

func inquiryBody(field func(string) string) string {
	rows := []struct{ label, key string }{
		{"Name", "name"},
		{"Email", "email"},
		{"Phone", "phone"},
		{"Company", "company"},
		{"Product interest", "product_interest"},
	}
	var b strings.Builder
	b.WriteString("<h2>New contact inquiry</h2><table>")
	for _, r := range rows {
		if v := field(r.key); v != "" {
			fmt.Fprintf(&b, "<tr><th align=\"left\">%s</th><td>%s</td></tr>", r.label, html.EscapeString(v))
		}
	}
	b.WriteString("</table><p>")
	b.WriteString(strings.ReplaceAll(html.EscapeString(field("message")), "\n", "<br>"))
	b.WriteString("</p>")
	return b.String()
}

// snsEnvelope unwraps the SNS → SQS message wrapper
type snsEnvelope struct {
	Type    string `json:"Type"`
	Message string `json:"Message"`
}

// SQSHandler adapts d to SQS bodies that may or may not carry an SNS
// envelope. Unparseable bodies are logged and acknowledged so they do not
// loop forever.
func SQSHandler(d *Dispatcher) awspkg.MessageHandler {
	return func(ctx context.Context, body string) error {
		raw := []byte(body)
		var envelope snsEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			d.logger.Error("failed to unmarshal SQS body", zap.Error(err))
			return nil
		}
		if envelope.Type == "Notification" || envelope.Message != "" {
			raw = []byte(envelope.Message)
		}

		var payload models.EventPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			d.logger.Error("failed to unmarshal event payload", zap.Error(err))
			return nil
		}
		if err := d.Handle(ctx, payload); err != nil {
			d.logger.Error("failed to process event",
				zap.String("event_type", payload.EventType),
				zap.Error(err),
			)
			return err
		}
		_ = d.metrics.RecordCount(ctx, awspkg.MetricSQSMessages, map[string]string{"EventType": payload.EventType})
		return nil
	}
}
