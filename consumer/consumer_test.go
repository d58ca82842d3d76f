package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/inkfinity/backend/models"
	"github.com/inkfinity/backend/sender"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type mockEmail struct{ mock.Mock }

func (m *mockEmail) SendEmail(ctx context.Context, to, subject, body string) (sender.SendResult, error) {
	args := m.Called(ctx, to, subject, body)
	return sender.SendResult{}, args.Error(0)
}

type mockSMS struct{ mock.Mock }

func (m *mockSMS) SendSMS(ctx context.Context, to, msg string) (sender.SendResult, error) {
	args := m.Called(ctx, to, msg)
	return sender.SendResult{}, args.Error(0)
}

func inquiryEvent() models.EventPayload {
	return models.EventPayload{
		EventType: models.EventInquiryCreated,
		Data: map[string]interface{}{
			"id":      "b1",
			"name":    "Ada <Lovelace>",
			"email":   "ada@example.com",
			"message": "200 hoodies\nby May",
		},
	}
}

func newDispatcher(t *testing.T, email *mockEmail, sms *mockSMS) *Dispatcher {
	t.Helper()
	cfg := DispatcherConfig{Email: email, EmailTo: "owner@example.com", SMSTo: "+15550002", Logger: zap.NewNop()}
	if sms != nil {
		cfg.SMS = sms
	}
	d, err := NewDispatcher(cfg)
	require.NoError(t, err)
	return d
}

func TestDispatcher_InquiryCreated(t *testing.T) {
	email, sms := &mockEmail{}, &mockSMS{}
	email.On("SendEmail", mock.Anything, "owner@example.com", "New inquiry from Ada <Lovelace>",
		mock.MatchedBy(func(body string) bool {
			return !strings.Contains(body, "<Lovelace>") &&
				strings.Contains(body, "Ada &lt;Lovelace&gt;") &&
				strings.Contains(body, "200 hoodies<br>by May")
		})).Return(nil)
	sms.On("SendSMS", mock.Anything, "+15550002", "New inquiry from Ada <Lovelace> (ada@example.com)").Return(nil)

	d := newDispatcher(t, email, sms)
	require.NoError(t, d.Handle(context.Background(), inquiryEvent()))

	email.AssertExpectations(t)
	sms.AssertExpectations(t)
}

func TestDispatcher_EmailFailureIsRetryable(t *testing.T) {
	email := &mockEmail{}
	email.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	d := newDispatcher(t, email, nil)
	assert.ErrorContains(t, d.Handle(context.Background(), inquiryEvent()), "smtp down")
}

func TestDispatcher_SMSFailureIsNotRetried(t *testing.T) {
	email, sms := &mockEmail{}, &mockSMS{}
	email.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	sms.On("SendSMS", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("twilio 400"))

	d := newDispatcher(t, email, sms)
	assert.NoError(t, d.Handle(context.Background(), inquiryEvent()))
}

func TestDispatcher_IgnoresOtherEvents(t *testing.T) {
	email := &mockEmail{}
	d := newDispatcher(t, email, nil)
	require.NoError(t, d.Handle(context.Background(), models.EventPayload{EventType: models.EventTrendingSaved}))
	email.AssertNotCalled(t, "SendEmail")
}

func TestSQSHandler_UnwrapsSNSEnvelope(t *testing.T) {
	email := &mockEmail{}
	email.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	handler := SQSHandler(newDispatcher(t, email, nil))

	inner, err := json.Marshal(inquiryEvent())
	require.NoError(t, err)
	outer, err := json.Marshal(map[string]string{"Type": "Notification", "Message": string(inner)})
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), string(outer)))
	require.NoError(t, handler(context.Background(), string(inner)))
	email.AssertNumberOfCalls(t, "SendEmail", 2)
}

func TestSQSHandler_PoisonMessageAcknowledged(t *testing.T) {
	handler := SQSHandler(newDispatcher(t, &mockEmail{}, nil))
	assert.NoError(t, handler(context.Background(), "not json"))
	assert.NoError(t, handler(context.Background(), `{"Message":"also not json"}`))
}

type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.msgs) > 0 {
		m := f.msgs[0]
		f.msgs = f.msgs[1:]
		f.mu.Unlock()
		return m, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

func TestKafkaSource_CommitsAfterHandling(t *testing.T) {
	email := &mockEmail{}
	email.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("busy")).Once()
	email.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	body, err := json.Marshal(inquiryEvent())
	require.NoError(t, err)
	reader := &fakeReader{msgs: []kafka.Message{
		{Offset: 1, Value: []byte("garbage")},
		{Offset: 2, Value: body},
	}}
	src := &KafkaSource{reader: reader, logger: zap.NewNop(), backoff: time.Millisecond}

	d := newDispatcher(t, email, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, d) }()

	assert.Eventually(t, func() bool {
		reader.mu.Lock()
		defer reader.mu.Unlock()
		return len(reader.committed) == 2
	}, time.Second, 5*time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.True(t, reader.closed)
	assert.Equal(t, []int64{1, 2}, reader.committed)
	email.AssertNumberOfCalls(t, "SendEmail", 2)
}
