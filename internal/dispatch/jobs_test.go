package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
)

type fakeSender struct {
	calls int
	err   error
}

func (s *fakeSender) Send(_ context.Context, _ DeliveryPayload) error {
	s.calls++
	return s.err
}

func TestDeliveryJobSuccess(t *testing.T) {
	sender := &fakeSender{}
	metrics := &recordingMetrics{}
	job := NewChatDeliveryJob(sender, metrics, testLogger(t))

	assert.Equal(t, MsgChatDelivery, job.Type())

	err := job.Handle(context.Background(), DeliveryPayload{
		UserID: "u1",
		Event:  signalEvent("AAPL"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sender.calls)
	assert.Contains(t, metrics.deliveries, "chat/delivered")
}

func TestDeliveryJobPropagatesFailureForRetry(t *testing.T) {
	sender := &fakeSender{err: errors.New("webhook 503")}
	metrics := &recordingMetrics{}
	job := NewEmailDeliveryJob(sender, metrics, testLogger(t))

	err := job.Handle(context.Background(), DeliveryPayload{UserID: "u1"})
	require.Error(t, err)
	assert.Contains(t, metrics.deliveries, "email/failed")
}

func TestDeliveryJobParsesQueuedJSON(t *testing.T) {
	sender := &fakeSender{}
	metrics := &recordingMetrics{}
	job := NewChatDeliveryJob(sender, metrics, testLogger(t))

	// The redis queue hands payloads back as raw JSON.
	raw, err := json.Marshal(DeliveryPayload{UserID: "u1", Event: signalEvent("AAPL")})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), json.RawMessage(raw)))
	assert.Equal(t, 1, sender.calls)
}

func TestDeliveryJobInvalidPayloadNotRetried(t *testing.T) {
	sender := &fakeSender{}
	metrics := &recordingMetrics{}
	job := NewChatDeliveryJob(sender, metrics, testLogger(t))

	err := job.Handle(context.Background(), 42)
	assert.NoError(t, err, "garbage payloads are dropped, not retried")
	assert.Zero(t, sender.calls)
}

func TestDisabledChannelsAcknowledgeWithoutSending(t *testing.T) {
	chat := NewChatWebhook("", 0)
	assert.NoError(t, chat.Send(context.Background(), DeliveryPayload{UserID: "u1"}))

	email := NewEmailSender("", "alerts@copilot.local", 0)
	assert.NoError(t, email.Send(context.Background(), DeliveryPayload{UserID: "u1"}))
}

func TestChannelDeliveryErrorWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := &models.ChannelDeliveryError{
		Channel:   models.ChannelChat,
		UserID:    "u1",
		Transient: true,
		Err:       cause,
	}
	assert.ErrorIs(t, err, cause)
}
