package dispatch

import (
	"context"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/repository"
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/logger"
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/queue"
)

// ChannelSender delivers one payload over one secondary channel.
type ChannelSender interface {
	Send(ctx context.Context, p DeliveryPayload) error
}

// deliveryJob adapts a ChannelSender to the queue's job interface. The
// queue retries once on failure; beyond that the delivery is abandoned.
type deliveryJob struct {
	name    string
	msgType string
	channel models.Channel
	sender  ChannelSender
	metrics repository.Metrics
	logger  *logger.Logger
}

// NewChatDeliveryJob builds the chat webhook delivery job.
func NewChatDeliveryJob(sender ChannelSender, metrics repository.Metrics, lgr *logger.Logger) queue.Job {
	return &deliveryJob{
		name:    "chat_delivery_job",
		msgType: MsgChatDelivery,
		channel: models.ChannelChat,
		sender:  sender,
		metrics: metrics,
		logger:  lgr,
	}
}

// NewEmailDeliveryJob builds the email relay delivery job.
func NewEmailDeliveryJob(sender ChannelSender, metrics repository.Metrics, lgr *logger.Logger) queue.Job {
	return &deliveryJob{
		name:    "email_delivery_job",
		msgType: MsgEmailDelivery,
		channel: models.ChannelEmail,
		sender:  sender,
		metrics: metrics,
		logger:  lgr,
	}
}

func (j *deliveryJob) Name() string { return j.name }
func (j *deliveryJob) Type() string { return j.msgType }

func (j *deliveryJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[DeliveryPayload](payload)
	if err != nil {
		j.logger.Error("invalid delivery payload",
			logger.String("job", j.name),
			logger.Error(err))
		j.metrics.RecordDelivery(string(j.channel), "invalid_payload")
		return nil // not retryable
	}

	if err := j.sender.Send(ctx, *p); err != nil {
		j.metrics.RecordDelivery(string(j.channel), "failed")
		return err
	}
	j.metrics.RecordDelivery(string(j.channel), "delivered")
	return nil
}
