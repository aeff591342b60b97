package dispatch

import (
	"context"
	"time"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/repository"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/subscription"
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/logger"
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/queue"
)

// Queue message types consumed by the secondary-channel jobs.
const (
	MsgChatDelivery  = "chat_delivery"
	MsgEmailDelivery = "email_delivery"
)

// Dispatcher fans gated events out to live connections and secondary
// channels. It owns no persistent data; it is purely a router.
type Dispatcher struct {
	registry *subscription.Registry
	hub      *Hub
	queue    queue.QueueService
	sink     repository.EventSink
	metrics  repository.Metrics
	logger   *logger.Logger
}

func NewDispatcher(registry *subscription.Registry, hub *Hub, q queue.QueueService, sink repository.EventSink, metrics repository.Metrics, lgr *logger.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		hub:      hub,
		queue:    q,
		sink:     sink,
		metrics:  metrics,
		logger:   lgr,
	}
}

// Dispatch routes the event to every subscriber of its ticker. Fire and
// forget: fan-out proceeds concurrently and never blocks the caller, nor
// is it cancelled when the triggering request finishes.
func (d *Dispatcher) Dispatch(_ context.Context, ev models.NotificationEvent) {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	go d.fanout(ev)
}

func (d *Dispatcher) fanout(ev models.NotificationEvent) {
	start := time.Now()
	defer func() {
		d.metrics.RecordLatency("dispatch", time.Since(start).Seconds())
	}()

	d.metrics.RecordEvent(string(ev.Kind), ev.Ticker)
	d.mirror(ev)

	for _, sub := range d.registry.SubscribersFor(ev.Ticker) {
		for _, ch := range sub.Channels.Slice() {
			if !ev.Kind.AppliesTo(ch) {
				continue
			}
			switch ch {
			case models.ChannelStream:
				d.deliverStream(sub.UserID, ev)
			case models.ChannelChat:
				d.deliverQueued(MsgChatDelivery, models.ChannelChat, sub.UserID, ev)
			case models.ChannelEmail:
				d.deliverQueued(MsgEmailDelivery, models.ChannelEmail, sub.UserID, ev)
			}
		}
	}
}

// deliverStream enqueues onto every open connection of the user. Zero open
// connections means the event is dropped for that user, silently.
func (d *Dispatcher) deliverStream(userID string, ev models.NotificationEvent) {
	conns := d.hub.ConnectionsFor(userID)
	if len(conns) == 0 {
		d.metrics.RecordDelivery(string(models.ChannelStream), "no_connection")
		return
	}
	for _, c := range conns {
		if c.enqueue(ev) {
			d.metrics.RecordDelivery(string(models.ChannelStream), "ok")
		} else {
			d.metrics.RecordDelivery(string(models.ChannelStream), "dropped")
		}
	}
}

// deliverQueued hands the event to the delivery queue. The job layer owns
// the single retry; enqueue failures are logged, never propagated.
func (d *Dispatcher) deliverQueued(msgType string, ch models.Channel, userID string, ev models.NotificationEvent) {
	payload := DeliveryPayload{UserID: userID, Event: ev}
	if err := d.queue.PublishMessage(context.Background(), msgType, payload); err != nil {
		d.logger.Error("delivery enqueue failed",
			logger.String("channel", string(ch)),
			logger.String("user_id", userID),
			logger.Error(err))
		d.metrics.RecordDelivery(string(ch), "enqueue_failed")
		return
	}
	d.metrics.RecordDelivery(string(ch), "enqueued")
}

// mirror publishes the event to the out-of-process sink. At-most-once;
// failures are logged only.
func (d *Dispatcher) mirror(ev models.NotificationEvent) {
	if d.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.sink.Publish(ctx, ev); err != nil {
		d.logger.Warn("event mirror failed",
			logger.String("kind", string(ev.Kind)),
			logger.Error(err))
		d.metrics.RecordError("event_mirror")
	}
}
