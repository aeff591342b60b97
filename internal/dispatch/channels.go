package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
	pkghttp "github.com/abhishek-jha-24/earnings-copilot-hft/pkg/http"
)

// DeliveryPayload is the unit queued for a secondary-channel delivery.
type DeliveryPayload struct {
	UserID string                   `json:"user_id"`
	Event  models.NotificationEvent `json:"event"`
}

// ChatWebhook posts events to a chat webhook URL.
type ChatWebhook struct {
	client *pkghttp.Client
	url    string
}

func NewChatWebhook(url string, timeout time.Duration) *ChatWebhook {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ChatWebhook{
		client: pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
		url:    url,
	}
}

// Send posts the delivery to the webhook. A missing URL means the channel
// is disabled; the delivery is acknowledged without sending.
func (w *ChatWebhook) Send(ctx context.Context, p DeliveryPayload) error {
	if w.url == "" {
		return nil
	}
	err := w.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    w.url,
		Body: map[string]interface{}{
			"user_id": p.UserID,
			"kind":    p.Event.Kind,
			"ticker":  p.Event.Ticker,
			"payload": p.Event.Payload,
			"sent_at": p.Event.CreatedAt,
		},
	}, nil)
	if err != nil {
		return &models.ChannelDeliveryError{
			Channel:   models.ChannelChat,
			UserID:    p.UserID,
			Transient: true,
			Err:       err,
		}
	}
	return nil
}

// EmailSender forwards events to an email relay endpoint.
type EmailSender struct {
	client   *pkghttp.Client
	endpoint string
	from     string
}

func NewEmailSender(endpoint, from string, timeout time.Duration) *EmailSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &EmailSender{
		client:   pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
		endpoint: endpoint,
		from:     from,
	}
}

// Send relays the delivery as an email request. Disabled when no endpoint
// is configured.
func (s *EmailSender) Send(ctx context.Context, p DeliveryPayload) error {
	if s.endpoint == "" {
		return nil
	}
	subject := fmt.Sprintf("[%s] %s", p.Event.Ticker, p.Event.Kind)
	err := s.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    s.endpoint,
		Body: map[string]interface{}{
			"from":    s.from,
			"to":      p.UserID,
			"subject": subject,
			"body":    p.Event.Payload,
		},
	}, nil)
	if err != nil {
		return &models.ChannelDeliveryError{
			Channel:   models.ChannelEmail,
			UserID:    p.UserID,
			Transient: true,
			Err:       err,
		}
	}
	return nil
}
