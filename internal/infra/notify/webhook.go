// Package notify delivers acquisition events to external sinks.
package notify

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"capacity-manager/internal/domain"
)

// WebhookConfig holds configuration for the webhook sink.
type WebhookConfig struct {
	URL         string
	Timeout     time.Duration
	MaxAttempts int
	WaitTime    time.Duration
	MaxWaitTime time.Duration
}

// Webhook implements domain.Notifier by POSTing events to a configured URL.
// Delivery is best-effort: failures are logged and swallowed so that a dead
// sink can never block or fail an acquisition.
type Webhook struct {
	client *resty.Client
	url    string
	logger *zap.Logger
}

// NewWebhook creates a webhook notifier.
func NewWebhook(cfg WebhookConfig, logger *zap.Logger) *Webhook {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxAttempts).
		SetRetryWaitTime(cfg.WaitTime).
		SetRetryMaxWaitTime(cfg.MaxWaitTime).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}

			return r.StatusCode() >= 500
		})

	return &Webhook{
		client: client,
		url:    cfg.URL,
		logger: logger,
	}
}

// AcquisitionCompleted posts the event as JSON.
func (w *Webhook) AcquisitionCompleted(ctx context.Context, event domain.AcquisitionEvent) {
	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(event).
		Post(w.url)
	if err != nil {
		w.logger.Warn("acquisition event delivery failed",
			zap.String("url", w.url),
			zap.String("result", string(event.Result)),
			zap.Error(err),
		)

		return
	}

	if resp.IsError() {
		w.logger.Warn("acquisition event rejected by sink",
			zap.String("url", w.url),
			zap.String("result", string(event.Result)),
			zap.Int("status", resp.StatusCode()),
		)

		return
	}

	w.logger.Debug("acquisition event delivered",
		zap.String("result", string(event.Result)),
		zap.String("reservation_id", event.ReservationID),
	)
}

// Noop implements domain.Notifier and discards all events. Used when no
// webhook is configured.
type Noop struct{}

// NewNoop creates a notifier that does nothing.
func NewNoop() *Noop {
	return &Noop{}
}

// AcquisitionCompleted discards the event.
func (*Noop) AcquisitionCompleted(context.Context, domain.AcquisitionEvent) {}
