package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// WebhookEmitter posts events to an external notification service.
type WebhookEmitter struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewWebhookEmitter(baseURL string, logger *zap.Logger) *WebhookEmitter {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &WebhookEmitter{httpClient: client, logger: logger}
}

var _ Emitter = (*WebhookEmitter)(nil)

func (e *WebhookEmitter) Emit(ctx context.Context, ev Event) error {
	resp, err := e.httpClient.R().
		SetContext(ctx).
		SetBody(ev).
		Post("/events")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("notification service returned %d", resp.StatusCode())
	}
	e.logger.Debug("event delivered",
		zap.String("kind", ev.Kind),
		zap.Int("status", resp.StatusCode()))
	return nil
}
