// Package notifier implements the fire-and-forget notification port as a
// bounded work queue drained by a single worker. Failures anywhere in the
// pipeline are logged and dropped; they never reach the caller's
// transaction outcome.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/corebank/transactor/internal/domain"
	"github.com/corebank/transactor/internal/infrastructure/metrics"
)

// Notifier posts notifications to the notification service.
type Notifier struct {
	endpoint   string
	httpClient *http.Client
	queue      chan domain.Notification
	logger     zerolog.Logger
}

// Config holds Notifier settings.
type Config struct {
	Endpoint  string
	QueueSize int
	Timeout   time.Duration
}

// New creates a Notifier. Start must be called to drain the queue.
func New(cfg Config, logger zerolog.Logger) *Notifier {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	return &Notifier{
		endpoint:   cfg.Endpoint,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		queue:      make(chan domain.Notification, cfg.QueueSize),
		logger:     logger,
	}
}

// Notify enqueues a notification. A full queue drops the notification
// and reports ErrNotificationQueueFull for the caller to log.
func (n *Notifier) Notify(ctx context.Context, notification domain.Notification) error {
	select {
	case n.queue <- notification:
		return nil
	default:
		metrics.NotificationsDropped.Inc()
		return domain.ErrNotificationQueueFull
	}
}

// Start drains the queue until ctx is cancelled.
func (n *Notifier) Start(ctx context.Context) error {
	n.logger.Info().
		Str("endpoint", n.endpoint).
		Int("queue_size", cap(n.queue)).
		Msg("notification worker started")

	for {
		select {
		case <-ctx.Done():
			n.logger.Info().Msg("notification worker shutting down")
			return ctx.Err()
		case notification := <-n.queue:
			n.send(notification)
		}
	}
}

type notificationPayload struct {
	CustomerID string                  `json:"customer_id"`
	Title      string                  `json:"title"`
	Message    string                  `json:"message"`
	Type       domain.NotificationType `json:"type"`
}

func (n *Notifier) send(notification domain.Notification) {
	body, err := json.Marshal(notificationPayload{
		CustomerID: notification.CustomerID,
		Title:      notification.Title,
		Message:    notification.Message,
		Type:       notification.Type,
	})
	if err != nil {
		n.logger.Error().Err(err).Msg("failed to encode notification")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.httpClient.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint+"/api/v1/notifications", bytes.NewReader(body))
	if err != nil {
		n.logger.Error().Err(err).Msg("failed to build notification request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Warn().
			Err(err).
			Str("customer_id", notification.CustomerID).
			Str("title", notification.Title).
			Msg("notification delivery failed")
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Warn().
			Int("status", resp.StatusCode).
			Str("customer_id", notification.CustomerID).
			Str("title", notification.Title).
			Msg("notification service rejected notification")
		return
	}

	metrics.NotificationsSent.Inc()
}
