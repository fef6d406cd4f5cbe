package notify

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"iot-console/internal/domain"
)

// PrefsFunc returns the active profile's notification toggles. All-off
// (no active session) silences every event.
type PrefsFunc func(ctx context.Context) domain.NotificationSettings

// Event is the webhook payload.
type Event struct {
	Type      string         `json:"type"` // user_registered / tenant_registered / camera_event
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// WebhookNotifier posts console events to a configured endpoint.
// Delivery is best-effort: failures are logged, never propagated, so a
// slow or dead webhook cannot block a mutation.
type WebhookNotifier struct {
	httpClient *resty.Client
	url        string
	prefs      PrefsFunc
	logger     *zap.Logger
}

// NewWebhookNotifier 创建 Webhook 通知客户端
func NewWebhookNotifier(url string, prefs PrefsFunc, logger *zap.Logger) *WebhookNotifier {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &WebhookNotifier{
		httpClient: client,
		url:        url,
		prefs:      prefs,
		logger:     logger,
	}
}

func (n *WebhookNotifier) UserRegistered(ctx context.Context, user *domain.User) {
	if n == nil || n.url == "" {
		return
	}
	if !n.prefs(ctx).UserRegistered {
		return
	}
	n.post(ctx, Event{
		Type:      "user_registered",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data: map[string]any{
			"user_id": user.UserID,
			"name":    user.Name,
			"email":   user.Email,
		},
	})
}

func (n *WebhookNotifier) TenantRegistered(ctx context.Context, tenant *domain.Tenant) {
	if n == nil || n.url == "" {
		return
	}
	if !n.prefs(ctx).TenantRegistered {
		return
	}
	n.post(ctx, Event{
		Type:      "tenant_registered",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data: map[string]any{
			"tenant_id": tenant.TenantID,
			"name":      tenant.Name,
		},
	})
}

// CameraEvent fires when a camera changes status (MQTT heartbeat path).
func (n *WebhookNotifier) CameraEvent(ctx context.Context, deviceID string, status domain.DeviceStatus) {
	if n == nil || n.url == "" {
		return
	}
	if !n.prefs(ctx).CameraEvents {
		return
	}
	n.post(ctx, Event{
		Type:      "camera_event",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data: map[string]any{
			"device_id": deviceID,
			"status":    string(status),
		},
	})
}

func (n *WebhookNotifier) post(ctx context.Context, event Event) {
	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetBody(event).
		Post(n.url)
	if err != nil {
		n.logger.Warn("webhook delivery failed",
			zap.String("type", event.Type), zap.Error(err))
		return
	}
	if resp.IsError() {
		n.logger.Warn("webhook rejected event",
			zap.String("type", event.Type), zap.Int("status", resp.StatusCode()))
		return
	}
	n.logger.Debug("webhook delivered", zap.String("type", event.Type))
}
