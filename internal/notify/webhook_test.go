package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"go.uber.org/zap"

	"iot-console/internal/domain"
)

type capture struct {
	mu     sync.Mutex
	events []Event
}

func (c *capture) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		c.mu.Lock()
		c.events = append(c.events, ev)
		c.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}
}

func (c *capture) list() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event{}, c.events...)
}

func allOn(context.Context) domain.NotificationSettings {
	return domain.NotificationSettings{UserRegistered: true, TenantRegistered: true, CameraEvents: true}
}

func allOff(context.Context) domain.NotificationSettings {
	return domain.NotificationSettings{}
}

func TestWebhookDeliversEvents(t *testing.T) {
	var c capture
	srv := httptest.NewServer(c.handler())
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, allOn, zap.NewNop())
	ctx := context.Background()

	n.UserRegistered(ctx, &domain.User{UserID: "u1", Name: "John Doe", Email: "john@example.com"})
	n.TenantRegistered(ctx, &domain.Tenant{TenantID: "t1", Name: "Acme Corp"})
	n.CameraEvent(ctx, "d1", domain.DeviceStatusOffline)

	events := c.list()
	if len(events) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(events))
	}
	if events[0].Type != "user_registered" || events[0].Data["name"] != "John Doe" {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[2].Type != "camera_event" || events[2].Data["status"] != "offline" {
		t.Fatalf("unexpected camera event: %+v", events[2])
	}
}

func TestWebhookRespectsToggles(t *testing.T) {
	var c capture
	srv := httptest.NewServer(c.handler())
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, allOff, zap.NewNop())
	ctx := context.Background()

	n.UserRegistered(ctx, &domain.User{UserID: "u1", Name: "John Doe", Email: "john@example.com"})
	n.TenantRegistered(ctx, &domain.Tenant{TenantID: "t1", Name: "Acme Corp"})
	n.CameraEvent(ctx, "d1", domain.DeviceStatusOnline)

	if got := c.list(); len(got) != 0 {
		t.Fatalf("toggles off: expected no deliveries, got %d", len(got))
	}
}

func TestWebhookDisabledWithoutURL(t *testing.T) {
	n := NewWebhookNotifier("", allOn, zap.NewNop())
	// must not panic or block
	n.UserRegistered(context.Background(), &domain.User{UserID: "u1", Name: "John Doe"})
}
