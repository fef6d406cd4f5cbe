package mqtt

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"iot-console/internal/domain"
	"iot-console/internal/repository"
)

type fakeCameraNotifier struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeCameraNotifier) CameraEvent(_ context.Context, deviceID string, status domain.DeviceStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, deviceID+":"+string(status))
}

func seedDevices(t *testing.T) (repository.DevicesRepository, string, string) {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewMemoryDevicesRepo()

	camID, err := repo.CreateDevice(ctx, &domain.Device{
		DeviceName: "Front Door Camera",
		Type:       domain.DeviceTypeCamera,
		Status:     domain.DeviceStatusOnline,
		Camera:     &domain.CameraSpec{IPAddress: "192.168.1.100"},
	})
	if err != nil {
		t.Fatalf("seed camera: %v", err)
	}
	senID, err := repo.CreateDevice(ctx, &domain.Device{
		DeviceName: "Office Temperature Sensor",
		Type:       domain.DeviceTypeSensor,
		Status:     domain.DeviceStatusOnline,
		Sensor:     &domain.SensorSpec{SensorType: domain.SensorTypeTemperature, MeasurementUnit: "°C"},
	})
	if err != nil {
		t.Fatalf("seed sensor: %v", err)
	}
	return repo, camID, senID
}

func TestHeartbeatUpdatesStatus(t *testing.T) {
	repo, camID, _ := seedDevices(t)
	notifier := &fakeCameraNotifier{}
	l := NewStatusListener(repo, notifier, zap.NewNop())

	payload := []byte(`{"device_id":"` + camID + `","status":"offline"}`)
	if err := l.HandleMessage("iot-console/status", payload); err != nil {
		t.Fatalf("handle: %v", err)
	}

	d, err := repo.GetDevice(context.Background(), camID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d.Status != domain.DeviceStatusOffline {
		t.Fatalf("status not applied: %s", d.Status)
	}
	if len(notifier.events) != 1 || notifier.events[0] != camID+":offline" {
		t.Fatalf("camera event not fired: %v", notifier.events)
	}
}

func TestHeartbeatNonCameraSkipsNotifier(t *testing.T) {
	repo, _, senID := seedDevices(t)
	notifier := &fakeCameraNotifier{}
	l := NewStatusListener(repo, notifier, zap.NewNop())

	payload := []byte(`{"device_id":"` + senID + `","status":"maintenance"}`)
	if err := l.HandleMessage("iot-console/status", payload); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("sensor heartbeat must not fire camera events: %v", notifier.events)
	}
}

func TestHeartbeatUnknownDeviceDropped(t *testing.T) {
	repo, _, _ := seedDevices(t)
	l := NewStatusListener(repo, nil, zap.NewNop())

	// unknown ids are logged and dropped, never create records
	if err := l.HandleMessage("iot-console/status", []byte(`{"device_id":"ghost","status":"online"}`)); err != nil {
		t.Fatalf("unknown device must not error: %v", err)
	}
	if _, err := repo.GetDevice(context.Background(), "ghost"); err != repository.ErrNotFound {
		t.Fatalf("ghost record created: %v", err)
	}
}

func TestHeartbeatRejectsBadPayloads(t *testing.T) {
	repo, camID, _ := seedDevices(t)
	l := NewStatusListener(repo, nil, zap.NewNop())

	if err := l.HandleMessage("t", []byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed payload")
	}
	if err := l.HandleMessage("t", []byte(`{"status":"online"}`)); err == nil {
		t.Fatal("expected error for missing device_id")
	}
	if err := l.HandleMessage("t", []byte(`{"device_id":"`+camID+`","status":"sleeping"}`)); err == nil {
		t.Fatal("expected error for invalid status")
	}

	// the camera must be untouched by the rejected heartbeats
	d, _ := repo.GetDevice(context.Background(), camID)
	if d.Status != domain.DeviceStatusOnline {
		t.Fatalf("status mutated by bad payload: %s", d.Status)
	}
}
