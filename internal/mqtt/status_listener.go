package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"iot-console/internal/domain"
	"iot-console/internal/repository"
)

// CameraEventNotifier fires the camera-events webhook toggle.
type CameraEventNotifier interface {
	CameraEvent(ctx context.Context, deviceID string, status domain.DeviceStatus)
}

// StatusMessage device heartbeat payload:
// {"device_id": "...", "status": "online"}
type StatusMessage struct {
	DeviceID string `json:"device_id"`
	Status   string `json:"status"`
}

// StatusListener applies device status heartbeats to the device collection.
type StatusListener struct {
	devices  repository.DevicesRepository
	notifier CameraEventNotifier
	logger   *zap.Logger
}

// NewStatusListener 创建设备状态监听器
func NewStatusListener(devices repository.DevicesRepository, notifier CameraEventNotifier, logger *zap.Logger) *StatusListener {
	return &StatusListener{devices: devices, notifier: notifier, logger: logger}
}

// HandleMessage processes one heartbeat. Unknown devices are logged and
// dropped; a broker replaying stale ids must not create records.
func (l *StatusListener) HandleMessage(topic string, payload []byte) error {
	var msg StatusMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal status message: %w", err)
	}
	if msg.DeviceID == "" {
		return fmt.Errorf("status message missing device_id")
	}
	status := domain.DeviceStatus(msg.Status)
	if !domain.ValidDeviceStatus(status) {
		return fmt.Errorf("invalid status %q for device %s", msg.Status, msg.DeviceID)
	}

	ctx := context.Background()
	device, err := l.devices.GetDevice(ctx, msg.DeviceID)
	if err != nil {
		if err == repository.ErrNotFound {
			l.logger.Warn("heartbeat for unknown device",
				zap.String("topic", topic), zap.String("device_id", msg.DeviceID))
			return nil
		}
		return err
	}

	if err := l.devices.SetDeviceStatus(ctx, msg.DeviceID, status); err != nil {
		return fmt.Errorf("failed to apply device status: %w", err)
	}
	l.logger.Info("device status updated via MQTT",
		zap.String("device_id", msg.DeviceID), zap.String("status", msg.Status))

	if device.Type == domain.DeviceTypeCamera && l.notifier != nil {
		l.notifier.CameraEvent(ctx, msg.DeviceID, status)
	}
	return nil
}
