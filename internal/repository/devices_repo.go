package repository

import (
	"context"
	"errors"

	"iot-console/internal/domain"
)

// ErrNotFound is returned when an id does not match any record.
// Update/delete of a missing id is an error, not a silent no-op, so
// callers can tell a bad id from a successful mutation.
var ErrNotFound = errors.New("not found")

// ErrDuplicateID is returned when a caller-supplied id collides.
var ErrDuplicateID = errors.New("duplicate id")

// ErrInvalidStatus is returned for a status outside online/offline/maintenance.
var ErrInvalidStatus = errors.New("invalid device status")

// DevicesRepository 设备Repository接口
// 使用强类型领域模型，不使用map[string]any
type DevicesRepository interface {
	ListDevices(ctx context.Context, filters DeviceFilters, page, size int) ([]*domain.Device, int, error)
	GetDevice(ctx context.Context, deviceID string) (*domain.Device, error)

	CreateDevice(ctx context.Context, device *domain.Device) (string, error)

	// UpdateDevice merges patch into the matching record and refreshes
	// last_updated. Returns ErrNotFound if deviceID does not exist.
	UpdateDevice(ctx context.Context, deviceID string, patch DevicePatch) (*domain.Device, error)

	DeleteDevice(ctx context.Context, deviceID string) error

	// SetDeviceStatus is the fast path used by the MQTT status listener.
	SetDeviceStatus(ctx context.Context, deviceID string, status domain.DeviceStatus) error

	// Stats recomputes the aggregate counters from the full collection.
	Stats(ctx context.Context) (domain.DeviceStats, error)
}

// DeviceFilters 设备查询过滤器
type DeviceFilters struct {
	Status        []string // online / offline / maintenance
	DeviceType    string   // camera / microscope / sensor
	SearchKeyword string   // matches device_name or location
}

// DevicePatch optional fields for a partial update (nil means keep).
// The device type itself is immutable; variant payloads are replaced whole.
type DevicePatch struct {
	DeviceName *string
	Location   *string
	Status     *domain.DeviceStatus
	Camera     *domain.CameraSpec
	Microscope *domain.MicroscopeSpec
	Sensor     *domain.SensorSpec
}
