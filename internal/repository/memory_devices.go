package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"iot-console/internal/domain"
)

// MemoryDevicesRepo holds the device collection when DB is disabled.
type MemoryDevicesRepo struct {
	mu      sync.RWMutex
	devices map[string]*domain.Device // deviceID -> Device
}

func NewMemoryDevicesRepo() *MemoryDevicesRepo {
	return &MemoryDevicesRepo{
		devices: map[string]*domain.Device{},
	}
}

var _ DevicesRepository = (*MemoryDevicesRepo)(nil)

func cloneDevice(d *domain.Device) *domain.Device {
	out := *d
	if d.Camera != nil {
		c := *d.Camera
		out.Camera = &c
	}
	if d.Microscope != nil {
		m := *d.Microscope
		out.Microscope = &m
	}
	if d.Sensor != nil {
		s := *d.Sensor
		if d.Sensor.MinValue != nil {
			v := *d.Sensor.MinValue
			s.MinValue = &v
		}
		if d.Sensor.MaxValue != nil {
			v := *d.Sensor.MaxValue
			s.MaxValue = &v
		}
		if d.Sensor.AlertThreshold != nil {
			v := *d.Sensor.AlertThreshold
			s.AlertThreshold = &v
		}
		if d.Sensor.BatteryLevel != nil {
			v := *d.Sensor.BatteryLevel
			s.BatteryLevel = &v
		}
		out.Sensor = &s
	}
	return &out
}

func matchFilters(d *domain.Device, filters DeviceFilters) bool {
	if len(filters.Status) > 0 {
		found := false
		for _, s := range filters.Status {
			if string(d.Status) == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filters.DeviceType != "" && string(d.Type) != filters.DeviceType {
		return false
	}
	if kw := strings.ToLower(strings.TrimSpace(filters.SearchKeyword)); kw != "" {
		if !strings.Contains(strings.ToLower(d.DeviceName), kw) &&
			!strings.Contains(strings.ToLower(d.Location), kw) {
			return false
		}
	}
	return true
}

func (r *MemoryDevicesRepo) ListDevices(_ context.Context, filters DeviceFilters, page, size int) ([]*domain.Device, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*domain.Device, 0, len(r.devices))
	for _, d := range r.devices {
		if !matchFilters(d, filters) {
			continue
		}
		all = append(all, cloneDevice(d))
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].DeviceName < all[j].DeviceName
	})

	total := len(all)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (r *MemoryDevicesRepo) GetDevice(_ context.Context, deviceID string) (*domain.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[deviceID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDevice(d), nil
}

func (r *MemoryDevicesRepo) CreateDevice(_ context.Context, device *domain.Device) (string, error) {
	if err := device.Validate(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	d := cloneDevice(device)
	if d.DeviceID == "" {
		d.DeviceID = uuid.NewString()
	} else if _, exists := r.devices[d.DeviceID]; exists {
		return "", ErrDuplicateID
	}
	if d.LastUpdated.IsZero() {
		d.LastUpdated = time.Now().UTC()
	}
	r.devices[d.DeviceID] = d
	return d.DeviceID, nil
}

func (r *MemoryDevicesRepo) UpdateDevice(_ context.Context, deviceID string, patch DevicePatch) (*domain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.devices[deviceID]
	if !ok {
		return nil, ErrNotFound
	}
	next := cloneDevice(cur)
	applyDevicePatch(next, patch)
	next.LastUpdated = time.Now().UTC()
	if err := next.Validate(); err != nil {
		return nil, err
	}
	r.devices[deviceID] = next
	return cloneDevice(next), nil
}

func applyDevicePatch(d *domain.Device, patch DevicePatch) {
	if patch.DeviceName != nil {
		d.DeviceName = *patch.DeviceName
	}
	if patch.Location != nil {
		d.Location = *patch.Location
	}
	if patch.Status != nil {
		d.Status = *patch.Status
	}
	switch d.Type {
	case domain.DeviceTypeCamera:
		if patch.Camera != nil {
			c := *patch.Camera
			d.Camera = &c
		}
	case domain.DeviceTypeMicroscope:
		if patch.Microscope != nil {
			m := *patch.Microscope
			d.Microscope = &m
		}
	case domain.DeviceTypeSensor:
		if patch.Sensor != nil {
			s := *patch.Sensor
			d.Sensor = &s
		}
	}
}

func (r *MemoryDevicesRepo) DeleteDevice(_ context.Context, deviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devices[deviceID]; !ok {
		return ErrNotFound
	}
	delete(r.devices, deviceID)
	return nil
}

func (r *MemoryDevicesRepo) SetDeviceStatus(_ context.Context, deviceID string, status domain.DeviceStatus) error {
	if !domain.ValidDeviceStatus(status) {
		return ErrInvalidStatus
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[deviceID]
	if !ok {
		return ErrNotFound
	}
	d.Status = status
	d.LastUpdated = time.Now().UTC()
	return nil
}

func (r *MemoryDevicesRepo) Stats(_ context.Context) (domain.DeviceStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return computeStats(r.devices), nil
}

// computeStats derives the counters from scratch; incremental counters
// would drift under mixed mutations.
func computeStats(devices map[string]*domain.Device) domain.DeviceStats {
	var stats domain.DeviceStats
	stats.Total = len(devices)
	for _, d := range devices {
		switch d.Status {
		case domain.DeviceStatusOnline:
			stats.Online++
		case domain.DeviceStatusOffline:
			stats.Offline++
		case domain.DeviceStatusMaintenance:
			stats.Maintenance++
		}
		switch d.Type {
		case domain.DeviceTypeCamera:
			stats.Cameras++
		case domain.DeviceTypeMicroscope:
			stats.Microscopes++
		case domain.DeviceTypeSensor:
			stats.Sensors++
		}
	}
	return stats
}
