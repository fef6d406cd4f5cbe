package domain

import (
	"fmt"
	"net"
	"time"
)

// DeviceType discriminates the device variants.
type DeviceType string

const (
	DeviceTypeCamera     DeviceType = "camera"
	DeviceTypeMicroscope DeviceType = "microscope"
	DeviceTypeSensor     DeviceType = "sensor"
)

// DeviceStatus device lifecycle status
type DeviceStatus string

const (
	DeviceStatusOnline      DeviceStatus = "online"
	DeviceStatusOffline     DeviceStatus = "offline"
	DeviceStatusMaintenance DeviceStatus = "maintenance"
)

// Device is a managed IoT endpoint. Exactly one variant payload
// (Camera/Microscope/Sensor) must be set and it must match Type.
type Device struct {
	DeviceID    string       `json:"device_id" db:"device_id"`
	DeviceName  string       `json:"device_name" db:"device_name"`
	Location    string       `json:"location" db:"location"`
	Type        DeviceType   `json:"type" db:"device_type"`
	Status      DeviceStatus `json:"status" db:"status"`
	LastUpdated time.Time    `json:"last_updated" db:"last_updated"`

	Camera     *CameraSpec     `json:"camera,omitempty"`
	Microscope *MicroscopeSpec `json:"microscope,omitempty"`
	Sensor     *SensorSpec     `json:"sensor,omitempty"`
}

// CameraSpec camera-specific fields
type CameraSpec struct {
	IPAddress        string `json:"ip_address" db:"ip_address"`
	Resolution       string `json:"resolution,omitempty" db:"resolution"`
	StorageRetention int    `json:"storage_retention,omitempty" db:"storage_retention"` // days, 0 = unset
}

// MicroscopeSpec microscope-specific fields
type MicroscopeSpec struct {
	Model           string `json:"model" db:"model"`
	Magnification   int    `json:"magnification" db:"magnification"`
	DigitalOutput   bool   `json:"digital_output" db:"digital_output"`
	CalibrationDate string `json:"calibration_date,omitempty" db:"calibration_date"` // ISO date
}

// SensorType sensor measurement category
type SensorType string

const (
	SensorTypeTemperature SensorType = "temperature"
	SensorTypeHumidity    SensorType = "humidity"
	SensorTypePressure    SensorType = "pressure"
	SensorTypeMotion      SensorType = "motion"
	SensorTypeLight       SensorType = "light"
	SensorTypeAirQuality  SensorType = "air-quality"
	SensorTypeOther       SensorType = "other"
)

// SensorSpec sensor-specific fields
type SensorSpec struct {
	SensorType      SensorType `json:"sensor_type" db:"sensor_type"`
	MeasurementUnit string     `json:"measurement_unit" db:"measurement_unit"`
	MinValue        *float64   `json:"min_value,omitempty" db:"min_value"`
	MaxValue        *float64   `json:"max_value,omitempty" db:"max_value"`
	AlertThreshold  *float64   `json:"alert_threshold,omitempty" db:"alert_threshold"`
	BatteryLevel    *int       `json:"battery_level,omitempty" db:"battery_level"` // percentage
}

// DeviceStats aggregate counters derived from the full device collection.
// Recomputed by a full scan on every read, never patched incrementally.
type DeviceStats struct {
	Total       int `json:"total"`
	Online      int `json:"online"`
	Offline     int `json:"offline"`
	Maintenance int `json:"maintenance"`
	Cameras     int `json:"cameras"`
	Microscopes int `json:"microscopes"`
	Sensors     int `json:"sensors"`
}

func validSensorType(t SensorType) bool {
	switch t {
	case SensorTypeTemperature, SensorTypeHumidity, SensorTypePressure,
		SensorTypeMotion, SensorTypeLight, SensorTypeAirQuality, SensorTypeOther:
		return true
	}
	return false
}

// ValidDeviceStatus reports whether s is one of online/offline/maintenance.
func ValidDeviceStatus(s DeviceStatus) bool {
	switch s {
	case DeviceStatusOnline, DeviceStatusOffline, DeviceStatusMaintenance:
		return true
	}
	return false
}

// Validate checks common fields and the type-specific payload.
func (d *Device) Validate() error {
	if d.DeviceName == "" {
		return fmt.Errorf("device_name is required")
	}
	if !ValidDeviceStatus(d.Status) {
		return fmt.Errorf("invalid status %q", d.Status)
	}
	switch d.Type {
	case DeviceTypeCamera:
		if d.Microscope != nil || d.Sensor != nil {
			return fmt.Errorf("camera device carries a non-camera payload")
		}
		if d.Camera == nil {
			return fmt.Errorf("camera payload is required")
		}
		if net.ParseIP(d.Camera.IPAddress) == nil {
			return fmt.Errorf("invalid ip_address %q", d.Camera.IPAddress)
		}
		if d.Camera.StorageRetention != 0 && d.Camera.StorageRetention < 1 {
			return fmt.Errorf("storage_retention must be >= 1")
		}
		return nil
	case DeviceTypeMicroscope:
		if d.Camera != nil || d.Sensor != nil {
			return fmt.Errorf("microscope device carries a non-microscope payload")
		}
		if d.Microscope == nil {
			return fmt.Errorf("microscope payload is required")
		}
		if d.Microscope.Model == "" {
			return fmt.Errorf("model is required")
		}
		if d.Microscope.Magnification < 1 {
			return fmt.Errorf("magnification must be >= 1")
		}
		return nil
	case DeviceTypeSensor:
		if d.Camera != nil || d.Microscope != nil {
			return fmt.Errorf("sensor device carries a non-sensor payload")
		}
		if d.Sensor == nil {
			return fmt.Errorf("sensor payload is required")
		}
		if !validSensorType(d.Sensor.SensorType) {
			return fmt.Errorf("invalid sensor_type %q", d.Sensor.SensorType)
		}
		if d.Sensor.MeasurementUnit == "" {
			return fmt.Errorf("measurement_unit is required")
		}
		if d.Sensor.BatteryLevel != nil && (*d.Sensor.BatteryLevel < 0 || *d.Sensor.BatteryLevel > 100) {
			return fmt.Errorf("battery_level must be between 0 and 100")
		}
		return nil
	default:
		return fmt.Errorf("unknown device type %q", d.Type)
	}
}

// ToJSON flattens the device for HTTP responses (variant fields inline,
// matching the console's device table shape).
func (d *Device) ToJSON() map[string]any {
	m := map[string]any{
		"device_id":    d.DeviceID,
		"device_name":  d.DeviceName,
		"location":     d.Location,
		"type":         string(d.Type),
		"status":       string(d.Status),
		"last_updated": d.LastUpdated.UTC().Format(time.RFC3339),
	}
	switch d.Type {
	case DeviceTypeCamera:
		if d.Camera != nil {
			m["ip_address"] = d.Camera.IPAddress
			if d.Camera.Resolution != "" {
				m["resolution"] = d.Camera.Resolution
			}
			if d.Camera.StorageRetention > 0 {
				m["storage_retention"] = d.Camera.StorageRetention
			}
		}
	case DeviceTypeMicroscope:
		if d.Microscope != nil {
			m["model"] = d.Microscope.Model
			m["magnification"] = d.Microscope.Magnification
			m["digital_output"] = d.Microscope.DigitalOutput
			if d.Microscope.CalibrationDate != "" {
				m["calibration_date"] = d.Microscope.CalibrationDate
			}
		}
	case DeviceTypeSensor:
		if d.Sensor != nil {
			m["sensor_type"] = string(d.Sensor.SensorType)
			m["measurement_unit"] = d.Sensor.MeasurementUnit
			if d.Sensor.MinValue != nil {
				m["min_value"] = *d.Sensor.MinValue
			}
			if d.Sensor.MaxValue != nil {
				m["max_value"] = *d.Sensor.MaxValue
			}
			if d.Sensor.AlertThreshold != nil {
				m["alert_threshold"] = *d.Sensor.AlertThreshold
			}
			if d.Sensor.BatteryLevel != nil {
				m["battery_level"] = *d.Sensor.BatteryLevel
			}
		}
	}
	return m
}
