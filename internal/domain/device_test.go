package domain

import (
	"testing"
)

func validCamera() *Device {
	return &Device{
		DeviceName: "Front Door Camera",
		Location:   "Main Entrance",
		Type:       DeviceTypeCamera,
		Status:     DeviceStatusOnline,
		Camera: &CameraSpec{
			IPAddress:        "192.168.1.100",
			Resolution:       "1920x1080",
			StorageRetention: 30,
		},
	}
}

func TestDeviceValidate(t *testing.T) {
	if err := validCamera().Validate(); err != nil {
		t.Fatalf("valid camera rejected: %v", err)
	}

	t.Run("missing name", func(t *testing.T) {
		d := validCamera()
		d.DeviceName = ""
		if err := d.Validate(); err == nil {
			t.Fatal("expected error for empty device_name")
		}
	})

	t.Run("bad ip", func(t *testing.T) {
		d := validCamera()
		d.Camera.IPAddress = "not-an-ip"
		if err := d.Validate(); err == nil {
			t.Fatal("expected error for invalid ip_address")
		}
	})

	t.Run("bad status", func(t *testing.T) {
		d := validCamera()
		d.Status = "sleeping"
		if err := d.Validate(); err == nil {
			t.Fatal("expected error for invalid status")
		}
	})

	t.Run("payload type mismatch", func(t *testing.T) {
		d := validCamera()
		d.Sensor = &SensorSpec{SensorType: SensorTypeTemperature, MeasurementUnit: "°C"}
		if err := d.Validate(); err == nil {
			t.Fatal("expected error when camera carries a sensor payload")
		}
	})

	t.Run("missing variant payload", func(t *testing.T) {
		d := validCamera()
		d.Camera = nil
		if err := d.Validate(); err == nil {
			t.Fatal("expected error when camera payload is absent")
		}
	})

	t.Run("microscope magnification", func(t *testing.T) {
		d := &Device{
			DeviceName: "Lab Microscope A",
			Type:       DeviceTypeMicroscope,
			Status:     DeviceStatusOnline,
			Microscope: &MicroscopeSpec{Model: "Olympus BX53", Magnification: 0},
		}
		if err := d.Validate(); err == nil {
			t.Fatal("expected error for magnification < 1")
		}
		d.Microscope.Magnification = 1000
		if err := d.Validate(); err != nil {
			t.Fatalf("valid microscope rejected: %v", err)
		}
	})

	t.Run("sensor battery range", func(t *testing.T) {
		battery := 120
		d := &Device{
			DeviceName: "Office Temperature Sensor",
			Type:       DeviceTypeSensor,
			Status:     DeviceStatusOnline,
			Sensor: &SensorSpec{
				SensorType:      SensorTypeTemperature,
				MeasurementUnit: "°C",
				BatteryLevel:    &battery,
			},
		}
		if err := d.Validate(); err == nil {
			t.Fatal("expected error for battery_level > 100")
		}
		battery = 87
		if err := d.Validate(); err != nil {
			t.Fatalf("valid sensor rejected: %v", err)
		}
	})
}

func TestDeviceToJSONFlattensVariant(t *testing.T) {
	d := validCamera()
	m := d.ToJSON()
	if m["ip_address"] != "192.168.1.100" {
		t.Fatalf("expected flattened ip_address, got %v", m["ip_address"])
	}
	if m["type"] != "camera" {
		t.Fatalf("expected type camera, got %v", m["type"])
	}
	if _, ok := m["sensor_type"]; ok {
		t.Fatal("camera JSON must not carry sensor fields")
	}
}
