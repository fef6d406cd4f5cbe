package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"iot-console/internal/domain"
	"iot-console/internal/repository"
)

// Load fills empty repositories with the demo fixtures shipped with the
// console. Safe to skip when data already exists.
func Load(ctx context.Context, devices repository.DevicesRepository, directory repository.DirectoryRepository, logger *zap.Logger) error {
	existing, _, err := devices.ListDevices(ctx, repository.DeviceFilters{}, 1, 1)
	if err != nil {
		return fmt.Errorf("failed to probe devices: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("seed skipped, devices already present")
		return nil
	}

	if err := loadDevices(ctx, devices); err != nil {
		return err
	}
	if err := loadDirectory(ctx, directory); err != nil {
		return err
	}
	logger.Info("demo fixtures loaded")
	return nil
}

func loadDevices(ctx context.Context, repo repository.DevicesRepository) error {
	fixtures := []*domain.Device{
		{
			DeviceName: "Front Door Camera",
			Location:   "Main Entrance",
			Type:       domain.DeviceTypeCamera,
			Status:     domain.DeviceStatusOnline,
			Camera: &domain.CameraSpec{
				IPAddress:        "192.168.1.100",
				Resolution:       "1920x1080",
				StorageRetention: 30,
			},
		},
		{
			DeviceName: "Lab Microscope A",
			Location:   "Research Lab 1",
			Type:       domain.DeviceTypeMicroscope,
			Status:     domain.DeviceStatusOnline,
			Microscope: &domain.MicroscopeSpec{
				Model:           "Olympus BX53",
				Magnification:   1000,
				DigitalOutput:   true,
				CalibrationDate: "2024-01-15",
			},
		},
		{
			DeviceName: "Office Temperature Sensor",
			Location:   "Office Floor 2",
			Type:       domain.DeviceTypeSensor,
			Status:     domain.DeviceStatusOnline,
			Sensor: &domain.SensorSpec{
				SensorType:      domain.SensorTypeTemperature,
				MeasurementUnit: "°C",
				MinValue:        f64(-10),
				MaxValue:        f64(50),
				AlertThreshold:  f64(35),
				BatteryLevel:    intp(87),
			},
		},
		{
			DeviceName: "Warehouse Camera",
			Location:   "Warehouse B",
			Type:       domain.DeviceTypeCamera,
			Status:     domain.DeviceStatusOffline,
			Camera: &domain.CameraSpec{
				IPAddress:        "192.168.1.102",
				Resolution:       "1280x720",
				StorageRetention: 14,
			},
		},
		{
			DeviceName: "Quality Control Microscope",
			Location:   "QC Department",
			Type:       domain.DeviceTypeMicroscope,
			Status:     domain.DeviceStatusMaintenance,
			Microscope: &domain.MicroscopeSpec{
				Model:           "Zeiss Axio",
				Magnification:   200,
				DigitalOutput:   false,
				CalibrationDate: "2023-11-20",
			},
		},
	}
	for _, d := range fixtures {
		if _, err := repo.CreateDevice(ctx, d); err != nil {
			return fmt.Errorf("failed to seed device %q: %w", d.DeviceName, err)
		}
	}
	return nil
}

func loadDirectory(ctx context.Context, repo repository.DirectoryRepository) error {
	john, err := repo.CreateUser(ctx, &domain.User{Name: "John Doe", Email: "john@example.com"})
	if err != nil {
		return fmt.Errorf("failed to seed user: %w", err)
	}
	jane, err := repo.CreateUser(ctx, &domain.User{Name: "Jane Smith", Email: "jane@example.com"})
	if err != nil {
		return fmt.Errorf("failed to seed user: %w", err)
	}
	bob, err := repo.CreateUser(ctx, &domain.User{Name: "Bob Johnson", Email: "bob@example.com"})
	if err != nil {
		return fmt.Errorf("failed to seed user: %w", err)
	}

	acme, err := repo.CreateTenant(ctx, &domain.Tenant{Name: "Acme Corp"})
	if err != nil {
		return fmt.Errorf("failed to seed tenant: %w", err)
	}
	globex, err := repo.CreateTenant(ctx, &domain.Tenant{Name: "Globex Inc"})
	if err != nil {
		return fmt.Errorf("failed to seed tenant: %w", err)
	}
	initech, err := repo.CreateTenant(ctx, &domain.Tenant{Name: "Initech"})
	if err != nil {
		return fmt.Errorf("failed to seed tenant: %w", err)
	}

	memberships := []struct{ tenantID, userID string }{
		{acme.TenantID, john.UserID},
		{acme.TenantID, jane.UserID},
		{globex.TenantID, john.UserID},
		{initech.TenantID, bob.UserID},
	}
	for _, m := range memberships {
		if err := repo.AssignUserToTenant(ctx, m.tenantID, m.userID); err != nil {
			return fmt.Errorf("failed to seed membership: %w", err)
		}
	}
	return nil
}

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }
