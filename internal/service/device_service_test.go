package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"iot-console/internal/domain"
	"iot-console/internal/repository"
)

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryDevicesRepo()
	svc := NewDeviceService(repo, zap.NewNop())

	devices := []*domain.Device{
		{
			DeviceName: "Cam 1",
			Type:       domain.DeviceTypeCamera,
			Status:     domain.DeviceStatusOnline,
			Camera:     &domain.CameraSpec{IPAddress: "10.0.0.1"},
		},
		{
			DeviceName: "Scope 1",
			Type:       domain.DeviceTypeMicroscope,
			Status:     domain.DeviceStatusMaintenance,
			Microscope: &domain.MicroscopeSpec{Model: "Zeiss Axio", Magnification: 200},
		},
	}
	for _, d := range devices {
		if _, err := svc.AddDevice(ctx, d); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	resp, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if resp.Stats.Total != 2 || resp.Stats.Cameras != 1 || resp.Stats.Microscopes != 1 {
		t.Fatalf("unexpected stats: %+v", resp.Stats)
	}
	if resp.Stats.Online != 1 || resp.Stats.Maintenance != 1 {
		t.Fatalf("unexpected status counters: %+v", resp.Stats)
	}

	if len(resp.Transmission) != 7 {
		t.Fatalf("expected 7 transmission buckets, got %d", len(resp.Transmission))
	}
	if resp.Transmission[0].Time != "00:00" || resp.Transmission[6].Time != "Now" {
		t.Fatalf("unexpected bucket labels: %+v", resp.Transmission)
	}
	for _, p := range resp.Transmission {
		if p.Cameras < 0 || p.Microscopes < 0 || p.Sensors < 0 {
			t.Fatalf("negative throughput in bucket %s", p.Time)
		}
	}
}

func TestTransmissionRanges(t *testing.T) {
	// the series is randomized; values must stay inside the bucket ranges
	for i := 0; i < 50; i++ {
		points := generateTransmission()
		for j, p := range points {
			b := transmissionBuckets[j]
			if p.Cameras < b.camBase || p.Cameras > b.camBase+b.camSpread+0.01 {
				t.Fatalf("cameras out of range in %s: %v", p.Time, p.Cameras)
			}
			if p.Microscopes < b.micBase || p.Microscopes > b.micBase+b.micSpread+0.01 {
				t.Fatalf("microscopes out of range in %s: %v", p.Time, p.Microscopes)
			}
			if p.Sensors < b.senBase || p.Sensors > b.senBase+b.senSpread+0.01 {
				t.Fatalf("sensors out of range in %s: %v", p.Time, p.Sensors)
			}
		}
	}
}

func TestRound2(t *testing.T) {
	if got := round2(1.234); got != 1.23 {
		t.Fatalf("round2(1.234) = %v", got)
	}
	if got := round2(1.236); got != 1.24 {
		t.Fatalf("round2(1.236) = %v", got)
	}
}
