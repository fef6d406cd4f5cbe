package seed

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"iot-console/internal/repository"
)

func TestLoadFixtures(t *testing.T) {
	ctx := context.Background()
	devices := repository.NewMemoryDevicesRepo()
	directory := repository.NewMemoryDirectoryRepo()

	if err := Load(ctx, devices, directory, zap.NewNop()); err != nil {
		t.Fatalf("load: %v", err)
	}

	stats, err := devices.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 5 || stats.Cameras != 2 || stats.Microscopes != 2 || stats.Sensors != 1 {
		t.Fatalf("unexpected device fixtures: %+v", stats)
	}
	if stats.Online != 3 || stats.Offline != 1 || stats.Maintenance != 1 {
		t.Fatalf("unexpected status distribution: %+v", stats)
	}

	users, err := directory.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}

	tenants, err := directory.ListTenants(ctx)
	if err != nil {
		t.Fatalf("list tenants: %v", err)
	}
	if len(tenants) != 3 {
		t.Fatalf("expected 3 tenants, got %d", len(tenants))
	}

	// Acme has two members, the others one each
	edges := 0
	for _, tn := range tenants {
		edges += len(tn.UserIDs)
	}
	if edges != 4 {
		t.Fatalf("expected 4 membership edges, got %d", edges)
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	devices := repository.NewMemoryDevicesRepo()
	directory := repository.NewMemoryDirectoryRepo()

	if err := Load(ctx, devices, directory, zap.NewNop()); err != nil {
		t.Fatalf("first load: %v", err)
	}
	if err := Load(ctx, devices, directory, zap.NewNop()); err != nil {
		t.Fatalf("second load: %v", err)
	}

	stats, _ := devices.Stats(ctx)
	if stats.Total != 5 {
		t.Fatalf("second load must be a no-op, got %d devices", stats.Total)
	}
	users, _ := directory.ListUsers(ctx)
	if len(users) != 3 {
		t.Fatalf("second load must be a no-op, got %d users", len(users))
	}
}
