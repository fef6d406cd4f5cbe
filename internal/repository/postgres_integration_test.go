//go:build integration

package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"

	"iot-console/internal/domain"
)

// Run with: TEST_DATABASE_DSN="host=localhost ..." go test -tags integration ./internal/repository/
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Exec(`TRUNCATE tenant_users, tenants, users, devices`)
		_ = db.Close()
	})
	return db
}

func TestPostgresDevicesRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewPostgresDevicesRepo(db)

	id, err := repo.CreateDevice(ctx, &domain.Device{
		DeviceName: "Front Door Camera",
		Location:   "Main Entrance",
		Type:       domain.DeviceTypeCamera,
		Status:     domain.DeviceStatusOnline,
		Camera:     &domain.CameraSpec{IPAddress: "192.168.1.100", Resolution: "1920x1080"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetDevice(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Camera == nil || got.Camera.IPAddress != "192.168.1.100" {
		t.Fatalf("camera payload lost: %+v", got)
	}

	status := domain.DeviceStatusMaintenance
	updated, err := repo.UpdateDevice(ctx, id, DevicePatch{Status: &status})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != status {
		t.Fatalf("status not applied: %s", updated.Status)
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 1 || stats.Maintenance != 1 || stats.Cameras != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if err := repo.DeleteDevice(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetDevice(ctx, id); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresDirectoryMembership(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewPostgresDirectoryRepo(db)

	john, err := repo.CreateUser(ctx, &domain.User{Name: "John Doe", Email: "john@example.com"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	acme, err := repo.CreateTenant(ctx, &domain.Tenant{Name: "Acme Corp"})
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}

	if err := repo.AssignUserToTenant(ctx, acme.TenantID, john.UserID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := repo.AssignUserToTenant(ctx, acme.TenantID, john.UserID); err != ErrAlreadyMember {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}

	u, err := repo.GetUser(ctx, john.UserID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if len(u.TenantIDs) != 1 || u.TenantIDs[0] != acme.TenantID {
		t.Fatalf("membership missing on user side: %v", u.TenantIDs)
	}

	if err := repo.DeleteTenant(ctx, acme.TenantID); err != nil {
		t.Fatalf("delete tenant: %v", err)
	}
	u, _ = repo.GetUser(ctx, john.UserID)
	if len(u.TenantIDs) != 0 {
		t.Fatalf("cascade failed: %v", u.TenantIDs)
	}
}
