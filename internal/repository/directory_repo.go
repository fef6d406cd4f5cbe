package repository

import (
	"context"
	"errors"

	"iot-console/internal/domain"
)

// ErrAlreadyMember is the one business-rule rejection in the console:
// a user cannot be assigned to the same tenant twice.
var ErrAlreadyMember = errors.New("user already assigned to tenant")

// DirectoryRepository owns BOTH the user and tenant collections so that
// membership edges (User.TenantIDs <-> Tenant.UserIDs) are mutated on both
// sides under one lock / one transaction. No partial membership state is
// ever visible to readers.
type DirectoryRepository interface {
	ListUsers(ctx context.Context) ([]*domain.User, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	// UpdateUser replaces scalar fields only; membership lists are
	// untouched. Returns ErrNotFound for an unknown id.
	UpdateUser(ctx context.Context, userID string, patch UserPatch) (*domain.User, error)
	// DeleteUser removes the user and cascades the id out of every
	// tenant's member list.
	DeleteUser(ctx context.Context, userID string) error

	ListTenants(ctx context.Context) ([]*domain.Tenant, error)
	GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error)
	CreateTenant(ctx context.Context, tenant *domain.Tenant) (*domain.Tenant, error)
	UpdateTenant(ctx context.Context, tenantID string, patch TenantPatch) (*domain.Tenant, error)
	// DeleteTenant removes the tenant and cascades the id out of every
	// user's tenant list.
	DeleteTenant(ctx context.Context, tenantID string) error

	// AssignUserToTenant adds the membership edge to both endpoints.
	// Returns ErrAlreadyMember if the edge already exists.
	AssignUserToTenant(ctx context.Context, tenantID, userID string) error
	// RemoveUserFromTenant removes the edge from both endpoints; removing
	// an absent edge is a no-op (idempotent unassign).
	RemoveUserFromTenant(ctx context.Context, tenantID, userID string) error

	// AvailableUsers lists users NOT already members of the tenant,
	// used to populate assignment choices.
	AvailableUsers(ctx context.Context, tenantID string) ([]*domain.User, error)
}

// UserPatch optional scalar fields for a partial user update.
type UserPatch struct {
	Name  *string
	Email *string
}

// TenantPatch optional scalar fields for a partial tenant update.
type TenantPatch struct {
	Name *string
}
