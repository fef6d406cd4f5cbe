package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"iot-console/internal/domain"
)

// MemoryDirectoryRepo supports user/tenant management when DB is disabled.
// One mutex guards both collections so membership edges change atomically.
type MemoryDirectoryRepo struct {
	mu      sync.RWMutex
	users   map[string]*domain.User   // userID -> User
	tenants map[string]*domain.Tenant // tenantID -> Tenant
}

func NewMemoryDirectoryRepo() *MemoryDirectoryRepo {
	return &MemoryDirectoryRepo{
		users:   map[string]*domain.User{},
		tenants: map[string]*domain.Tenant{},
	}
}

var _ DirectoryRepository = (*MemoryDirectoryRepo)(nil)

func cloneUser(u *domain.User) *domain.User {
	out := *u
	out.TenantIDs = append([]string{}, u.TenantIDs...)
	return &out
}

func cloneTenant(t *domain.Tenant) *domain.Tenant {
	out := *t
	out.UserIDs = append([]string{}, t.UserIDs...)
	return &out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (r *MemoryDirectoryRepo) ListUsers(_ context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, cloneUser(u))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

func (r *MemoryDirectoryRepo) GetUser(_ context.Context, userID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *MemoryDirectoryRepo) CreateUser(_ context.Context, user *domain.User) (*domain.User, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u := &domain.User{
		UserID: user.UserID,
		Name:   user.Name,
		Email:  user.Email,
		// created with an empty membership list; edges are added via
		// AssignUserToTenant only
		TenantIDs: []string{},
	}
	if u.UserID == "" {
		u.UserID = uuid.NewString()
	} else if _, exists := r.users[u.UserID]; exists {
		return nil, ErrDuplicateID
	}
	r.users[u.UserID] = u
	return cloneUser(u), nil
}

func (r *MemoryDirectoryRepo) UpdateUser(_ context.Context, userID string, patch UserPatch) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	next := cloneUser(u)
	if patch.Name != nil {
		next.Name = *patch.Name
	}
	if patch.Email != nil {
		next.Email = *patch.Email
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	r.users[userID] = next
	return cloneUser(next), nil
}

func (r *MemoryDirectoryRepo) DeleteUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID]; !ok {
		return ErrNotFound
	}
	delete(r.users, userID)
	for _, t := range r.tenants {
		t.UserIDs = remove(t.UserIDs, userID)
	}
	return nil
}

func (r *MemoryDirectoryRepo) ListTenants(_ context.Context) ([]*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*domain.Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		all = append(all, cloneTenant(t))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

func (r *MemoryDirectoryRepo) GetTenant(_ context.Context, tenantID string) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tenants[tenantID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneTenant(t), nil
}

func (r *MemoryDirectoryRepo) CreateTenant(_ context.Context, tenant *domain.Tenant) (*domain.Tenant, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t := &domain.Tenant{
		TenantID: tenant.TenantID,
		Name:     tenant.Name,
		UserIDs:  []string{},
	}
	if t.TenantID == "" {
		t.TenantID = uuid.NewString()
	} else if _, exists := r.tenants[t.TenantID]; exists {
		return nil, ErrDuplicateID
	}
	r.tenants[t.TenantID] = t
	return cloneTenant(t), nil
}

func (r *MemoryDirectoryRepo) UpdateTenant(_ context.Context, tenantID string, patch TenantPatch) (*domain.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tenants[tenantID]
	if !ok {
		return nil, ErrNotFound
	}
	next := cloneTenant(t)
	if patch.Name != nil {
		next.Name = *patch.Name
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	r.tenants[tenantID] = next
	return cloneTenant(next), nil
}

func (r *MemoryDirectoryRepo) DeleteTenant(_ context.Context, tenantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tenants[tenantID]; !ok {
		return ErrNotFound
	}
	delete(r.tenants, tenantID)
	for _, u := range r.users {
		u.TenantIDs = remove(u.TenantIDs, tenantID)
	}
	return nil
}

func (r *MemoryDirectoryRepo) AssignUserToTenant(_ context.Context, tenantID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tenants[tenantID]
	if !ok {
		return ErrNotFound
	}
	u, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	if contains(t.UserIDs, userID) {
		return ErrAlreadyMember
	}
	// both sides under the same lock
	t.UserIDs = append(t.UserIDs, userID)
	u.TenantIDs = append(u.TenantIDs, tenantID)
	return nil
}

func (r *MemoryDirectoryRepo) RemoveUserFromTenant(_ context.Context, tenantID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tenants[tenantID]
	if !ok {
		return ErrNotFound
	}
	t.UserIDs = remove(t.UserIDs, userID)
	if u, ok := r.users[userID]; ok {
		u.TenantIDs = remove(u.TenantIDs, tenantID)
	}
	return nil
}

func (r *MemoryDirectoryRepo) AvailableUsers(_ context.Context, tenantID string) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tenants[tenantID]
	if !ok {
		return nil, ErrNotFound
	}
	out := []*domain.User{}
	for _, u := range r.users {
		if contains(t.UserIDs, u.UserID) {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
