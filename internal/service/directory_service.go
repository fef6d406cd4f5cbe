package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"iot-console/internal/domain"
	"iot-console/internal/repository"
)

// Notifier publishes directory events to the outside world (webhooks).
// Implementations decide whether the event fires based on the active
// profile's notification toggles; failures must not block mutations.
type Notifier interface {
	UserRegistered(ctx context.Context, user *domain.User)
	TenantRegistered(ctx context.Context, tenant *domain.Tenant)
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) UserRegistered(context.Context, *domain.User)     {}
func (NopNotifier) TenantRegistered(context.Context, *domain.Tenant) {}

// DirectoryService 用户/租户管理服务接口
type DirectoryService interface {
	ListUsers(ctx context.Context) ([]*domain.User, error)
	CreateUser(ctx context.Context, name, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, userID string, patch repository.UserPatch) (*domain.User, error)
	DeleteUser(ctx context.Context, userID string) error

	ListTenants(ctx context.Context) ([]*domain.Tenant, error)
	CreateTenant(ctx context.Context, name string) (*domain.Tenant, error)
	UpdateTenant(ctx context.Context, tenantID string, patch repository.TenantPatch) (*domain.Tenant, error)
	DeleteTenant(ctx context.Context, tenantID string) error

	AssignUserToTenant(ctx context.Context, tenantID, userID string) error
	RemoveUserFromTenant(ctx context.Context, tenantID, userID string) error
	AvailableUsers(ctx context.Context, tenantID string) ([]*domain.User, error)
}

type directoryService struct {
	repo     repository.DirectoryRepository
	notifier Notifier
	logger   *zap.Logger
}

// NewDirectoryService 创建 DirectoryService 实例
func NewDirectoryService(repo repository.DirectoryRepository, notifier Notifier, logger *zap.Logger) DirectoryService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &directoryService{repo: repo, notifier: notifier, logger: logger}
}

func (s *directoryService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *directoryService) CreateUser(ctx context.Context, name, email string) (*domain.User, error) {
	u, err := s.repo.CreateUser(ctx, &domain.User{Name: name, Email: email})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user created", zap.String("user_id", u.UserID), zap.String("name", u.Name))
	s.notifier.UserRegistered(ctx, u)
	return u, nil
}

func (s *directoryService) UpdateUser(ctx context.Context, userID string, patch repository.UserPatch) (*domain.User, error) {
	return s.repo.UpdateUser(ctx, userID, patch)
}

func (s *directoryService) DeleteUser(ctx context.Context, userID string) error {
	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.String("user_id", userID))
	return nil
}

func (s *directoryService) ListTenants(ctx context.Context) ([]*domain.Tenant, error) {
	return s.repo.ListTenants(ctx)
}

func (s *directoryService) CreateTenant(ctx context.Context, name string) (*domain.Tenant, error) {
	t, err := s.repo.CreateTenant(ctx, &domain.Tenant{Name: name})
	if err != nil {
		return nil, err
	}
	s.logger.Info("tenant created", zap.String("tenant_id", t.TenantID), zap.String("name", t.Name))
	s.notifier.TenantRegistered(ctx, t)
	return t, nil
}

func (s *directoryService) UpdateTenant(ctx context.Context, tenantID string, patch repository.TenantPatch) (*domain.Tenant, error) {
	return s.repo.UpdateTenant(ctx, tenantID, patch)
}

func (s *directoryService) DeleteTenant(ctx context.Context, tenantID string) error {
	if err := s.repo.DeleteTenant(ctx, tenantID); err != nil {
		return err
	}
	s.logger.Info("tenant deleted", zap.String("tenant_id", tenantID))
	return nil
}

func (s *directoryService) AssignUserToTenant(ctx context.Context, tenantID, userID string) error {
	if err := s.repo.AssignUserToTenant(ctx, tenantID, userID); err != nil {
		if err == repository.ErrAlreadyMember {
			return err
		}
		return fmt.Errorf("failed to assign user to tenant: %w", err)
	}
	s.logger.Info("user assigned to tenant",
		zap.String("tenant_id", tenantID), zap.String("user_id", userID))
	return nil
}

func (s *directoryService) RemoveUserFromTenant(ctx context.Context, tenantID, userID string) error {
	if err := s.repo.RemoveUserFromTenant(ctx, tenantID, userID); err != nil {
		return err
	}
	s.logger.Info("user removed from tenant",
		zap.String("tenant_id", tenantID), zap.String("user_id", userID))
	return nil
}

func (s *directoryService) AvailableUsers(ctx context.Context, tenantID string) ([]*domain.User, error) {
	return s.repo.AvailableUsers(ctx, tenantID)
}
