package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"iot-console/internal/domain"
	"iot-console/internal/store"
)

// ProfileKey is the fixed key the session profile persists under. The JSON
// blob stored here is the cross-run persistence contract of the console.
const ProfileKey = "user"

const (
	tokenKeyPrefix = "token:"
	tokenTTL       = 24 * time.Hour
)

// ErrNotAuthenticated no persisted session exists.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrInvalidCredentials the login payload failed syntactic validation.
var ErrInvalidCredentials = errors.New("invalid credentials")

// CredentialVerifier abstracts the credential check so a real auth backend
// can replace the demo behavior without touching session-state logic.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) (domain.Profile, error)
}

// StubVerifier accepts any syntactically valid credentials and yields the
// demo profile. Stand-in for a future real auth integration.
type StubVerifier struct{}

func (StubVerifier) Verify(_ context.Context, _, _ string) (domain.Profile, error) {
	return domain.DefaultProfile(), nil
}

// AuthService 会话管理服务接口
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, token string) error
	// RestoreSession reconstructs the authenticated session from the
	// persisted profile; ErrNotAuthenticated when none exists.
	RestoreSession(ctx context.Context) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, patch ProfilePatch) (*domain.Profile, error)
	UpdateNotificationPreference(ctx context.Context, flag string, value bool) (*domain.Profile, error)
	// CurrentNotifications is the gate for outbound notifications; all-off
	// when no session is active.
	CurrentNotifications(ctx context.Context) domain.NotificationSettings
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string
	Password string
}

// LoginResponse 登录响应
type LoginResponse struct {
	AccessToken string
	Profile     domain.Profile
}

// ProfilePatch optional profile fields (nil means keep).
type ProfilePatch struct {
	Name   *string
	Email  *string
	Avatar *string
}

type authService struct {
	kv       store.KV
	verifier CredentialVerifier
	logger   *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(kv store.KV, verifier CredentialVerifier, logger *zap.Logger) AuthService {
	if verifier == nil {
		verifier = StubVerifier{}
	}
	return &authService{kv: kv, verifier: verifier, logger: logger}
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if !domain.ValidEmail(req.Email) {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidCredentials)
	}
	if len(req.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidCredentials)
	}

	profile, err := s.verifier.Verify(ctx, req.Email, req.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	if err := s.persistProfile(ctx, &profile); err != nil {
		return nil, err
	}

	token := uuid.NewString()
	if err := s.kv.Set(ctx, tokenKeyPrefix+token, profile.ID, tokenTTL); err != nil {
		return nil, fmt.Errorf("failed to store access token: %w", err)
	}

	s.logger.Info("login succeeded", zap.String("email", req.Email))
	return &LoginResponse{AccessToken: token, Profile: profile}, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token != "" {
		if err := s.kv.Del(ctx, tokenKeyPrefix+token); err != nil {
			s.logger.Warn("failed to drop access token", zap.Error(err))
		}
	}
	if err := s.kv.Del(ctx, ProfileKey); err != nil {
		return fmt.Errorf("failed to clear persisted profile: %w", err)
	}
	s.logger.Info("session cleared")
	return nil
}

func (s *authService) RestoreSession(ctx context.Context) (*domain.Profile, error) {
	raw, err := s.kv.Get(ctx, ProfileKey)
	if err != nil {
		if err == store.ErrMiss {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to read persisted profile: %w", err)
	}
	var profile domain.Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("failed to decode persisted profile: %w", err)
	}
	return &profile, nil
}

func (s *authService) UpdateProfile(ctx context.Context, patch ProfilePatch) (*domain.Profile, error) {
	profile, err := s.RestoreSession(ctx)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		profile.Name = *patch.Name
	}
	if patch.Email != nil {
		if !domain.ValidEmail(*patch.Email) {
			return nil, fmt.Errorf("invalid email %q", *patch.Email)
		}
		profile.Email = *patch.Email
	}
	if patch.Avatar != nil {
		profile.Avatar = *patch.Avatar
	}
	if err := s.persistProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *authService) UpdateNotificationPreference(ctx context.Context, flag string, value bool) (*domain.Profile, error) {
	profile, err := s.RestoreSession(ctx)
	if err != nil {
		return nil, err
	}
	switch flag {
	case "userRegistered":
		profile.Notifications.UserRegistered = value
	case "tenantRegistered":
		profile.Notifications.TenantRegistered = value
	case "cameraEvents":
		profile.Notifications.CameraEvents = value
	default:
		return nil, fmt.Errorf("unknown notification flag %q", flag)
	}
	if err := s.persistProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *authService) CurrentNotifications(ctx context.Context) domain.NotificationSettings {
	profile, err := s.RestoreSession(ctx)
	if err != nil {
		return domain.NotificationSettings{}
	}
	return profile.Notifications
}

func (s *authService) persistProfile(ctx context.Context, profile *domain.Profile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	// profile itself never expires; logout is the only teardown
	if err := s.kv.Set(ctx, ProfileKey, string(raw), 0); err != nil {
		return fmt.Errorf("failed to persist profile: %w", err)
	}
	return nil
}
