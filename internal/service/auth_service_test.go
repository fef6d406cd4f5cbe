package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"iot-console/internal/store"
)

func newAuth(t *testing.T) (AuthService, store.KV) {
	t.Helper()
	kv := store.NewMemoryKV()
	return NewAuthService(kv, StubVerifier{}, zap.NewNop()), kv
}

func TestLoginValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuth(t)

	_, err := svc.Login(ctx, LoginRequest{Email: "not-an-email", Password: "secret1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "demo@example.com", Password: "short"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := svc.Login(ctx, LoginRequest{Email: "demo@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, "John Doe", resp.Profile.Name)
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, kv := newAuth(t)

	_, err := svc.RestoreSession(ctx)
	require.ErrorIs(t, err, ErrNotAuthenticated)

	resp, err := svc.Login(ctx, LoginRequest{Email: "demo@example.com", Password: "secret1"})
	require.NoError(t, err)

	// the profile survives in the KV under the fixed key, which is what a
	// process restart restores from
	profile, err := svc.RestoreSession(ctx)
	require.NoError(t, err)
	require.Equal(t, resp.Profile.Email, profile.Email)

	raw, err := kv.Get(ctx, ProfileKey)
	require.NoError(t, err)
	require.Contains(t, raw, profile.Email)

	require.NoError(t, svc.Logout(ctx, resp.AccessToken))
	_, err = svc.RestoreSession(ctx)
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuth(t)

	name := "Jane Admin"
	_, err := svc.UpdateProfile(ctx, ProfilePatch{Name: &name})
	require.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = svc.Login(ctx, LoginRequest{Email: "demo@example.com", Password: "secret1"})
	require.NoError(t, err)

	profile, err := svc.UpdateProfile(ctx, ProfilePatch{Name: &name})
	require.NoError(t, err)
	require.Equal(t, name, profile.Name)

	bad := "nope"
	_, err = svc.UpdateProfile(ctx, ProfilePatch{Email: &bad})
	require.Error(t, err)

	// edits persist across restores
	restored, err := svc.RestoreSession(ctx)
	require.NoError(t, err)
	require.Equal(t, name, restored.Name)
}

func TestNotificationPreferences(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuth(t)

	// all-off without a session
	prefs := svc.CurrentNotifications(ctx)
	require.False(t, prefs.UserRegistered)
	require.False(t, prefs.CameraEvents)

	_, err := svc.Login(ctx, LoginRequest{Email: "demo@example.com", Password: "secret1"})
	require.NoError(t, err)

	profile, err := svc.UpdateNotificationPreference(ctx, "cameraEvents", true)
	require.NoError(t, err)
	require.True(t, profile.Notifications.CameraEvents)

	_, err = svc.UpdateNotificationPreference(ctx, "unknownFlag", true)
	require.Error(t, err)

	prefs = svc.CurrentNotifications(ctx)
	require.True(t, prefs.CameraEvents)

	profile, err = svc.UpdateNotificationPreference(ctx, "cameraEvents", false)
	require.NoError(t, err)
	require.False(t, profile.Notifications.CameraEvents)
}

func TestLogoutWithoutToken(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuth(t)

	_, err := svc.Login(ctx, LoginRequest{Email: "demo@example.com", Password: "secret1"})
	require.NoError(t, err)

	// logging out without presenting a token still clears the profile
	require.NoError(t, svc.Logout(ctx, ""))
	_, err = svc.RestoreSession(ctx)
	require.True(t, errors.Is(err, ErrNotAuthenticated))
}
