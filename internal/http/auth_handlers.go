package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"iot-console/internal/service"
)

// AuthHandler serves login, logout, session restore and profile settings.
type AuthHandler struct {
	svc    service.AuthService
	logger *zap.Logger
}

func NewAuthHandler(svc service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profilePayload struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Avatar *string `json:"avatar"`
}

type notificationPayload struct {
	Flag  string `json:"flag"`
	Value bool   `json:"value"`
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/auth/api/v1/login":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.login(w, r)

	case "/auth/api/v1/logout":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.logout(w, r)

	case "/auth/api/v1/session":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.session(w, r)

	case "/auth/api/v1/profile":
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.updateProfile(w, r)

	case "/auth/api/v1/notifications":
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.updateNotifications(w, r)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	resp, err := h.svc.Login(r.Context(), service.LoginRequest{
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeJSON(w, http.StatusOK, Fail(err.Error()))
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("login failed"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"access_token": resp.AccessToken,
		"profile":      resp.Profile,
	}))
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), bearerToken(r)); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("logout failed"))
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *AuthHandler) session(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.RestoreSession(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrNotAuthenticated) {
			writeJSON(w, http.StatusUnauthorized, Unauthenticated("not authenticated"))
			return
		}
		h.logger.Error("session restore failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("session restore failed"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(profile))
}

func (h *AuthHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var payload profilePayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	profile, err := h.svc.UpdateProfile(r.Context(), service.ProfilePatch{
		Name:   payload.Name,
		Email:  payload.Email,
		Avatar: payload.Avatar,
	})
	if err != nil {
		if errors.Is(err, service.ErrNotAuthenticated) {
			writeJSON(w, http.StatusUnauthorized, Unauthenticated("not authenticated"))
			return
		}
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(profile))
}

func (h *AuthHandler) updateNotifications(w http.ResponseWriter, r *http.Request) {
	var payload notificationPayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil || payload.Flag == "" {
		writeJSON(w, http.StatusOK, Fail("flag is required"))
		return
	}
	profile, err := h.svc.UpdateNotificationPreference(r.Context(), payload.Flag, payload.Value)
	if err != nil {
		if errors.Is(err, service.ErrNotAuthenticated) {
			writeJSON(w, http.StatusUnauthorized, Unauthenticated("not authenticated"))
			return
		}
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(profile))
}
