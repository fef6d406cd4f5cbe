package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"iot-console/internal/repository"
	"iot-console/internal/service"
)

// DirectoryHandler serves the user and tenant management pages.
type DirectoryHandler struct {
	svc    service.DirectoryService
	logger *zap.Logger
}

func NewDirectoryHandler(svc service.DirectoryService, logger *zap.Logger) *DirectoryHandler {
	return &DirectoryHandler{svc: svc, logger: logger}
}

type userPayload struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type tenantPayload struct {
	Name *string `json:"name"`
}

type membershipPayload struct {
	UserID string `json:"user_id"`
}

func (h *DirectoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/admin/api/v1/users":
		switch r.Method {
		case http.MethodGet:
			h.listUsers(w, r)
		case http.MethodPost:
			h.createUser(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return

	case strings.HasPrefix(r.URL.Path, "/admin/api/v1/users/"):
		id := strings.TrimPrefix(r.URL.Path, "/admin/api/v1/users/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodPut:
			h.updateUser(w, r, id)
		case http.MethodDelete:
			h.deleteUser(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return

	case r.URL.Path == "/admin/api/v1/tenants":
		switch r.Method {
		case http.MethodGet:
			h.listTenants(w, r)
		case http.MethodPost:
			h.createTenant(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return

	case strings.HasPrefix(r.URL.Path, "/admin/api/v1/tenants/"):
		h.serveTenantSubtree(w, r)
		return
	}

	w.WriteHeader(http.StatusNotFound)
}

// serveTenantSubtree handles /tenants/{id}, /tenants/{id}/users,
// /tenants/{id}/users/{userID} and /tenants/{id}/available-users.
func (h *DirectoryHandler) serveTenantSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/admin/api/v1/tenants/")
	parts := strings.Split(rest, "/")
	tenantID := parts[0]
	if tenantID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodPut:
			h.updateTenant(w, r, tenantID)
		case http.MethodDelete:
			h.deleteTenant(w, r, tenantID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}

	case len(parts) == 2 && parts[1] == "users":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.assignUser(w, r, tenantID)

	case len(parts) == 3 && parts[1] == "users" && parts[2] != "":
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.removeUser(w, r, tenantID, parts[2])

	case len(parts) == 2 && parts[1] == "available-users":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.availableUsers(w, r, tenantID)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *DirectoryHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("failed to list users", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to list users"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": users, "total": len(users)}))
}

func (h *DirectoryHandler) createUser(w http.ResponseWriter, r *http.Request) {
	var payload userPayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	u, err := h.svc.CreateUser(r.Context(), str(payload.Name), str(payload.Email))
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(u))
}

func (h *DirectoryHandler) updateUser(w http.ResponseWriter, r *http.Request, id string) {
	var payload userPayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	u, err := h.svc.UpdateUser(r.Context(), id, repository.UserPatch{
		Name:  payload.Name,
		Email: payload.Email,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusOK, Fail("user not found"))
			return
		}
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(u))
}

func (h *DirectoryHandler) deleteUser(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.svc.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusOK, Fail("user not found"))
			return
		}
		writeJSON(w, http.StatusOK, Fail("failed to delete user"))
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *DirectoryHandler) listTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.svc.ListTenants(r.Context())
	if err != nil {
		h.logger.Error("failed to list tenants", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to list tenants"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": tenants, "total": len(tenants)}))
}

func (h *DirectoryHandler) createTenant(w http.ResponseWriter, r *http.Request) {
	var payload tenantPayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	t, err := h.svc.CreateTenant(r.Context(), str(payload.Name))
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(t))
}

func (h *DirectoryHandler) updateTenant(w http.ResponseWriter, r *http.Request, id string) {
	var payload tenantPayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	t, err := h.svc.UpdateTenant(r.Context(), id, repository.TenantPatch{Name: payload.Name})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusOK, Fail("tenant not found"))
			return
		}
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(t))
}

func (h *DirectoryHandler) deleteTenant(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.svc.DeleteTenant(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusOK, Fail("tenant not found"))
			return
		}
		writeJSON(w, http.StatusOK, Fail("failed to delete tenant"))
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *DirectoryHandler) assignUser(w http.ResponseWriter, r *http.Request, tenantID string) {
	var payload membershipPayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil || payload.UserID == "" {
		writeJSON(w, http.StatusOK, Fail("user_id is required"))
		return
	}
	if err := h.svc.AssignUserToTenant(r.Context(), tenantID, payload.UserID); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyMember):
			// message is rendered verbatim as the console toast
			writeJSON(w, http.StatusOK, Fail("This user is already assigned to this tenant."))
		case errors.Is(err, repository.ErrNotFound):
			writeJSON(w, http.StatusOK, Fail("tenant or user not found"))
		default:
			h.logger.Error("failed to assign user", zap.Error(err),
				zap.String("tenant_id", tenantID), zap.String("user_id", payload.UserID))
			writeJSON(w, http.StatusOK, Fail("failed to assign user"))
		}
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *DirectoryHandler) removeUser(w http.ResponseWriter, r *http.Request, tenantID, userID string) {
	if err := h.svc.RemoveUserFromTenant(r.Context(), tenantID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusOK, Fail("tenant or user not found"))
			return
		}
		writeJSON(w, http.StatusOK, Fail("failed to remove user"))
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *DirectoryHandler) availableUsers(w http.ResponseWriter, r *http.Request, tenantID string) {
	users, err := h.svc.AvailableUsers(r.Context(), tenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusOK, Fail("tenant not found"))
			return
		}
		writeJSON(w, http.StatusOK, Fail("failed to list available users"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": users, "total": len(users)}))
}
