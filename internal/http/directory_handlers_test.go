package httpapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"go.uber.org/zap"

	"iot-console/internal/domain"
	"iot-console/internal/repository"
	"iot-console/internal/service"
)

func newDirectoryHandler(t *testing.T) *DirectoryHandler {
	t.Helper()
	repo := repository.NewMemoryDirectoryRepo()
	svc := service.NewDirectoryService(repo, nil, zap.NewNop())
	return NewDirectoryHandler(svc, zap.NewNop())
}

func createUserHTTP(t *testing.T, h *DirectoryHandler, name, email string) domain.User {
	t.Helper()
	env := decodeEnvelope(t, doJSON(t, h, http.MethodPost, "/admin/api/v1/users", map[string]any{
		"name": name, "email": email,
	}))
	if env.Code != ResultSuccess {
		t.Fatalf("create user failed: %s", env.Message)
	}
	var u domain.User
	if err := json.Unmarshal(env.Result, &u); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	return u
}

func createTenantHTTP(t *testing.T, h *DirectoryHandler, name string) domain.Tenant {
	t.Helper()
	env := decodeEnvelope(t, doJSON(t, h, http.MethodPost, "/admin/api/v1/tenants", map[string]any{
		"name": name,
	}))
	if env.Code != ResultSuccess {
		t.Fatalf("create tenant failed: %s", env.Message)
	}
	var tn domain.Tenant
	if err := json.Unmarshal(env.Result, &tn); err != nil {
		t.Fatalf("decode tenant: %v", err)
	}
	return tn
}

func TestUserCRUDOverHTTP(t *testing.T) {
	h := newDirectoryHandler(t)

	u := createUserHTTP(t, h, "John Doe", "john@example.com")
	if u.UserID == "" || len(u.TenantIDs) != 0 {
		t.Fatalf("unexpected created user: %+v", u)
	}

	env := decodeEnvelope(t, doJSON(t, h, http.MethodPut, "/admin/api/v1/users/"+u.UserID, map[string]any{
		"name": "Johnny Doe",
	}))
	if env.Code != ResultSuccess {
		t.Fatalf("update failed: %s", env.Message)
	}

	env = decodeEnvelope(t, doJSON(t, h, http.MethodGet, "/admin/api/v1/users", nil))
	var listed struct {
		Items []domain.User `json:"items"`
		Total int           `json:"total"`
	}
	_ = json.Unmarshal(env.Result, &listed)
	if listed.Total != 1 || listed.Items[0].Name != "Johnny Doe" {
		t.Fatalf("unexpected list: %+v", listed)
	}

	env = decodeEnvelope(t, doJSON(t, h, http.MethodDelete, "/admin/api/v1/users/"+u.UserID, nil))
	if env.Code != ResultSuccess {
		t.Fatalf("delete failed: %s", env.Message)
	}
	env = decodeEnvelope(t, doJSON(t, h, http.MethodDelete, "/admin/api/v1/users/"+u.UserID, nil))
	if env.Code != ResultError || env.Message != "user not found" {
		t.Fatalf("expected user not found, got %+v", env)
	}
}

func TestUserCreateValidation(t *testing.T) {
	h := newDirectoryHandler(t)
	env := decodeEnvelope(t, doJSON(t, h, http.MethodPost, "/admin/api/v1/users", map[string]any{
		"name": "Bad Email", "email": "nope",
	}))
	if env.Code != ResultError {
		t.Fatalf("expected validation failure, got %+v", env)
	}
}

func TestAssignFlowOverHTTP(t *testing.T) {
	h := newDirectoryHandler(t)

	john := createUserHTTP(t, h, "John Doe", "john@example.com")
	jane := createUserHTTP(t, h, "Jane Smith", "jane@example.com")
	acme := createTenantHTTP(t, h, "Acme Corp")

	env := decodeEnvelope(t, doJSON(t, h, http.MethodPost, "/admin/api/v1/tenants/"+acme.TenantID+"/users", map[string]any{
		"user_id": john.UserID,
	}))
	if env.Code != ResultSuccess {
		t.Fatalf("assign failed: %s", env.Message)
	}

	// the duplicate assignment message is rendered verbatim as a toast
	env = decodeEnvelope(t, doJSON(t, h, http.MethodPost, "/admin/api/v1/tenants/"+acme.TenantID+"/users", map[string]any{
		"user_id": john.UserID,
	}))
	if env.Code != ResultError || env.Message != "This user is already assigned to this tenant." {
		t.Fatalf("unexpected duplicate response: %+v", env)
	}

	env = decodeEnvelope(t, doJSON(t, h, http.MethodGet, "/admin/api/v1/tenants/"+acme.TenantID+"/available-users", nil))
	var avail struct {
		Items []domain.User `json:"items"`
		Total int           `json:"total"`
	}
	_ = json.Unmarshal(env.Result, &avail)
	if avail.Total != 1 || avail.Items[0].UserID != jane.UserID {
		t.Fatalf("expected only Jane available, got %+v", avail)
	}

	env = decodeEnvelope(t, doJSON(t, h, http.MethodDelete, "/admin/api/v1/tenants/"+acme.TenantID+"/users/"+john.UserID, nil))
	if env.Code != ResultSuccess {
		t.Fatalf("remove failed: %s", env.Message)
	}

	env = decodeEnvelope(t, doJSON(t, h, http.MethodGet, "/admin/api/v1/tenants/"+acme.TenantID+"/available-users", nil))
	_ = json.Unmarshal(env.Result, &avail)
	if avail.Total != 2 {
		t.Fatalf("expected both users available after removal, got %+v", avail)
	}
}

func TestAssignUnknownTenantOverHTTP(t *testing.T) {
	h := newDirectoryHandler(t)
	john := createUserHTTP(t, h, "John Doe", "john@example.com")

	env := decodeEnvelope(t, doJSON(t, h, http.MethodPost, "/admin/api/v1/tenants/missing/users", map[string]any{
		"user_id": john.UserID,
	}))
	if env.Code != ResultError || env.Message != "tenant or user not found" {
		t.Fatalf("unexpected response: %+v", env)
	}
}

func TestTenantDeleteCascadesOverHTTP(t *testing.T) {
	h := newDirectoryHandler(t)

	john := createUserHTTP(t, h, "John Doe", "john@example.com")
	acme := createTenantHTTP(t, h, "Acme Corp")

	env := decodeEnvelope(t, doJSON(t, h, http.MethodPost, "/admin/api/v1/tenants/"+acme.TenantID+"/users", map[string]any{
		"user_id": john.UserID,
	}))
	if env.Code != ResultSuccess {
		t.Fatalf("assign failed: %s", env.Message)
	}

	env = decodeEnvelope(t, doJSON(t, h, http.MethodDelete, "/admin/api/v1/tenants/"+acme.TenantID, nil))
	if env.Code != ResultSuccess {
		t.Fatalf("delete tenant failed: %s", env.Message)
	}

	env = decodeEnvelope(t, doJSON(t, h, http.MethodGet, "/admin/api/v1/users", nil))
	var listed struct {
		Items []domain.User `json:"items"`
	}
	_ = json.Unmarshal(env.Result, &listed)
	if len(listed.Items) != 1 || len(listed.Items[0].TenantIDs) != 0 {
		t.Fatalf("tenant id must be cascaded out of user: %+v", listed.Items)
	}
}

func TestAssignRequiresUserID(t *testing.T) {
	h := newDirectoryHandler(t)
	acme := createTenantHTTP(t, h, "Acme Corp")

	env := decodeEnvelope(t, doJSON(t, h, http.MethodPost, "/admin/api/v1/tenants/"+acme.TenantID+"/users", map[string]any{}))
	if env.Code != ResultError {
		t.Fatalf("expected error for missing user_id, got %+v", env)
	}
}
