package httpapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"go.uber.org/zap"

	"iot-console/internal/service"
)

func TestMenuLifecycle(t *testing.T) {
	h := NewUIHandler(service.NewUIState(), zap.NewNop())

	env := decodeEnvelope(t, doJSON(t, h, http.MethodGet, "/console/api/v1/ui/menus/devices", nil))
	var state struct {
		Open   bool   `json:"open"`
		Anchor string `json:"anchor"`
	}
	_ = json.Unmarshal(env.Result, &state)
	if state.Open {
		t.Fatal("menu starts closed")
	}

	env = decodeEnvelope(t, doJSON(t, h, http.MethodPost, "/console/api/v1/ui/menus/devices", map[string]any{
		"anchor": "add-device-button",
	}))
	if env.Code != ResultSuccess {
		t.Fatalf("open failed: %s", env.Message)
	}

	env = decodeEnvelope(t, doJSON(t, h, http.MethodGet, "/console/api/v1/ui/menus/devices", nil))
	_ = json.Unmarshal(env.Result, &state)
	if !state.Open || state.Anchor != "add-device-button" {
		t.Fatalf("unexpected state: %+v", state)
	}

	env = decodeEnvelope(t, doJSON(t, h, http.MethodDelete, "/console/api/v1/ui/menus/devices", nil))
	if env.Code != ResultSuccess {
		t.Fatalf("close failed: %s", env.Message)
	}
	env = decodeEnvelope(t, doJSON(t, h, http.MethodGet, "/console/api/v1/ui/menus/devices", nil))
	_ = json.Unmarshal(env.Result, &state)
	if state.Open {
		t.Fatal("menu must be closed")
	}
}

func TestMenuRejectsUnknownName(t *testing.T) {
	h := NewUIHandler(service.NewUIState(), zap.NewNop())
	rec := doJSON(t, h, http.MethodGet, "/console/api/v1/ui/menus/settings", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestMenuOpenRequiresAnchor(t *testing.T) {
	h := NewUIHandler(service.NewUIState(), zap.NewNop())
	env := decodeEnvelope(t, doJSON(t, h, http.MethodPost, "/console/api/v1/ui/menus/user", map[string]any{}))
	if env.Code != ResultError {
		t.Fatalf("expected error for missing anchor, got %+v", env)
	}
}
