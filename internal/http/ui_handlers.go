package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"iot-console/internal/service"
)

// UIHandler exposes the transient popover-menu anchors.
type UIHandler struct {
	state  *service.UIState
	logger *zap.Logger
}

func NewUIHandler(state *service.UIState, logger *zap.Logger) *UIHandler {
	return &UIHandler{state: state, logger: logger}
}

type menuPayload struct {
	Anchor string `json:"anchor"`
}

func (h *UIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/console/api/v1/ui/menus/")
	if name != service.MenuDevices && name != service.MenuUser {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		anchor, open := h.state.MenuAnchor(name)
		writeJSON(w, http.StatusOK, Ok(map[string]any{"open": open, "anchor": anchor}))

	case http.MethodPost:
		var payload menuPayload
		if err := readBodyJSON(r, 4<<10, &payload); err != nil || payload.Anchor == "" {
			writeJSON(w, http.StatusOK, Fail("anchor is required"))
			return
		}
		h.state.OpenMenu(name, payload.Anchor)
		writeJSON(w, http.StatusOK, Ok[any](nil))

	case http.MethodDelete:
		h.state.CloseMenu(name)
		writeJSON(w, http.StatusOK, Ok[any](nil))

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
