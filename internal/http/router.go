package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterAuthRoutes：session management
func (r *Router) RegisterAuthRoutes(h *AuthHandler) {
	r.Handle("/auth/api/v1/login", h.ServeHTTP)
	r.Handle("/auth/api/v1/logout", h.ServeHTTP)
	r.Handle("/auth/api/v1/session", h.ServeHTTP)
	r.Handle("/auth/api/v1/profile", h.ServeHTTP)
	r.Handle("/auth/api/v1/notifications", h.ServeHTTP)
}

// RegisterAdminDeviceRoutes：device collection + dashboard + export
func (r *Router) RegisterAdminDeviceRoutes(h *DevicesHandler) {
	r.Handle("/admin/api/v1/devices", h.ServeHTTP)
	r.Handle("/admin/api/v1/devices/", h.ServeHTTP)
}

// RegisterAdminDirectoryRoutes：users + tenants + memberships
func (r *Router) RegisterAdminDirectoryRoutes(h *DirectoryHandler) {
	r.Handle("/admin/api/v1/users", h.ServeHTTP)
	r.Handle("/admin/api/v1/users/", h.ServeHTTP)
	r.Handle("/admin/api/v1/tenants", h.ServeHTTP)
	r.Handle("/admin/api/v1/tenants/", h.ServeHTTP)
}

// RegisterUIRoutes：transient menu anchors
func (r *Router) RegisterUIRoutes(h *UIHandler) {
	r.Handle("/console/api/v1/ui/menus/", h.ServeHTTP)
}
