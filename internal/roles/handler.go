package roles

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/modular-admin/modular-admin/internal/platform/httpx"
	"github.com/modular-admin/modular-admin/internal/rbac"
	"github.com/modular-admin/modular-admin/internal/shared"
)

// Handler manages role management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listRoles)
	r.Post("/", h.createRole)
	r.Patch("/", h.updateRole)
	r.Delete("/", h.deleteRole)
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	var filters RoleListFilters
	if !h.bind(w, r, &filters) {
		return
	}
	if filters.Name != "" {
		role, err := h.service.DescribeRole(r.Context(), filters.CustomerID, filters.Name)
		if err != nil {
			h.respondError(w, "describe role", err)
			return
		}
		httpx.JSON(w, http.StatusOK, role)
		return
	}
	limit, err := httpx.PageLimit(filters.Limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	roles, next, err := h.service.ListRoles(r.Context(), filters.CustomerID, limit, filters.NextToken)
	if err != nil {
		h.respondError(w, "list roles", err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewPage(roles, next))
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if !h.bind(w, r, &req) {
		return
	}
	role, err := h.service.CreateRole(r.Context(), req)
	if err != nil {
		h.respondError(w, "create role", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, role)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if !h.bind(w, r, &req) {
		return
	}
	role, err := h.service.UpdateRole(r.Context(), req)
	if err != nil {
		h.respondError(w, "update role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	var req DeleteRoleRequest
	if !h.bind(w, r, &req) {
		return
	}
	if err := h.service.DeleteRole(r.Context(), req.CustomerID, req.Name); err != nil {
		h.respondError(w, "delete role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) bind(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.Bind(rbac.ParamsFromContext(r.Context()), target); err != nil {
		httpx.RespondError(w, err)
		return false
	}
	return true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if !httpx.IsClientError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
