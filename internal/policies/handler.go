package policies

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/modular-admin/modular-admin/internal/platform/httpx"
	"github.com/modular-admin/modular-admin/internal/rbac"
	"github.com/modular-admin/modular-admin/internal/shared"
)

// Handler manages policy endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers policy routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listPolicies)
	r.Post("/", h.createPolicy)
	r.Patch("/", h.updatePolicy)
	r.Delete("/", h.deletePolicy)
}

func (h *Handler) listPolicies(w http.ResponseWriter, r *http.Request) {
	var req ListRequest
	if err := httpx.Bind(rbac.ParamsFromContext(r.Context()), &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if req.Name != "" {
		policy, err := h.service.Describe(r.Context(), req.CustomerID, req.Name)
		if err != nil {
			h.fail(w, "describe policy", err)
			return
		}
		httpx.JSON(w, http.StatusOK, policy)
		return
	}
	limit, err := httpx.PageLimit(req.Limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, next, err := h.service.List(r.Context(), req.CustomerID, limit, req.NextToken)
	if err != nil {
		h.fail(w, "list policies", err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewPage(items, next))
}

func (h *Handler) createPolicy(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.Bind(rbac.ParamsFromContext(r.Context()), &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	policy, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.fail(w, "create policy", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, policy)
}

func (h *Handler) updatePolicy(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := httpx.Bind(rbac.ParamsFromContext(r.Context()), &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	policy, err := h.service.Update(r.Context(), req)
	if err != nil {
		h.fail(w, "update policy", err)
		return
	}
	httpx.JSON(w, http.StatusOK, policy)
}

func (h *Handler) deletePolicy(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if err := httpx.Bind(rbac.ParamsFromContext(r.Context()), &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), req.CustomerID, req.Name); err != nil {
		h.fail(w, "delete policy", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if !httpx.IsClientError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
