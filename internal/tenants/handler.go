package tenants

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/modular-admin/modular-admin/internal/platform/httpx"
	"github.com/modular-admin/modular-admin/internal/rbac"
	"github.com/modular-admin/modular-admin/internal/shared"
)

// Handler manages tenant endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers tenant routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Patch("/", h.update)
	r.Delete("/", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var req ListRequest
	if !h.bind(w, r, &req) {
		return
	}
	if req.Name != "" {
		t, err := h.service.Describe(r.Context(), req.CustomerID, req.Name)
		if err != nil {
			h.respondError(w, "describe tenant", err)
			return
		}
		httpx.JSON(w, http.StatusOK, t)
		return
	}
	limit, err := httpx.PageLimit(req.Limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, next, err := h.service.List(r.Context(), req.CustomerID, limit, req.NextToken)
	if err != nil {
		h.respondError(w, "list tenants", err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewPage(items, next))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !h.bind(w, r, &req) {
		return
	}
	t, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondError(w, "create tenant", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if !h.bind(w, r, &req) {
		return
	}
	t, err := h.service.Update(r.Context(), req)
	if err != nil {
		h.respondError(w, "update tenant", err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if !h.bind(w, r, &req) {
		return
	}
	if err := h.service.Delete(r.Context(), req.CustomerID, req.Name); err != nil {
		h.respondError(w, "delete tenant", err)
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
