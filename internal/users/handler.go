package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/modular-admin/modular-admin/internal/platform/httpx"
	"github.com/modular-admin/modular-admin/internal/rbac"
	"github.com/modular-admin/modular-admin/internal/shared"
)

// Handler manages user management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Post("/", h.createUser)
	r.Patch("/", h.updateUser)
	r.Delete("/", h.deleteUser)
	r.Post("/reset-password", h.resetPassword)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	var req ListUsersRequest
	if !h.bind(w, r, &req) {
		return
	}
	if req.Username != "" {
		profile, err := h.service.DescribeUser(r.Context(), req.CustomerID, req.Username)
		if err != nil {
			h.respondError(w, "describe user", err)
			return
		}
		httpx.JSON(w, http.StatusOK, profile)
		return
	}
	limit, err := httpx.PageLimit(req.Limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	users, next, err := h.service.ListUsers(r.Context(), req.CustomerID, limit, req.NextToken)
	if err != nil {
		h.respondError(w, "list users failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewPage(users, next))
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !h.bind(w, r, &req) {
		return
	}
	profile, err := h.service.CreateUser(r.Context(), req)
	if err != nil {
		h.respondError(w, "create user", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, profile)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if !h.bind(w, r, &req) {
		return
	}
	profile, err := h.service.UpdateUser(r.Context(), req)
	if err != nil {
		h.respondError(w, "update user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	var req DeleteUserRequest
	if !h.bind(w, r, &req) {
		return
	}
	if err := h.service.DeleteUser(r.Context(), req.CustomerID, req.Username); err != nil {
		h.respondError(w, "delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !h.bind(w, r, &req) {
		return
	}
	if err := h.service.ResetPassword(r.Context(), req); err != nil {
		h.respondError(w, "reset password", err)
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
