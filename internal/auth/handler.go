package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/modular-admin/modular-admin/internal/platform/httpx"
	"github.com/modular-admin/modular-admin/internal/rbac"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger  *slog.Logger
	service *Service
	limit   int
}

// NewHandler constructs a Handler instance. signInPerMinute bounds sign-in
// attempts per client IP; zero disables the limit.
func NewHandler(logger *slog.Logger, service *Service, signInPerMinute int) *Handler {
	return &Handler{logger: logger, service: service, limit: signInPerMinute}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.limit > 0 {
			r.Use(httprate.LimitByIP(h.limit, time.Minute))
		}
		r.Post("/signin", h.handleSignIn)
	})
	r.Post("/signout", h.handleSignOut)
}

type signInForm struct {
	CustomerID string `json:"customer_id"`
	Username   string `json:"username" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var form signInForm
	if err := httpx.Bind(rbac.ParamsFromContext(r.Context()), &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	token, err := h.service.SignIn(r.Context(), form.CustomerID, form.Username, form.Password)
	if err != nil {
		if !httpx.IsClientError(err) {
			h.logger.Error("sign in", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, token)
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	raw, ok := BearerToken(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if err := h.service.SignOut(r.Context(), raw); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		h.logger.Warn("sign out", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
