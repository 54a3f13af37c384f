package customers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/modular-admin/modular-admin/internal/platform/httpx"
	"github.com/modular-admin/modular-admin/internal/rbac"
	"github.com/modular-admin/modular-admin/internal/shared"
)

// Handler manages customer endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers customer routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.describeCustomers)
	r.Post("/", h.createCustomer)
	r.Patch("/", h.updateCustomer)
	r.Delete("/", h.deleteCustomer)
}

// MountPublicRoutes registers the self-service sign up.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Post("/signup", h.signUp)
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !h.bind(w, r, &req) {
		return
	}
	result, err := h.service.SignUp(r.Context(), req)
	if err != nil {
		h.respondError(w, "sign up", err)
		return
	}
	h.logger.Info("customer signed up", slog.String("customer", result.Customer.Name))
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) describeCustomers(w http.ResponseWriter, r *http.Request) {
	var req DescribeRequest
	if !h.bind(w, r, &req) {
		return
	}
	if req.CustomerID != "" {
		customer, err := h.service.Describe(r.Context(), req.CustomerID)
		if err != nil {
			h.respondError(w, "describe customer", err)
			return
		}
		httpx.JSON(w, http.StatusOK, customer)
		return
	}
	if !shared.IsSystem(r.Context()) {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	limit, err := httpx.PageLimit(req.Limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, next, err := h.service.List(r.Context(), limit, req.NextToken)
	if err != nil {
		h.respondError(w, "list customers", err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewPage(items, next))
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	h.signUp(w, r)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if !h.bind(w, r, &req) {
		return
	}
	customer, err := h.service.Update(r.Context(), req)
	if err != nil {
		h.respondError(w, "update customer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if !h.bind(w, r, &req) {
		return
	}
	if err := h.service.Delete(r.Context(), req.CustomerID); err != nil {
		h.respondError(w, "delete customer", err)
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
