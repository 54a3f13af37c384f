package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/modular-admin/modular-admin/internal/auth"
	"github.com/modular-admin/modular-admin/internal/customers"
	"github.com/modular-admin/modular-admin/internal/observability"
	"github.com/modular-admin/modular-admin/internal/platform/httpx"
	"github.com/modular-admin/modular-admin/internal/policies"
	"github.com/modular-admin/modular-admin/internal/rbac"
	"github.com/modular-admin/modular-admin/internal/roles"
	"github.com/modular-admin/modular-admin/internal/tenants"
	"github.com/modular-admin/modular-admin/internal/users"
	"github.com/modular-admin/modular-admin/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Pipeline           *rbac.Pipeline
	Metrics            *observability.Metrics
	AuthHandler        *auth.Handler
	CustomersHandler   *customers.Handler
	TenantsHandler     *tenants.Handler
	RolesHandler       *roles.Handler
	PoliciesHandler    *policies.Handler
	UsersHandler       *users.Handler
	PermissionsHandler *rbac.PermissionsHandler
	JobHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router. Every route passes through the
// authorization pipeline; public routes are listed in rbac.PublicRoutes.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:   params.Logger,
		Config:   params.Config,
		Metrics:  params.Metrics,
		Pipeline: params.Pipeline,
	}) {
		r.Use(mw)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "", "")
	})

	r.Get(string(rbac.EndpointHealth), func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, string(rbac.EndpointMetrics), params.Metrics.Handler())

	if params.AuthHandler != nil {
		params.AuthHandler.MountRoutes(r)
	}
	if params.CustomersHandler != nil {
		params.CustomersHandler.MountPublicRoutes(r)
		r.Route(string(rbac.EndpointCustomers), params.CustomersHandler.MountRoutes)
	}
	if params.TenantsHandler != nil {
		r.Route(string(rbac.EndpointTenants), params.TenantsHandler.MountRoutes)
	}
	if params.RolesHandler != nil {
		r.Route(string(rbac.EndpointRoles), params.RolesHandler.MountRoutes)
	}
	if params.PoliciesHandler != nil {
		r.Route(string(rbac.EndpointPolicies), params.PoliciesHandler.MountRoutes)
	}
	if params.UsersHandler != nil {
		r.Route(string(rbac.EndpointUsers), params.UsersHandler.MountRoutes)
	}
	if params.PermissionsHandler != nil {
		r.Route(string(rbac.EndpointPermissions), params.PermissionsHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route(string(rbac.EndpointJobs), params.JobHandler.MountRoutes)
	}

	return r
}
