package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/modular-admin/modular-admin/internal/platform/httpx"
)

// PermissionsHandler serves the discoverable part of the catalog.
type PermissionsHandler struct {
	catalog *Catalog
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(catalog *Catalog) *PermissionsHandler {
	return &PermissionsHandler{catalog: catalog}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.listPermissions)
}

type listPermissionsRequest struct {
	Domain string `json:"domain" validate:"omitempty,alphanum"`
}

// listPermissions answers with every visible permission, optionally narrowed
// to a single resource domain.
func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	var req listPermissionsRequest
	if err := httpx.Bind(ParamsFromContext(r.Context()), &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	items := h.catalog.Describe()
	if req.Domain != "" {
		filtered := items[:0]
		for _, info := range items {
			if domain, _, _ := info.Permission.Split(); domain == req.Domain {
				filtered = append(filtered, info)
			}
		}
		items = filtered
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}
