package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/modular-admin/modular-admin/internal/auth"
	"github.com/modular-admin/modular-admin/internal/customers"
	"github.com/modular-admin/modular-admin/internal/observability"
	"github.com/modular-admin/modular-admin/internal/platform/docstore"
	"github.com/modular-admin/modular-admin/internal/policies"
	"github.com/modular-admin/modular-admin/internal/rbac"
	"github.com/modular-admin/modular-admin/internal/roles"
	"github.com/modular-admin/modular-admin/internal/shared"
	"github.com/modular-admin/modular-admin/internal/tenants"
	"github.com/modular-admin/modular-admin/internal/users"
	"github.com/modular-admin/modular-admin/jobs"
)

// Dependencies are the external resources an Application is built over.
type Dependencies struct {
	Config  *Config
	Logger  *slog.Logger
	Store   docstore.Store
	Redis   redis.UniversalClient
	Metrics *observability.Metrics
	// Queue and Jobs are optional; without them the jobs endpoints report an
	// empty queue and refuse triggers.
	Queue jobs.QueueInspector
	Jobs  jobs.Enqueuer
}

// Application is the wired API process.
type Application struct {
	Router  http.Handler
	Catalog *rbac.Catalog
	Engine  *rbac.Engine
	Users   *users.Service
}

// NewApplication wires repositories, services and handlers over deps and
// ensures the configured system user exists.
func NewApplication(ctx context.Context, deps Dependencies) (*Application, error) {
	cfg, logger := deps.Config, deps.Logger
	if cfg == nil {
		return nil, errors.New("app: config required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Store == nil || deps.Redis == nil {
		return nil, errors.New("app: store and redis required")
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = observability.NewMetrics()
	}

	catalog := rbac.DefaultCatalog()
	auditLogger := shared.NewAuditLogger(deps.Store)

	policyRepo := policies.NewRepository(deps.Store)
	roleRepo := roles.NewRepository(deps.Store)
	userRepo := users.NewRepository(deps.Store)
	customerRepo := customers.NewRepository(deps.Store)
	tenantRepo := tenants.NewRepository(deps.Store)

	engine := rbac.NewEngine(roleRepo, policyRepo,
		rbac.WithLogger(logger),
		rbac.WithConcurrency(cfg.PolicyResolveConcurrency),
	)

	policyService := policies.NewService(policyRepo, catalog, auditLogger, logger)
	roleService := roles.NewService(roleRepo, policyRepo, auditLogger, logger)
	userService := users.NewService(userRepo, roleRepo, auditLogger, logger, users.WithBcryptCost(cfg.BcryptCost))
	customerService := customers.NewService(customerRepo, policyRepo, roleRepo, userService, catalog, auditLogger, logger)
	tenantService := tenants.NewService(tenantRepo)

	tokens, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, err
	}
	denylist := auth.NewRedisDenylist(deps.Redis, cfg.RedisPrefix+":revoked")
	authService := auth.NewService(userRepo, tokens, denylist)
	resolver := auth.NewResolver(tokens, denylist, userRepo)

	if cfg.SystemPassword != "" {
		if err := userService.EnsureSystemUser(ctx, cfg.SystemUsername, cfg.SystemPassword); err != nil {
			return nil, err
		}
		logger.Info("system user ready", slog.String("username", cfg.SystemUsername))
	} else {
		logger.Warn("SYSTEM_PASSWORD not set; no system user provisioned")
	}

	pipeline := rbac.NewPipeline(catalog, engine, resolver, logger, metrics)

	router := NewRouter(RouterParams{
		Logger:             logger,
		Config:             cfg,
		Pipeline:           pipeline,
		Metrics:            metrics,
		AuthHandler:        auth.NewHandler(logger, authService, cfg.SignInRateLimitPerMinute),
		CustomersHandler:   customers.NewHandler(logger, customerService),
		TenantsHandler:     tenants.NewHandler(logger, tenantService),
		RolesHandler:       roles.NewHandler(logger, roleService),
		PoliciesHandler:    policies.NewHandler(logger, policyService),
		UsersHandler:       users.NewHandler(logger, userService),
		PermissionsHandler: rbac.NewPermissionsHandler(catalog),
		JobHandler:         jobs.NewHandler(deps.Queue, deps.Jobs, logger),
	})

	return &Application{Router: router, Catalog: catalog, Engine: engine, Users: userService}, nil
}
