package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"

	"github.com/modular-admin/modular-admin/internal/customers"
	jobmetrics "github.com/modular-admin/modular-admin/internal/jobs"
	"github.com/modular-admin/modular-admin/internal/rbac"
)

// CustomerWalker iterates every stored customer.
type CustomerWalker interface {
	Each(ctx context.Context, fn func(customers.Customer) error) error
}

// RoleWalker iterates the roles of one customer.
type RoleWalker interface {
	EachRole(ctx context.Context, customer string, fn func(rbac.Role) error) error
}

// ExpiredRole identifies a role past its expiration instant.
type ExpiredRole struct {
	Customer   string    `json:"customer"`
	Name       string    `json:"name"`
	Expiration time.Time `json:"expiration"`
}

// AuditReport summarises one audit run.
type AuditReport struct {
	Customers int           `json:"customers"`
	Roles     int           `json:"roles"`
	Expired   []ExpiredRole `json:"expired"`
}

// ExpiredRolesAuditJob walks customers and their roles looking for roles
// whose expiration has passed. It only reads; expired roles already grant
// nothing at evaluation time.
type ExpiredRolesAuditJob struct {
	Customers CustomerWalker
	Roles     RoleWalker
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewExpiredRolesAuditJob initialises the expired role audit handler.
func NewExpiredRolesAuditJob(customers CustomerWalker, roles RoleWalker, logger *slog.Logger, metrics *jobmetrics.Metrics) *ExpiredRolesAuditJob {
	return &ExpiredRolesAuditJob{
		Customers: customers,
		Roles:     roles,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the audit for an Asynq task.
func (j *ExpiredRolesAuditJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("expired roles audit: handler not configured")
	}
	var payload ExpiredRolesAuditPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("expired roles audit: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	_, err := j.Run(ctx, payload)
	return err
}

// Run audits the customers selected by payload and returns what it found.
func (j *ExpiredRolesAuditJob) Run(ctx context.Context, payload ExpiredRolesAuditPayload) (report AuditReport, resultErr error) {
	if j.Customers == nil || j.Roles == nil {
		return AuditReport{}, errors.New("expired roles audit: stores not configured")
	}
	start := j.now()
	tracker := j.metrics().Track(TaskExpiredRolesAudit)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	if payload.Customer != "" {
		logger = logger.With(slog.String("customer", payload.Customer))
	}
	logger.Info("starting expired roles audit")

	report.Expired = make([]ExpiredRole, 0)
	err := j.Customers.Each(ctx, func(c customers.Customer) error {
		if payload.Customer != "" && c.Name != payload.Customer {
			return nil
		}
		report.Customers++
		expired := 0
		err := j.Roles.EachRole(ctx, c.Name, func(role rbac.Role) error {
			report.Roles++
			if !role.Expired(start) {
				return nil
			}
			expired++
			report.Expired = append(report.Expired, ExpiredRole{
				Customer:   c.Name,
				Name:       role.Name,
				Expiration: role.Expiration.UTC(),
			})
			logger.Warn("expired role still stored",
				slog.String("customer", c.Name),
				slog.String("role", role.Name),
				slog.Time("expiration", role.Expiration.UTC()),
			)
			return nil
		})
		if err != nil {
			return fmt.Errorf("customer %s: %w", c.Name, err)
		}
		j.metrics().SetExpiredRoles(c.Name, expired)
		return nil
	})
	if err != nil {
		logger.Error("audit failed", slog.Any("error", err))
		return report, fmt.Errorf("expired roles audit: %w", err)
	}

	logger.Info("completed expired roles audit",
		slog.Int("customers", report.Customers),
		slog.Int("roles", report.Roles),
		slog.Int("expired", len(report.Expired)),
		slog.Duration("duration", j.now().Sub(start)),
	)
	return report, nil
}

func (j *ExpiredRolesAuditJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskExpiredRolesAudit))
	}
	return slog.Default().With(slog.String("job", TaskExpiredRolesAudit))
}

func (j *ExpiredRolesAuditJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ExpiredRolesAuditJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
