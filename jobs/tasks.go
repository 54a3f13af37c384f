package jobs

import (
	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/modular-admin/modular-admin/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskExpiredRolesAudit reports roles whose expiration has passed.
	TaskExpiredRolesAudit = "rbac:expired_roles_audit"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ExpiredRolesAuditPayload narrows an audit to one customer. An empty
// Customer audits every customer.
type ExpiredRolesAuditPayload struct {
	Customer string `json:"customer,omitempty"`
}

// NewExpiredRolesAuditTask constructs an Asynq task.
func NewExpiredRolesAuditTask(payload ExpiredRolesAuditPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskExpiredRolesAudit, data, asynq.Queue(QueueDefault)), nil
}
