package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/modular-admin/modular-admin/internal/platform/docstore"
)

// AuditCollection holds one document per recorded mutation.
const AuditCollection = "audit"

// AuditLog represents a record stored in the audit collection.
type AuditLog struct {
	ID       string         `json:"id"`
	Customer string         `json:"customer"`
	Actor    string         `json:"actor"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entity_id"`
	Meta     map[string]any `json:"meta,omitempty"`
	At       time.Time      `json:"at"`
}

// AuditLogger writes records into the audit collection.
type AuditLogger struct {
	logs  *docstore.Collection[AuditLog]
	clock func() time.Time
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(store docstore.Store) *AuditLogger {
	return &AuditLogger{
		logs:  docstore.NewCollection[AuditLog](store, AuditCollection),
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// Record persists the log entry. Entries are named by timestamp so a customer's
// trail lists in chronological order.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	if log.At.IsZero() {
		log.At = l.clock()
	}
	log.ID = fmt.Sprintf("%s-%s", log.At.UTC().Format("20060102T150405.000000000Z"), uuid.NewString())
	return l.logs.Insert(ctx, log.Customer, log.ID, log)
}

// List returns one page of a customer's audit trail, oldest first.
func (l *AuditLogger) List(ctx context.Context, customer string, limit int, cursor string) ([]AuditLog, string, error) {
	return l.logs.List(ctx, customer, limit, cursor)
}
