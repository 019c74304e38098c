// Package audit records who changed what.
//
// Audit logs are append-only records of event mutations and account
// activity. Nothing in the application updates or deletes them.
package audit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"geoevents.io/geoevents/internal/pkg/logger"
)

// Actions.
const (
	ActionEventCreate  = "event.create"
	ActionEventUpdate  = "event.update"
	ActionEventDelete  = "event.delete"
	ActionEventBulk    = "event.bulk_import"
	ActionVideoSubmit  = "video.submit"
	ActionVideoUpload  = "video.upload"
	ActionUserSignup   = "user.signup"
	ActionUserLogin    = "user.login"
	ResourceTypeEvent  = "event"
	ResourceTypeUser   = "user"
	ResourceTypeObject = "object"
)

const auditTable = "audit_logs"

// Execer is the write surface of *pgxpool.Pool.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Logger writes audit records to the database.
type Logger struct {
	db  Execer
	now func() time.Time
}

// NewLogger creates a new audit Logger.
func NewLogger(db Execer) *Logger {
	return &Logger{db: db, now: time.Now}
}

// LogAction records an auditable action.
func (l *Logger) LogAction(ctx context.Context, action, resourceType, resourceID string, actor int64, details map[string]interface{}) error {
	var detailsJSON *string
	if len(details) > 0 {
		b, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		s := string(b)
		detailsJSON = &s
	}

	q, args := entsql.Dialect(dialect.Postgres).Insert(auditTable).
		Columns("id", "action", "resource_type", "resource_id", "actor", "details", "created_at").
		Values(generateAuditID(), action, resourceType, resourceID, actor, detailsJSON, l.now().UTC()).
		Query()

	if _, err := l.db.Exec(ctx, q, args...); err != nil {
		logger.Ctx(ctx).Error("Failed to write audit log",
			zap.String("action", action),
			zap.String("resource_type", resourceType),
			zap.String("resource_id", resourceID),
			zap.Error(err),
		)
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// LogEventChange records a mutation of one event.
func (l *Logger) LogEventChange(ctx context.Context, action string, eventID, actor int64) error {
	return l.LogAction(ctx, action, ResourceTypeEvent, strconv.FormatInt(eventID, 10), actor, nil)
}

func generateAuditID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "audit-" + uuid.New().String()
	}
	return "audit-" + id.String()
}
