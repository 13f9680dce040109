package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/adsops/adsops/application/port/outbound"
	"github.com/adsops/adsops/domain/entity"
	domainerr "github.com/adsops/adsops/domain/error"
	"github.com/adsops/adsops/infrastructure/service/logger"
)

// AuditLogRepository writes audit entries to the audit_log table
type AuditLogRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ outbound.AuditLog = (*AuditLogRepository)(nil)

func NewAuditLogRepository(db *sql.DB) *AuditLogRepository {
	return &AuditLogRepository{
		db:  db,
		now: time.Now,
	}
}

func (r *AuditLogRepository) LogWriteOperation(ctx context.Context, actor, operationName, resourceID string, details map[string]interface{}) error {
	return r.insert(ctx, r.entry(ctx, entity.AuditKindWrite, actor, operationName, resourceID, "", details))
}

func (r *AuditLogRepository) LogFailedOperation(ctx context.Context, actor, operationName, resourceID, errorMessage string, details map[string]interface{}) error {
	return r.insert(ctx, r.entry(ctx, entity.AuditKindFailed, actor, operationName, resourceID, errorMessage, details))
}

func (r *AuditLogRepository) LogReadOperation(ctx context.Context, actor, operationName, resourceID string, details map[string]interface{}) error {
	return r.insert(ctx, r.entry(ctx, entity.AuditKindRead, actor, operationName, resourceID, "", details))
}

func (r *AuditLogRepository) entry(ctx context.Context, kind entity.AuditKind, actor, operationName, resourceID, errorMessage string, details map[string]interface{}) *entity.AuditEntry {
	return &entity.AuditEntry{
		ID:            uuid.NewString(),
		Kind:          kind,
		Actor:         actor,
		OperationName: operationName,
		ResourceID:    resourceID,
		ErrorMessage:  errorMessage,
		Details:       details,
		CorrelationID: logger.CorrelationIDFromContext(ctx),
		CreatedAt:     r.now().UTC(),
	}
}

func (r *AuditLogRepository) insert(ctx context.Context, e *entity.AuditEntry) error {
	if e.OperationName == "" {
		return domainerr.NewAuditError("insert", fmt.Errorf("operation name is required"))
	}

	detailsJSON := []byte("{}")
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return domainerr.NewAuditError("encode details", err)
		}
		detailsJSON = b
	}

	query := `
		INSERT INTO audit_log (id, kind, actor, operation_name, resource_id, error_message, details, correlation_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		string(e.Kind),
		e.Actor,
		e.OperationName,
		nullString(e.ResourceID),
		nullString(e.ErrorMessage),
		string(detailsJSON),
		nullString(e.CorrelationID),
		e.CreatedAt,
	)
	if err != nil {
		return domainerr.NewAuditError("insert", fmt.Errorf("failed to insert audit entry: %w", err))
	}
	return nil
}

// ListByOperation returns the most recent entries for an operation, newest first
func (r *AuditLogRepository) ListByOperation(ctx context.Context, operationName string, limit int) ([]*entity.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, actor, operation_name, resource_id, error_message, details, correlation_id, created_at
		FROM audit_log
		WHERE operation_name = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, operationName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []*entity.AuditEntry
	for rows.Next() {
		var e entity.AuditEntry
		var kind string
		var resourceID, errorMessage, correlation sql.NullString
		var detailsJSON []byte
		if err := rows.Scan(&e.ID, &kind, &e.Actor, &e.OperationName, &resourceID, &errorMessage, &detailsJSON, &correlation, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Kind = entity.AuditKind(kind)
		e.ResourceID = resourceID.String
		e.ErrorMessage = errorMessage.String
		e.CorrelationID = correlation.String
		if len(detailsJSON) > 0 {
			if err := json.Unmarshal(detailsJSON, &e.Details); err != nil {
				return nil, fmt.Errorf("failed to decode audit details: %w", err)
			}
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log: %w", err)
	}
	return entries, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
