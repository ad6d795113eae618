package postgres

import (
	"context"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

type auditRepository struct {
	db DBTX
}

func NewAuditRepository(db DBTX) repository.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Record(ctx context.Context, e *domain.AuditEntry) error {
	if e.ChangedAt.IsZero() {
		e.ChangedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO audit_log (table_name, record_id, operation, old_data, new_data, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	logger.DatabaseCall("INSERT", "audit_log", "table", e.TableName, "recordID", e.RecordID)
	err := r.db.QueryRowContext(ctx, query,
		e.TableName, e.RecordID, e.Operation, nullJSON(e.OldData), nullJSON(e.NewData), e.ChangedAt,
	).Scan(&e.ID)
	logger.DatabaseResult("INSERT", 1, err, "table", e.TableName, "recordID", e.RecordID)
	return err
}

func nullJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
