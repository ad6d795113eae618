package service

import (
	"context"
	"fmt"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"
)

func recordAudit(ctx context.Context, tx repository.Store, table string, id int64, op domain.AuditOperation, oldValue, newValue any) error {
	entry, err := domain.NewAuditEntry(table, id, op, oldValue, newValue)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}
	if err := tx.Audit().Record(ctx, entry); err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}
