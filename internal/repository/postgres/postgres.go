package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"

	_ "github.com/lib/pq"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	q  DBTX
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) Users() repository.UserRepository { return &userRepository{db: s.q} }
func (s *Store) Equipment() repository.EquipmentRepository { return &equipmentRepository{db: s.q} }
func (s *Store) Rentals() repository.RentalRepository { return &rentalRepository{db: s.q} }
func (s *Store) Repairs() repository.RepairRepository { return &repairRepository{db: s.q} }
func (s *Store) Payments() repository.PaymentRepository { return &paymentRepository{db: s.q} }
func (s *Store) Damages() repository.DamageRepository { return &damageRepository{db: s.q} }
func (s *Store) Audit() repository.AuditRepository { return &auditRepository{db: s.q} }
func (s *Store) Reports() repository.ReportRepository { return &reportRepository{db: s.q} }

// WithTx runs fn in a read-committed transaction. The transaction is committed
// only when fn returns nil. Nested calls reuse the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Store{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		logger.Error("Transaction commit failed", "error", err)
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return errors.New("ping inside transaction")
	}
	return s.db.PingContext(ctx)
}

// checkAffected turns a zero-row guarded update into repository.ErrStatusChanged.
func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrStatusChanged
	}
	return nil
}
