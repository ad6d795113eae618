package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

const rentalColumns = `id, user_id, employee_id, start_date, end_date, return_date, status,
		       ROUND(total_cost * 100)::bigint, created_at, updated_at`

type rentalRepository struct {
	db DBTX
}

func NewRentalRepository(db DBTX) repository.RentalRepository {
	return &rentalRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRental(row rowScanner, rt *domain.Rental) error {
	return row.Scan(&rt.ID, &rt.ClientID, &rt.EmployeeID, &rt.StartDate, &rt.EndDate, &rt.ReturnDate,
		&rt.Status, &rt.TotalCostCents, &rt.CreatedAt, &rt.UpdatedAt)
}

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	logger.EnterMethod("rentalRepository.Create", "clientID", rt.ClientID, "items", len(rt.Items))

	query := `
		INSERT INTO rentals (user_id, employee_id, start_date, end_date, return_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query,
		rt.ClientID, rt.EmployeeID, rt.StartDate, rt.EndDate, rt.ReturnDate, rt.Status, now, now,
	).Scan(&rt.ID, &rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		logger.ExitMethodWithError("rentalRepository.Create", err, "clientID", rt.ClientID)
		return err
	}

	itemQuery := `
		INSERT INTO rental_items (rental_id, equipment_id, damage_fee, created_at)
		VALUES ($1, $2, $3::numeric / 100, $4)
		RETURNING id
	`
	for i := range rt.Items {
		item := &rt.Items[i]
		item.RentalID = rt.ID
		item.CreatedAt = now
		if err := r.db.QueryRowContext(ctx, itemQuery, rt.ID, item.EquipmentID, item.DamageFeeCents, now).Scan(&item.ID); err != nil {
			logger.ExitMethodWithError("rentalRepository.Create", err, "rentalID", rt.ID, "equipmentID", item.EquipmentID)
			return fmt.Errorf("insert rental item: %w", err)
		}
	}

	logger.ExitMethod("rentalRepository.Create", "rentalID", rt.ID)
	return nil
}

func (r *rentalRepository) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	logger.EnterMethod("rentalRepository.GetByID", "rentalID", id)

	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`
	rt := &domain.Rental{}
	if err := scanRental(r.db.QueryRowContext(ctx, query, id), rt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.NewNotFound("rental", id)
		}
		logger.ExitMethodWithError("rentalRepository.GetByID", err, "rentalID", id)
		return nil, err
	}

	logger.ExitMethod("rentalRepository.GetByID", "rentalID", id, "status", rt.Status)
	return rt, nil
}

func (r *rentalRepository) ListItems(ctx context.Context, rentalID int64) ([]domain.RentalItem, error) {
	query := `
		SELECT id, rental_id, equipment_id, ROUND(COALESCE(damage_fee, 0) * 100)::bigint, created_at
		FROM rental_items WHERE rental_id = $1 ORDER BY id
	`
	logger.DatabaseCall("SELECT", "rental_items", "rentalID", rentalID)
	rows, err := r.db.QueryContext(ctx, query, rentalID)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err, "rentalID", rentalID)
		return nil, err
	}
	defer rows.Close()

	var items []domain.RentalItem
	for rows.Next() {
		var it domain.RentalItem
		if err := rows.Scan(&it.ID, &it.RentalID, &it.EquipmentID, &it.DamageFeeCents, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	logger.DatabaseResult("SELECT", int64(len(items)), rows.Err(), "rentalID", rentalID)
	return items, rows.Err()
}

func (r *rentalRepository) List(ctx context.Context, f domain.RentalFilter) ([]domain.Rental, int32, error) {
	logger.EnterMethod("rentalRepository.List", "clientID", f.ClientID, "status", f.Status, "page", f.Page)

	var (
		conds []string
		args  []any
	)
	if f.ClientID > 0 {
		args = append(args, f.ClientID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + rentalColumns + ` FROM rentals`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	var count int32
	countQuery := "SELECT count(*) FROM (" + query + ") AS sub"
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		logger.ExitMethodWithError("rentalRepository.List", err)
		return nil, 0, err
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.PageSize, f.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.ExitMethodWithError("rentalRepository.List", err)
		return nil, 0, err
	}
	defer rows.Close()

	var rentals []domain.Rental
	for rows.Next() {
		var rt domain.Rental
		if err := scanRental(rows, &rt); err != nil {
			logger.ExitMethodWithError("rentalRepository.List", err)
			return nil, 0, err
		}
		rentals = append(rentals, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	logger.ExitMethod("rentalRepository.List", "count", len(rentals), "total", count)
	return rentals, count, nil
}

func (r *rentalRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.RentalStatus, returnDate *time.Time) error {
	logger.EnterMethod("rentalRepository.UpdateStatus", "rentalID", id, "from", from, "to", to)

	query := `
		UPDATE rentals SET status = $1, return_date = COALESCE($2::date, return_date), updated_at = $3
		WHERE id = $4 AND status = $5
	`
	res, err := r.db.ExecContext(ctx, query, to, returnDate, time.Now().UTC(), id, from)
	if err == nil {
		err = checkAffected(res)
	}
	if err != nil {
		logger.ExitMethodWithError("rentalRepository.UpdateStatus", err, "rentalID", id)
		return err
	}

	logger.ExitMethod("rentalRepository.UpdateStatus", "rentalID", id)
	return nil
}

func (r *rentalRepository) ListOverdueCandidates(ctx context.Context, asOf time.Time) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + `
		FROM rentals
		WHERE status = $1 AND return_date IS NULL AND end_date < $2
		ORDER BY id`

	logger.DatabaseCall("SELECT", "rentals overdue candidates", "asOf", asOf)
	rows, err := r.db.QueryContext(ctx, query, domain.RentalStatusActive, asOf)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, err
	}
	defer rows.Close()

	var rentals []domain.Rental
	for rows.Next() {
		var rt domain.Rental
		if err := scanRental(rows, &rt); err != nil {
			return nil, err
		}
		rentals = append(rentals, rt)
	}
	logger.DatabaseResult("SELECT", int64(len(rentals)), rows.Err())
	return rentals, rows.Err()
}

func (r *rentalRepository) ListOverdueReminders(ctx context.Context) ([]domain.OverdueReminder, error) {
	query := `
		SELECT r.id, u.id, u.name, u.email, r.end_date, COUNT(ri.id)
		FROM rentals r
		JOIN users u ON u.id = r.user_id
		LEFT JOIN rental_items ri ON ri.rental_id = r.id
		WHERE r.status = $1
		GROUP BY r.id, u.id, u.name, u.email, r.end_date
		ORDER BY r.end_date, r.id
	`
	logger.DatabaseCall("SELECT", "rentals JOIN users", "status", domain.RentalStatusOverdue)
	rows, err := r.db.QueryContext(ctx, query, domain.RentalStatusOverdue)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, err
	}
	defer rows.Close()

	var out []domain.OverdueReminder
	for rows.Next() {
		var rem domain.OverdueReminder
		if err := rows.Scan(&rem.RentalID, &rem.ClientID, &rem.ClientName, &rem.ClientEmail, &rem.EndDate, &rem.ItemCount); err != nil {
			return nil, err
		}
		out = append(out, rem)
	}
	logger.DatabaseResult("SELECT", int64(len(out)), rows.Err())
	return out, rows.Err()
}
