package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

const equipmentSelect = `
		SELECT e.id, e.category_id, e.model_id, e.inventory_number, e.status,
		       COALESCE(c.name, ''), COALESCE(m.name, '')
		FROM equipment e
		LEFT JOIN equipment_categories c ON c.id = e.category_id
		LEFT JOIN equipment_models m ON m.id = e.model_id`

type equipmentRepository struct {
	db DBTX
}

func NewEquipmentRepository(db DBTX) repository.EquipmentRepository {
	return &equipmentRepository{db: db}
}

func scanEquipment(row rowScanner, e *domain.Equipment) error {
	return row.Scan(&e.ID, &e.CategoryID, &e.ModelID, &e.InventoryNumber, &e.Status, &e.CategoryName, &e.ModelName)
}

func (r *equipmentRepository) GetByID(ctx context.Context, id int64) (*domain.Equipment, error) {
	logger.EnterMethod("equipmentRepository.GetByID", "equipmentID", id)

	e := &domain.Equipment{}
	if err := scanEquipment(r.db.QueryRowContext(ctx, equipmentSelect+` WHERE e.id = $1`, id), e); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.NewNotFound("equipment", id)
		}
		logger.ExitMethodWithError("equipmentRepository.GetByID", err, "equipmentID", id)
		return nil, err
	}

	logger.ExitMethod("equipmentRepository.GetByID", "equipmentID", id, "status", e.Status)
	return e, nil
}

func (r *equipmentRepository) ListByIDs(ctx context.Context, ids []int64) ([]domain.Equipment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.query(ctx, "ListByIDs", equipmentSelect+` WHERE e.id = ANY($1) ORDER BY e.id`, pq.Array(ids))
}

func (r *equipmentRepository) List(ctx context.Context, status domain.EquipmentStatus) ([]domain.Equipment, error) {
	if status == "" {
		return r.query(ctx, "List", equipmentSelect+` ORDER BY e.id`)
	}
	return r.query(ctx, "List", equipmentSelect+` WHERE e.status = $1 ORDER BY e.id`, status)
}

func (r *equipmentRepository) query(ctx context.Context, op, query string, args ...any) ([]domain.Equipment, error) {
	logger.DatabaseCall("SELECT", "equipment", "op", op)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err, "op", op)
		return nil, err
	}
	defer rows.Close()

	var list []domain.Equipment
	for rows.Next() {
		var e domain.Equipment
		if err := scanEquipment(rows, &e); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	logger.DatabaseResult("SELECT", int64(len(list)), rows.Err(), "op", op)
	return list, rows.Err()
}

func (r *equipmentRepository) UpdateStatus(ctx context.Context, id int64, status domain.EquipmentStatus) error {
	logger.EnterMethod("equipmentRepository.UpdateStatus", "equipmentID", id, "status", status)

	res, err := r.db.ExecContext(ctx, `UPDATE equipment SET status = $1 WHERE id = $2`, status, id)
	if err == nil {
		var n int64
		if n, err = res.RowsAffected(); err == nil && n == 0 {
			err = domain.NewNotFound("equipment", id)
		}
	}
	if err != nil {
		logger.ExitMethodWithError("equipmentRepository.UpdateStatus", err, "equipmentID", id)
		return err
	}

	logger.ExitMethod("equipmentRepository.UpdateStatus", "equipmentID", id)
	return nil
}

func (r *equipmentRepository) LoadFacts(ctx context.Context, ids []int64) ([]domain.EquipmentFacts, error) {
	// Lock first, then read the facts in a separate statement. Under READ COMMITTED
	// each statement takes a fresh snapshot, so the facts include whatever a
	// transaction we waited on committed.
	if err := r.lockUnits(ctx, ids); err != nil {
		return nil, err
	}

	query := `
		SELECT e.id, e.status,
		       EXISTS (
		           SELECT 1 FROM rental_items ri
		           JOIN rentals r ON r.id = ri.rental_id
		           WHERE ri.equipment_id = e.id AND r.status = ANY($1)
		       ),
		       EXISTS (
		           SELECT 1 FROM repairs rp
		           WHERE rp.equipment_id = e.id AND rp.status = ANY($2)
		       )
		FROM equipment e`
	args := []any{pq.Array(domain.LiveRentalStatuses()), pq.Array(domain.OpenRepairStatuses())}
	if len(ids) > 0 {
		query += ` WHERE e.id = ANY($3)`
		args = append(args, pq.Array(ids))
	}
	query += ` ORDER BY e.id`

	logger.DatabaseCall("SELECT", "equipment facts", "ids", len(ids))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, err
	}
	defer rows.Close()

	var facts []domain.EquipmentFacts
	for rows.Next() {
		var f domain.EquipmentFacts
		if err := rows.Scan(&f.EquipmentID, &f.Current, &f.InLiveRental, &f.InOpenRepair); err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	logger.DatabaseResult("SELECT", int64(len(facts)), rows.Err())
	return facts, rows.Err()
}

// lockUnits takes row locks in id order so concurrent passes serialize per unit.
func (r *equipmentRepository) lockUnits(ctx context.Context, ids []int64) error {
	query := `SELECT id FROM equipment`
	var args []any
	if len(ids) > 0 {
		query += ` WHERE id = ANY($1)`
		args = append(args, pq.Array(ids))
	}
	query += ` ORDER BY id FOR UPDATE`

	logger.DatabaseCall("SELECT", "equipment lock", "ids", len(ids))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return err
	}
	defer rows.Close()

	var n int64
	for rows.Next() {
		n++
	}
	logger.DatabaseResult("SELECT", n, rows.Err())
	return rows.Err()
}
