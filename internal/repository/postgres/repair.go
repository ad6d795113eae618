package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

type repairRepository struct {
	db DBTX
}

func NewRepairRepository(db DBTX) repository.RepairRepository {
	return &repairRepository{db: db}
}

func (r *repairRepository) Create(ctx context.Context, rp *domain.Repair) error {
	logger.EnterMethod("repairRepository.Create", "equipmentID", rp.EquipmentID, "status", rp.Status)

	query := `
		INSERT INTO repairs (equipment_id, start_date, end_date, description, cost, status)
		VALUES ($1, $2, $3, $4, $5::numeric / 100, $6)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		rp.EquipmentID, rp.StartDate, rp.EndDate, rp.Description, rp.CostCents, rp.Status,
	).Scan(&rp.ID)
	if err != nil {
		logger.ExitMethodWithError("repairRepository.Create", err, "equipmentID", rp.EquipmentID)
		return err
	}

	logger.ExitMethod("repairRepository.Create", "repairID", rp.ID)
	return nil
}

func (r *repairRepository) GetByID(ctx context.Context, id int64) (*domain.Repair, error) {
	logger.EnterMethod("repairRepository.GetByID", "repairID", id)

	query := `
		SELECT id, equipment_id, start_date, end_date, description, ROUND(cost * 100)::bigint, status
		FROM repairs WHERE id = $1
	`
	rp := &domain.Repair{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rp.ID, &rp.EquipmentID, &rp.StartDate, &rp.EndDate, &rp.Description, &rp.CostCents, &rp.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.NewNotFound("repair", id)
		}
		logger.ExitMethodWithError("repairRepository.GetByID", err, "repairID", id)
		return nil, err
	}

	logger.ExitMethod("repairRepository.GetByID", "repairID", id)
	return rp, nil
}

func (r *repairRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.RepairStatus, endDate *time.Time) error {
	logger.EnterMethod("repairRepository.UpdateStatus", "repairID", id, "from", from, "to", to)

	query := `UPDATE repairs SET status = $1, end_date = COALESCE($2::date, end_date) WHERE id = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, to, endDate, id, from)
	if err == nil {
		err = checkAffected(res)
	}
	if err != nil {
		logger.ExitMethodWithError("repairRepository.UpdateStatus", err, "repairID", id)
		return err
	}

	logger.ExitMethod("repairRepository.UpdateStatus", "repairID", id)
	return nil
}
