package postgres

import (
	"context"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

type damageRepository struct {
	db DBTX
}

func NewDamageRepository(db DBTX) repository.DamageRepository {
	return &damageRepository{db: db}
}

func (r *damageRepository) Create(ctx context.Context, d *domain.Damage) error {
	logger.EnterMethod("damageRepository.Create", "rentalID", d.RentalID, "equipmentID", d.EquipmentID)

	query := `
		INSERT INTO damages (equipment_id, rental_id, description, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query, d.EquipmentID, d.RentalID, d.Description, d.CreatedAt).Scan(&d.ID); err != nil {
		logger.ExitMethodWithError("damageRepository.Create", err, "rentalID", d.RentalID)
		return err
	}

	logger.ExitMethod("damageRepository.Create", "damageID", d.ID)
	return nil
}

func (r *damageRepository) ListByRental(ctx context.Context, rentalID int64) ([]domain.Damage, error) {
	query := `
		SELECT id, equipment_id, rental_id, description, created_at
		FROM damages WHERE rental_id = $1 ORDER BY id
	`
	logger.DatabaseCall("SELECT", "damages", "rentalID", rentalID)
	rows, err := r.db.QueryContext(ctx, query, rentalID)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err, "rentalID", rentalID)
		return nil, err
	}
	defer rows.Close()

	var damages []domain.Damage
	for rows.Next() {
		var d domain.Damage
		if err := rows.Scan(&d.ID, &d.EquipmentID, &d.RentalID, &d.Description, &d.CreatedAt); err != nil {
			return nil, err
		}
		damages = append(damages, d)
	}
	logger.DatabaseResult("SELECT", int64(len(damages)), rows.Err(), "rentalID", rentalID)
	return damages, rows.Err()
}
