package service

import (
	"context"
	"strings"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

type damageService struct {
	store repository.Store
}

func NewDamageService(store repository.Store) DamageService {
	return &damageService{store: store}
}

// RecordDamage attaches a damage report to a unit that took part in the rental.
func (s *damageService) RecordDamage(ctx context.Context, rentalID, equipmentID int64, description string) (*domain.Damage, error) {
	logger.EnterMethod("damageService.RecordDamage", "rentalID", rentalID, "equipmentID", equipmentID)

	description = strings.TrimSpace(description)
	if description == "" {
		return nil, domain.NewValidation("description", "is required")
	}
	if equipmentID <= 0 {
		return nil, domain.NewValidation("equipment_id", "must be a positive id")
	}

	damage := &domain.Damage{RentalID: rentalID, EquipmentID: equipmentID, Description: description, CreatedAt: time.Now().UTC()}
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Rentals().GetByID(ctx, rentalID); err != nil {
			return err
		}
		items, err := tx.Rentals().ListItems(ctx, rentalID)
		if err != nil {
			return err
		}
		found := false
		for _, it := range items {
			if it.EquipmentID == equipmentID {
				found = true
				break
			}
		}
		if !found {
			return domain.NewValidation("equipment_id", "equipment %d is not part of rental %d", equipmentID, rentalID)
		}
		if err := tx.Damages().Create(ctx, damage); err != nil {
			return err
		}
		return recordAudit(ctx, tx, "damages", damage.ID, domain.AuditInsert, nil, damage)
	})
	if err != nil {
		logger.ExitMethodWithError("damageService.RecordDamage", err, "rentalID", rentalID)
		return nil, err
	}

	logger.ExitMethod("damageService.RecordDamage", "damageID", damage.ID)
	return damage, nil
}

func (s *damageService) ListDamages(ctx context.Context, rentalID int64) ([]domain.Damage, error) {
	if _, err := s.store.Rentals().GetByID(ctx, rentalID); err != nil {
		return nil, err
	}
	return s.store.Damages().ListByRental(ctx, rentalID)
}
