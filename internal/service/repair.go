package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/events"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

type repairService struct {
	store repository.Store
	bus   *events.Bus
}

func NewRepairService(store repository.Store, bus *events.Bus) RepairService {
	return &repairService{store: store, bus: bus}
}

func (s *repairService) OpenRepair(ctx context.Context, in OpenRepairInput) (*domain.Repair, error) {
	logger.EnterMethod("repairService.OpenRepair", "equipmentID", in.EquipmentID)

	if in.Status == "" {
		in.Status = domain.RepairStatusPlanned
	}
	in.Description = strings.TrimSpace(in.Description)
	switch {
	case in.EquipmentID <= 0:
		return nil, domain.NewValidation("equipment_id", "must be a positive id")
	case in.Description == "":
		return nil, domain.NewValidation("description", "is required")
	case in.StartDate.IsZero():
		return nil, domain.NewValidation("start_date", "is required")
	case !in.Status.Open():
		return nil, domain.NewValidation("status", "a new repair must be %s or %s", domain.RepairStatusPlanned, domain.RepairStatusInProgress)
	case in.CostCents != nil && *in.CostCents < 0:
		return nil, domain.NewValidation("cost", "must not be negative")
	}

	repair := &domain.Repair{
		EquipmentID: in.EquipmentID,
		StartDate:   domain.TruncateDate(in.StartDate),
		Description: in.Description,
		CostCents:   in.CostCents,
		Status:      in.Status,
	}
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		eq, err := tx.Equipment().GetByID(ctx, in.EquipmentID)
		if err != nil {
			return err
		}
		if eq.Status == domain.EquipmentStatusDecommissioned {
			return domain.NewInvalidState("equipment", eq.ID, string(eq.Status), "repair")
		}
		if err := tx.Repairs().Create(ctx, repair); err != nil {
			return err
		}
		return recordAudit(ctx, tx, "repairs", repair.ID, domain.AuditInsert, nil, repair)
	})
	if err != nil {
		logger.ExitMethodWithError("repairService.OpenRepair", err, "equipmentID", in.EquipmentID)
		return nil, err
	}

	s.publish(ctx, events.EventRepairOpened, repair, "")
	logger.Info("Repair opened", "repairID", repair.ID, "equipmentID", repair.EquipmentID, "status", repair.Status)
	logger.ExitMethod("repairService.OpenRepair", "repairID", repair.ID)
	return repair, nil
}

// UpdateRepairStatus moves a repair along Planned -> InProgress -> Completed,
// or to Cancelled from either open status. Closing a repair stamps its end date.
func (s *repairService) UpdateRepairStatus(ctx context.Context, id int64, to domain.RepairStatus, endDate *time.Time) (*domain.Repair, error) {
	logger.EnterMethod("repairService.UpdateRepairStatus", "repairID", id, "to", to)

	if !to.Valid() {
		return nil, domain.NewValidation("status", "unknown repair status %q", to)
	}
	if endDate != nil {
		ed := domain.TruncateDate(*endDate)
		endDate = &ed
	} else if !to.Open() {
		ed := domain.TruncateDate(time.Now())
		endDate = &ed
	}

	var (
		from    domain.RepairStatus
		updated *domain.Repair
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		rp, err := tx.Repairs().GetByID(ctx, id)
		if err != nil {
			return err
		}
		from = rp.Status
		if !rp.Status.CanTransition(to) {
			return domain.NewInvalidState("repair", id, string(rp.Status), "move to "+string(to))
		}
		if endDate != nil && endDate.Before(rp.StartDate) {
			return domain.NewValidation("end_date", "must not be before start_date %s", rp.StartDate.Format(domain.DateLayout))
		}

		err = tx.Repairs().UpdateStatus(ctx, id, rp.Status, to, endDate)
		if errors.Is(err, repository.ErrStatusChanged) {
			return domain.NewInvalidState("repair", id, string(rp.Status), "move to "+string(to))
		}
		if err != nil {
			return err
		}
		if updated, err = tx.Repairs().GetByID(ctx, id); err != nil {
			return err
		}
		return recordAudit(ctx, tx, "repairs", id, domain.AuditUpdate, rp, updated)
	})
	if err != nil {
		logger.ExitMethodWithError("repairService.UpdateRepairStatus", err, "repairID", id)
		return nil, err
	}

	s.publish(ctx, events.EventRepairChanged, updated, from)
	logger.Info("Repair status changed", "repairID", id, "from", from, "to", to)
	logger.ExitMethod("repairService.UpdateRepairStatus", "repairID", id)
	return updated, nil
}

func (s *repairService) publish(ctx context.Context, eventType string, rp *domain.Repair, from domain.RepairStatus) {
	payload := events.RepairEventPayload{
		RepairID:    rp.ID,
		EquipmentID: rp.EquipmentID,
		From:        string(from),
		To:          string(rp.Status),
		At:          time.Now().UTC(),
	}
	if err := s.bus.PublishJSON(ctx, eventType, payload); err != nil {
		logger.Warn("Failed to publish repair event", "type", eventType, "repairID", rp.ID, "error", err)
	}
}
