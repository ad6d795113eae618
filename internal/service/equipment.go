package service

import (
	"context"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/events"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/metrics"
	"equiprent-backend/internal/repository"
)

type equipmentService struct {
	store repository.Store
}

func NewEquipmentService(store repository.Store) EquipmentService {
	return &equipmentService{store: store}
}

// Subscribe reconciles the affected units after every rental and repair change.
func (s *equipmentService) Subscribe(bus *events.Bus) {
	bus.Subscribe(s.onRentalEvent, events.EventRentalCreated, events.EventRentalReturned, events.EventRentalCancelled)
	bus.Subscribe(s.onRepairEvent, events.EventRepairOpened, events.EventRepairChanged)
}

func (s *equipmentService) onRentalEvent(ctx context.Context, e *events.Event) error {
	var p events.RentalEventPayload
	if err := e.Decode(&p); err != nil {
		return err
	}
	_, err := s.ReconcileEquipment(ctx, p.EquipmentIDs)
	return err
}

func (s *equipmentService) onRepairEvent(ctx context.Context, e *events.Event) error {
	var p events.RepairEventPayload
	if err := e.Decode(&p); err != nil {
		return err
	}
	_, err := s.ReconcileEquipment(ctx, []int64{p.EquipmentID})
	return err
}

func (s *equipmentService) GetEquipment(ctx context.Context, id int64) (*domain.Equipment, error) {
	return s.store.Equipment().GetByID(ctx, id)
}

func (s *equipmentService) ListEquipment(ctx context.Context, status domain.EquipmentStatus) ([]domain.Equipment, error) {
	if status != "" && !status.Valid() {
		return nil, domain.NewValidation("status", "unknown equipment status %q", status)
	}
	return s.store.Equipment().List(ctx, status)
}

// Decommission retires a unit for good. Reconciliation never overrides it.
func (s *equipmentService) Decommission(ctx context.Context, id int64) (*domain.Equipment, error) {
	logger.EnterMethod("equipmentService.Decommission", "equipmentID", id)

	var changed bool
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		facts, err := tx.Equipment().LoadFacts(ctx, []int64{id})
		if err != nil {
			return err
		}
		if len(facts) == 0 {
			return domain.NewNotFound("equipment", id)
		}
		f := facts[0]
		if f.Current == domain.EquipmentStatusDecommissioned {
			return nil
		}
		if f.InLiveRental {
			return domain.NewInvalidState("equipment", id, string(domain.EquipmentStatusRented), "decommission")
		}
		if err := tx.Equipment().UpdateStatus(ctx, id, domain.EquipmentStatusDecommissioned); err != nil {
			return err
		}
		changed = true
		return recordAudit(ctx, tx, "equipment", id, domain.AuditUpdate,
			map[string]any{"status": f.Current}, map[string]any{"status": domain.EquipmentStatusDecommissioned})
	})
	if err != nil {
		logger.ExitMethodWithError("equipmentService.Decommission", err, "equipmentID", id)
		return nil, err
	}

	if changed {
		metrics.IncEquipmentStatusChange(string(domain.EquipmentStatusDecommissioned))
		logger.Info("Equipment decommissioned", "equipmentID", id)
	}
	logger.ExitMethod("equipmentService.Decommission", "equipmentID", id)
	return s.store.Equipment().GetByID(ctx, id)
}

func (s *equipmentService) ReconcileAll(ctx context.Context) (*domain.ReconcileResult, error) {
	return s.reconcile(ctx, nil)
}

func (s *equipmentService) ReconcileEquipment(ctx context.Context, ids []int64) (*domain.ReconcileResult, error) {
	if len(ids) == 0 {
		return &domain.ReconcileResult{}, nil
	}
	return s.reconcile(ctx, ids)
}

// reconcile recomputes the status of the given units (all units when ids is nil)
// in one transaction and writes only the rows that differ, so repeated runs
// converge on the same statuses.
func (s *equipmentService) reconcile(ctx context.Context, ids []int64) (*domain.ReconcileResult, error) {
	logger.EnterMethod("equipmentService.reconcile", "ids", len(ids))

	var result domain.ReconcileResult
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		result = domain.ReconcileResult{}
		facts, err := tx.Equipment().LoadFacts(ctx, ids)
		if err != nil {
			return err
		}
		for _, f := range facts {
			result.Checked++
			target := domain.DeriveEquipmentStatus(f)
			if target == f.Current {
				continue
			}
			if err := tx.Equipment().UpdateStatus(ctx, f.EquipmentID, target); err != nil {
				return err
			}
			if err := recordAudit(ctx, tx, "equipment", f.EquipmentID, domain.AuditUpdate,
				map[string]any{"status": f.Current}, map[string]any{"status": target}); err != nil {
				return err
			}
			result.Changed++
			result.Updates = append(result.Updates, domain.EquipmentUpdate{EquipmentID: f.EquipmentID, From: f.Current, To: target})
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("equipmentService.reconcile", err)
		return nil, err
	}

	for _, u := range result.Updates {
		metrics.IncEquipmentStatusChange(string(u.To))
	}
	if result.Changed > 0 {
		logger.Info("Equipment statuses reconciled", "checked", result.Checked, "changed", result.Changed)
	}
	logger.ExitMethod("equipmentService.reconcile", "checked", result.Checked, "changed", result.Changed)
	return &result, nil
}
