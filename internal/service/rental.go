package service

import (
	"context"
	"errors"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/events"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/metrics"
	"equiprent-backend/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type rentalService struct {
	store repository.Store
	bus   *events.Bus
}

func NewRentalService(store repository.Store, bus *events.Bus) RentalService {
	return &rentalService{store: store, bus: bus}
}

func validateCreateRental(in CreateRentalInput) error {
	if in.ClientID <= 0 {
		return domain.NewValidation("user_id", "must be a positive id")
	}
	if in.EmployeeID <= 0 {
		return domain.NewValidation("employee_id", "must be a positive id")
	}
	if len(in.Items) == 0 {
		return domain.NewValidation("items", "at least one item is required")
	}
	for i, it := range in.Items {
		if it.EquipmentID <= 0 {
			return domain.NewValidation("items", "item %d: equipment_id must be a positive id", i)
		}
		if it.DamageFeeCents < 0 {
			return domain.NewValidation("items", "item %d: damage fee must not be negative", i)
		}
	}
	if in.StartDate.IsZero() {
		return domain.NewValidation("start_date", "is required")
	}
	if in.EndDate.IsZero() {
		return domain.NewValidation("end_date", "is required")
	}
	if in.EndDate.Before(in.StartDate) {
		return domain.NewValidation("end_date", "must not be before start_date")
	}
	if in.ReturnDate != nil && in.ReturnDate.Before(in.StartDate) {
		return domain.NewValidation("return_date", "must not be before start_date")
	}
	return nil
}

func (s *rentalService) CreateRental(ctx context.Context, in CreateRentalInput) (*domain.Rental, error) {
	logger.EnterMethod("rentalService.CreateRental", "clientID", in.ClientID, "items", len(in.Items))

	in.StartDate = domain.TruncateDate(in.StartDate)
	in.EndDate = domain.TruncateDate(in.EndDate)
	if in.ReturnDate != nil {
		rd := domain.TruncateDate(*in.ReturnDate)
		in.ReturnDate = &rd
	}
	if err := validateCreateRental(in); err != nil {
		logger.ExitMethodWithError("rentalService.CreateRental", err)
		return nil, err
	}

	rental := &domain.Rental{
		ClientID:   in.ClientID,
		EmployeeID: in.EmployeeID,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		ReturnDate: in.ReturnDate,
		Status:     domain.RentalStatusActive,
	}
	for _, it := range in.Items {
		rental.Items = append(rental.Items, domain.RentalItem{EquipmentID: it.EquipmentID, DamageFeeCents: it.DamageFeeCents})
	}

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().GetByID(ctx, in.ClientID); err != nil {
			return err
		}
		if _, err := tx.Users().GetByID(ctx, in.EmployeeID); err != nil {
			return err
		}
		if err := checkRentable(ctx, tx, rental.EquipmentIDs()); err != nil {
			return err
		}
		if err := tx.Rentals().Create(ctx, rental); err != nil {
			return err
		}
		return recordAudit(ctx, tx, "rentals", rental.ID, domain.AuditInsert, nil, rental)
	})
	if err != nil {
		logger.ExitMethodWithError("rentalService.CreateRental", err, "clientID", in.ClientID)
		return nil, err
	}

	metrics.IncRentalTransition("", string(domain.RentalStatusActive))
	s.publish(ctx, events.EventRentalCreated, rental, "")
	logger.Info("Rental created", "rentalID", rental.ID, "clientID", rental.ClientID, "items", len(rental.Items))
	logger.ExitMethod("rentalService.CreateRental", "rentalID", rental.ID)
	return rental, nil
}

// checkRentable requires every unit to exist and not be held by another live rental.
// Repairs and decommissioning do not block a rental; reconciliation settles the status.
func checkRentable(ctx context.Context, tx repository.Store, ids []int64) error {
	facts, err := tx.Equipment().LoadFacts(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[int64]domain.EquipmentFacts, len(facts))
	for _, f := range facts {
		byID[f.EquipmentID] = f
	}
	for _, id := range ids {
		f, ok := byID[id]
		if !ok {
			return domain.NewNotFound("equipment", id)
		}
		if f.InLiveRental {
			return domain.NewInvalidState("equipment", id, string(domain.EquipmentStatusRented), "rent")
		}
	}
	return nil
}

func (s *rentalService) GetRental(ctx context.Context, id int64) (*domain.Rental, error) {
	rental, err := s.store.Rentals().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, s.store, rental); err != nil {
		return nil, err
	}

	ids := rental.EquipmentIDs()
	equipment, err := s.store.Equipment().ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]domain.Equipment, len(equipment))
	for _, e := range equipment {
		byID[e.ID] = e
	}
	for i := range rental.Items {
		if e, ok := byID[rental.Items[i].EquipmentID]; ok {
			rental.Items[i].Equipment = &e
		}
	}

	pd, err := s.store.Users().GetPersonalData(ctx, rental.ClientID)
	switch {
	case err == nil:
		rental.ClientData = pd
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}
	return rental, nil
}

func (s *rentalService) loadItems(ctx context.Context, store repository.Store, rental *domain.Rental) error {
	items, err := store.Rentals().ListItems(ctx, rental.ID)
	if err != nil {
		return err
	}
	rental.Items = items
	return nil
}

func (s *rentalService) ListRentals(ctx context.Context, f domain.RentalFilter) ([]domain.Rental, int32, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, domain.NewValidation("status", "unknown rental status %q", f.Status)
	}
	if f.ClientID < 0 {
		return nil, 0, domain.NewValidation("user_id", "must be a positive id")
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	return s.store.Rentals().List(ctx, f)
}

func (s *rentalService) ReturnRental(ctx context.Context, id int64, returnDate time.Time) (*domain.Rental, error) {
	if returnDate.IsZero() {
		return nil, domain.NewValidation("return_date", "is required")
	}
	rd := domain.TruncateDate(returnDate)

	return s.transition(ctx, id, domain.RentalStatusCompleted, "return", &rd, func(rt *domain.Rental) error {
		if rd.Before(rt.StartDate) {
			return domain.NewValidation("return_date", "must not be before start_date %s", rt.StartDate.Format(domain.DateLayout))
		}
		return nil
	})
}

func (s *rentalService) CancelRental(ctx context.Context, id int64) (*domain.Rental, error) {
	return s.transition(ctx, id, domain.RentalStatusCancelled, "cancel", nil, nil)
}

func (s *rentalService) MarkOverdue(ctx context.Context, asOf time.Time) ([]int64, error) {
	asOf = domain.TruncateDate(asOf)
	logger.EnterMethod("rentalService.MarkOverdue", "asOf", asOf.Format(domain.DateLayout))

	candidates, err := s.store.Rentals().ListOverdueCandidates(ctx, asOf)
	if err != nil {
		logger.ExitMethodWithError("rentalService.MarkOverdue", err)
		return nil, err
	}

	var marked []int64
	for _, c := range candidates {
		_, err := s.transition(ctx, c.ID, domain.RentalStatusOverdue, "mark overdue", nil, func(rt *domain.Rental) error {
			if rt.ReturnDate != nil || !rt.EndDate.Before(asOf) {
				return domain.NewInvalidState("rental", rt.ID, string(rt.Status), "mark overdue")
			}
			return nil
		})
		if errors.Is(err, domain.ErrInvalidState) || errors.Is(err, domain.ErrNotFound) {
			// Returned or cancelled since the candidate query ran.
			logger.Debug("Skipping overdue candidate", "rentalID", c.ID, "reason", err)
			continue
		}
		if err != nil {
			logger.ExitMethodWithError("rentalService.MarkOverdue", err, "rentalID", c.ID)
			return marked, err
		}
		marked = append(marked, c.ID)
	}

	logger.ExitMethod("rentalService.MarkOverdue", "marked", len(marked))
	return marked, nil
}

// transition applies one validated status change in its own transaction.
// check, when set, runs after the transition table has allowed the move.
func (s *rentalService) transition(ctx context.Context, id int64, to domain.RentalStatus, action string, returnDate *time.Time, check func(*domain.Rental) error) (*domain.Rental, error) {
	const method = "rentalService.transition"
	logger.EnterMethod(method, "rentalID", id, "action", action, "to", to)

	var (
		before  domain.Rental
		updated *domain.Rental
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		rt, err := tx.Rentals().GetByID(ctx, id)
		if err != nil {
			return err
		}
		before = *rt
		if !rt.Status.CanTransition(to) {
			return domain.NewInvalidState("rental", id, string(rt.Status), action)
		}
		if check != nil {
			if err := check(rt); err != nil {
				return err
			}
		}

		err = tx.Rentals().UpdateStatus(ctx, id, rt.Status, to, returnDate)
		if errors.Is(err, repository.ErrStatusChanged) {
			current, gerr := tx.Rentals().GetByID(ctx, id)
			if gerr != nil {
				return gerr
			}
			return domain.NewInvalidState("rental", id, string(current.Status), action)
		}
		if err != nil {
			return err
		}

		if updated, err = tx.Rentals().GetByID(ctx, id); err != nil {
			return err
		}
		if err := s.loadItems(ctx, tx, updated); err != nil {
			return err
		}
		return recordAudit(ctx, tx, "rentals", id, domain.AuditUpdate, before, updated)
	})
	if err != nil {
		logger.ExitMethodWithError(method, err, "rentalID", id)
		return nil, err
	}

	metrics.IncRentalTransition(string(before.Status), string(to))
	s.publish(ctx, rentalEventType(to), updated, before.Status)
	logger.Info("Rental status changed", "rentalID", id, "from", before.Status, "to", to)
	logger.ExitMethod(method, "rentalID", id)
	return updated, nil
}

func rentalEventType(to domain.RentalStatus) string {
	switch to {
	case domain.RentalStatusCompleted:
		return events.EventRentalReturned
	case domain.RentalStatusCancelled:
		return events.EventRentalCancelled
	case domain.RentalStatusOverdue:
		return events.EventRentalOverdue
	}
	return events.EventRentalCreated
}

func (s *rentalService) publish(ctx context.Context, eventType string, rt *domain.Rental, from domain.RentalStatus) {
	payload := events.RentalEventPayload{
		RentalID:     rt.ID,
		ClientID:     rt.ClientID,
		From:         string(from),
		To:           string(rt.Status),
		EquipmentIDs: rt.EquipmentIDs(),
		At:           time.Now().UTC(),
	}
	if err := s.bus.PublishJSON(ctx, eventType, payload); err != nil {
		logger.Warn("Failed to publish rental event", "type", eventType, "rentalID", rt.ID, "error", err)
	}
}
