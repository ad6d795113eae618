package memory

import (
	"context"
	"sort"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"
)

type userRepo struct{ s *Store }

func (r userRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var out *domain.User
	err := r.s.view(func(d *data) error {
		u, ok := d.users[id]
		if !ok {
			return domain.NewNotFound("user", id)
		}
		out = &u
		return nil
	})
	return out, err
}

func (r userRepo) GetPersonalData(ctx context.Context, userID int64) (*domain.UserPersonalData, error) {
	var out *domain.UserPersonalData
	err := r.s.view(func(d *data) error {
		u, ok := d.users[userID]
		if !ok || u.PersonalData == nil {
			return domain.NewNotFound("personal data", userID)
		}
		pd := *u.PersonalData
		out = &pd
		return nil
	})
	return out, err
}

type equipmentRepo struct{ s *Store }

func (r equipmentRepo) GetByID(ctx context.Context, id int64) (*domain.Equipment, error) {
	var out *domain.Equipment
	err := r.s.view(func(d *data) error {
		e, ok := d.equipment[id]
		if !ok {
			return domain.NewNotFound("equipment", id)
		}
		out = &e
		return nil
	})
	return out, err
}

func (r equipmentRepo) ListByIDs(ctx context.Context, ids []int64) ([]domain.Equipment, error) {
	var out []domain.Equipment
	err := r.s.view(func(d *data) error {
		want := make(map[int64]bool, len(ids))
		for _, id := range ids {
			want[id] = true
		}
		for _, id := range sortedKeys(d.equipment) {
			if want[id] {
				out = append(out, d.equipment[id])
			}
		}
		return nil
	})
	return out, err
}

func (r equipmentRepo) List(ctx context.Context, status domain.EquipmentStatus) ([]domain.Equipment, error) {
	var out []domain.Equipment
	err := r.s.view(func(d *data) error {
		for _, id := range sortedKeys(d.equipment) {
			if e := d.equipment[id]; status == "" || e.Status == status {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

func (r equipmentRepo) UpdateStatus(ctx context.Context, id int64, status domain.EquipmentStatus) error {
	return r.s.view(func(d *data) error {
		if err := r.s.failure("equipment.update"); err != nil {
			return err
		}
		e, ok := d.equipment[id]
		if !ok {
			return domain.NewNotFound("equipment", id)
		}
		e.Status = status
		d.equipment[id] = e
		return nil
	})
}

func (r equipmentRepo) LoadFacts(ctx context.Context, ids []int64) ([]domain.EquipmentFacts, error) {
	var out []domain.EquipmentFacts
	err := r.s.view(func(d *data) error {
		rented := map[int64]bool{}
		for _, it := range d.items {
			if d.rentals[it.RentalID].Status.Live() {
				rented[it.EquipmentID] = true
			}
		}
		repairing := map[int64]bool{}
		for _, rp := range d.repairs {
			if rp.Status.Open() {
				repairing[rp.EquipmentID] = true
			}
		}
		want := map[int64]bool{}
		for _, id := range ids {
			want[id] = true
		}
		for _, id := range sortedKeys(d.equipment) {
			if len(ids) > 0 && !want[id] {
				continue
			}
			out = append(out, domain.EquipmentFacts{
				EquipmentID:  id,
				Current:      d.equipment[id].Status,
				InLiveRental: rented[id],
				InOpenRepair: repairing[id],
			})
		}
		return nil
	})
	return out, err
}

type rentalRepo struct{ s *Store }

func (r rentalRepo) Create(ctx context.Context, rt *domain.Rental) error {
	return r.s.view(func(d *data) error {
		if err := r.s.failure("rentals.insert"); err != nil {
			return err
		}
		for _, it := range rt.Items {
			if _, ok := d.equipment[it.EquipmentID]; !ok {
				return domain.NewNotFound("equipment", it.EquipmentID)
			}
		}
		ts := now()
		rt.ID = d.nextID()
		rt.CreatedAt, rt.UpdatedAt = ts, ts
		stored := *rt
		stored.Items = nil
		d.rentals[rt.ID] = stored

		for i := range rt.Items {
			if err := r.s.failure("rental_items.insert"); err != nil {
				return err
			}
			item := &rt.Items[i]
			item.ID = d.nextID()
			item.RentalID = rt.ID
			item.CreatedAt = ts
			stored := *item
			stored.Equipment = nil
			d.items[item.ID] = stored
		}
		return nil
	})
}

func (r rentalRepo) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	var out *domain.Rental
	err := r.s.view(func(d *data) error {
		rt, ok := d.rentals[id]
		if !ok {
			return domain.NewNotFound("rental", id)
		}
		out = &rt
		return nil
	})
	return out, err
}

func (r rentalRepo) ListItems(ctx context.Context, rentalID int64) ([]domain.RentalItem, error) {
	var out []domain.RentalItem
	err := r.s.view(func(d *data) error {
		for _, id := range sortedKeys(d.items) {
			if it := d.items[id]; it.RentalID == rentalID {
				out = append(out, it)
			}
		}
		return nil
	})
	return out, err
}

func (r rentalRepo) List(ctx context.Context, f domain.RentalFilter) ([]domain.Rental, int32, error) {
	var matched []domain.Rental
	err := r.s.view(func(d *data) error {
		for _, rt := range d.rentals {
			if f.ClientID > 0 && rt.ClientID != f.ClientID {
				continue
			}
			if f.Status != "" && rt.Status != f.Status {
				continue
			}
			matched = append(matched, rt)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := int32(len(matched))
	offset := f.Offset()
	if offset >= int64(len(matched)) {
		return nil, total, nil
	}
	end := min(offset+int64(f.PageSize), int64(len(matched)))
	return matched[offset:end], total, nil
}

func (r rentalRepo) UpdateStatus(ctx context.Context, id int64, from, to domain.RentalStatus, returnDate *time.Time) error {
	return r.s.view(func(d *data) error {
		if err := r.s.failure("rentals.update"); err != nil {
			return err
		}
		rt, ok := d.rentals[id]
		if !ok || rt.Status != from {
			return repository.ErrStatusChanged
		}
		rt.Status = to
		if returnDate != nil {
			rd := *returnDate
			rt.ReturnDate = &rd
		}
		rt.UpdatedAt = now()
		d.rentals[id] = rt
		return nil
	})
}

func (r rentalRepo) ListOverdueCandidates(ctx context.Context, asOf time.Time) ([]domain.Rental, error) {
	var out []domain.Rental
	err := r.s.view(func(d *data) error {
		for _, id := range sortedKeys(d.rentals) {
			rt := d.rentals[id]
			if rt.Status == domain.RentalStatusActive && rt.ReturnDate == nil && rt.EndDate.Before(asOf) {
				out = append(out, rt)
			}
		}
		return nil
	})
	return out, err
}

func (r rentalRepo) ListOverdueReminders(ctx context.Context) ([]domain.OverdueReminder, error) {
	var out []domain.OverdueReminder
	err := r.s.view(func(d *data) error {
		counts := map[int64]int{}
		for _, it := range d.items {
			counts[it.RentalID]++
		}
		for _, id := range sortedKeys(d.rentals) {
			rt := d.rentals[id]
			if rt.Status != domain.RentalStatusOverdue {
				continue
			}
			u, ok := d.users[rt.ClientID]
			if !ok {
				continue
			}
			out = append(out, domain.OverdueReminder{
				RentalID:    rt.ID,
				ClientID:    u.ID,
				ClientName:  u.Name,
				ClientEmail: u.Email,
				EndDate:     rt.EndDate,
				ItemCount:   counts[rt.ID],
			})
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate) })
	return out, err
}

type repairRepo struct{ s *Store }

func (r repairRepo) Create(ctx context.Context, rp *domain.Repair) error {
	return r.s.view(func(d *data) error {
		if err := r.s.failure("repairs.insert"); err != nil {
			return err
		}
		if _, ok := d.equipment[rp.EquipmentID]; !ok {
			return domain.NewNotFound("equipment", rp.EquipmentID)
		}
		rp.ID = d.nextID()
		d.repairs[rp.ID] = *rp
		return nil
	})
}

func (r repairRepo) GetByID(ctx context.Context, id int64) (*domain.Repair, error) {
	var out *domain.Repair
	err := r.s.view(func(d *data) error {
		rp, ok := d.repairs[id]
		if !ok {
			return domain.NewNotFound("repair", id)
		}
		out = &rp
		return nil
	})
	return out, err
}

func (r repairRepo) UpdateStatus(ctx context.Context, id int64, from, to domain.RepairStatus, endDate *time.Time) error {
	return r.s.view(func(d *data) error {
		if err := r.s.failure("repairs.update"); err != nil {
			return err
		}
		rp, ok := d.repairs[id]
		if !ok || rp.Status != from {
			return repository.ErrStatusChanged
		}
		rp.Status = to
		if endDate != nil {
			ed := *endDate
			rp.EndDate = &ed
		}
		d.repairs[id] = rp
		return nil
	})
}

type paymentRepo struct{ s *Store }

func (r paymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	return r.s.view(func(d *data) error {
		if err := r.s.failure("payments.insert"); err != nil {
			return err
		}
		p.ID = d.nextID()
		d.payments[p.ID] = *p
		return nil
	})
}

func (r paymentRepo) ListByRental(ctx context.Context, rentalID int64) ([]domain.Payment, error) {
	var out []domain.Payment
	err := r.s.view(func(d *data) error {
		for _, id := range sortedKeys(d.payments) {
			if p := d.payments[id]; p.RentalID == rentalID {
				out = append(out, p)
			}
		}
		return nil
	})
	return out, err
}

type damageRepo struct{ s *Store }

func (r damageRepo) Create(ctx context.Context, dm *domain.Damage) error {
	return r.s.view(func(d *data) error {
		if err := r.s.failure("damages.insert"); err != nil {
			return err
		}
		dm.ID = d.nextID()
		d.damages[dm.ID] = *dm
		return nil
	})
}

func (r damageRepo) ListByRental(ctx context.Context, rentalID int64) ([]domain.Damage, error) {
	var out []domain.Damage
	err := r.s.view(func(d *data) error {
		for _, id := range sortedKeys(d.damages) {
			if dm := d.damages[id]; dm.RentalID == rentalID {
				out = append(out, dm)
			}
		}
		return nil
	})
	return out, err
}

type auditRepo struct{ s *Store }

func (r auditRepo) Record(ctx context.Context, e *domain.AuditEntry) error {
	return r.s.view(func(d *data) error {
		if err := r.s.failure("audit_log.insert"); err != nil {
			return err
		}
		e.ID = d.nextID()
		if e.ChangedAt.IsZero() {
			e.ChangedAt = now()
		}
		d.audit = append(d.audit, *e)
		return nil
	})
}

type reportRepo struct{}

func (reportRepo) Run(ctx context.Context, name domain.ReportName, p domain.ReportParams) (*domain.Report, error) {
	return nil, ErrReportsUnsupported
}
