package memory

import "equiprent-backend/internal/domain"

// Seeding helpers write committed state directly, bypassing validation.

func (s *Store) AddUser(u domain.User) int64 {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.sh.data.nextID()
	} else if u.ID > s.sh.data.seq {
		s.sh.data.seq = u.ID
	}
	s.sh.data.users[u.ID] = u
	return u.ID
}

func (s *Store) AddEquipment(e domain.Equipment) int64 {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	if e.ID == 0 {
		e.ID = s.sh.data.nextID()
	} else if e.ID > s.sh.data.seq {
		s.sh.data.seq = e.ID
	}
	if e.Status == "" {
		e.Status = domain.EquipmentStatusAvailable
	}
	s.sh.data.equipment[e.ID] = e
	return e.ID
}

// AddRental stores a rental with its items in whatever status it carries.
func (s *Store) AddRental(rt domain.Rental) int64 {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	d := s.sh.data
	rt.ID = d.nextID()
	items := rt.Items
	rt.Items = nil
	d.rentals[rt.ID] = rt
	for _, it := range items {
		it.ID = d.nextID()
		it.RentalID = rt.ID
		d.items[it.ID] = it
	}
	return rt.ID
}

func (s *Store) AddRepair(rp domain.Repair) int64 {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	rp.ID = s.sh.data.nextID()
	s.sh.data.repairs[rp.ID] = rp
	return rp.ID
}

// AuditEntries returns a copy of the committed audit log.
func (s *Store) AuditEntries() []domain.AuditEntry {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	return append([]domain.AuditEntry(nil), s.sh.data.audit...)
}

// Counts reports committed row counts for rentals and rental items.
func (s *Store) Counts() (rentals, items int) {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	return len(s.sh.data.rentals), len(s.sh.data.items)
}
