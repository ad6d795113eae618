// Package memory is an in-process repository.Store. Transactions work on a
// copy of the data that replaces the shared state only on commit, so a failed
// unit of work leaves nothing behind.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"
)

var ErrReportsUnsupported = errors.New("reports require the postgres store")

type data struct {
	seq       int64
	users     map[int64]domain.User
	equipment map[int64]domain.Equipment
	rentals   map[int64]domain.Rental
	items     map[int64]domain.RentalItem
	repairs   map[int64]domain.Repair
	payments  map[int64]domain.Payment
	damages   map[int64]domain.Damage
	audit     []domain.AuditEntry
}

func newData() *data {
	return &data{
		users:     map[int64]domain.User{},
		equipment: map[int64]domain.Equipment{},
		rentals:   map[int64]domain.Rental{},
		items:     map[int64]domain.RentalItem{},
		repairs:   map[int64]domain.Repair{},
		payments:  map[int64]domain.Payment{},
		damages:   map[int64]domain.Damage{},
	}
}

func cloneMap[V any](m map[int64]V) map[int64]V {
	out := make(map[int64]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *data) clone() *data {
	return &data{
		seq:       d.seq,
		users:     cloneMap(d.users),
		equipment: cloneMap(d.equipment),
		rentals:   cloneMap(d.rentals),
		items:     cloneMap(d.items),
		repairs:   cloneMap(d.repairs),
		payments:  cloneMap(d.payments),
		damages:   cloneMap(d.damages),
		audit:     append([]domain.AuditEntry(nil), d.audit...),
	}
}

func (d *data) nextID() int64 {
	d.seq++
	return d.seq
}

type shared struct {
	mu       sync.Mutex
	txLock   sync.Mutex
	data     *data
	failures map[string]error
}

type Store struct {
	sh   *shared
	tx   *data
	txMu *sync.Mutex
}

func NewStore() *Store {
	return &Store{sh: &shared{data: newData(), failures: map[string]error{}}}
}

// FailOn makes the next call of the named operation return err. Operation
// names are "<table>.<verb>", e.g. "rental_items.insert" or "equipment.update",
// plus "commit".
func (s *Store) FailOn(op string, err error) {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	s.sh.failures[op] = err
}

// view runs fn against the transaction copy, or against the shared data under lock.
func (s *Store) view(fn func(d *data) error) error {
	if s.tx != nil {
		s.txMu.Lock()
		defer s.txMu.Unlock()
		return fn(s.tx)
	}
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	return fn(s.sh.data)
}

// failure pops an injected error. It is called from inside view.
func (s *Store) failure(op string) error {
	if s.tx != nil {
		s.sh.mu.Lock()
		defer s.sh.mu.Unlock()
	}
	return s.sh.popFailure(op)
}

func (sh *shared) popFailure(op string) error {
	err, ok := sh.failures[op]
	if ok {
		delete(sh.failures, op)
	}
	return err
}

// WithTx serializes transactions. Each one works on a copy of the committed
// state that is published only when fn succeeds.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.sh.txLock.Lock()
	defer s.sh.txLock.Unlock()

	s.sh.mu.Lock()
	txStore := &Store{sh: s.sh, tx: s.sh.data.clone(), txMu: &sync.Mutex{}}
	s.sh.mu.Unlock()

	if err := fn(txStore); err != nil {
		return err
	}

	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	if err := s.sh.popFailure("commit"); err != nil {
		return err
	}
	s.sh.data = txStore.tx
	return nil
}

func (s *Store) Users() repository.UserRepository { return userRepo{s} }
func (s *Store) Equipment() repository.EquipmentRepository { return equipmentRepo{s} }
func (s *Store) Rentals() repository.RentalRepository { return rentalRepo{s} }
func (s *Store) Repairs() repository.RepairRepository { return repairRepo{s} }
func (s *Store) Payments() repository.PaymentRepository { return paymentRepo{s} }
func (s *Store) Damages() repository.DamageRepository { return damageRepo{s} }
func (s *Store) Audit() repository.AuditRepository { return auditRepo{s} }
func (s *Store) Reports() repository.ReportRepository { return reportRepo{} }

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func now() time.Time { return time.Now().UTC() }
