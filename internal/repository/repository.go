package repository

import (
	"context"
	"errors"
	"time"

	"equiprent-backend/internal/domain"
)

// ErrStatusChanged is returned by guarded status updates when the row no longer
// holds the expected status, i.e. a concurrent transaction moved it first.
var ErrStatusChanged = errors.New("status changed concurrently")

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetPersonalData(ctx context.Context, userID int64) (*domain.UserPersonalData, error)
}

type EquipmentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Equipment, error)
	ListByIDs(ctx context.Context, ids []int64) ([]domain.Equipment, error)
	List(ctx context.Context, status domain.EquipmentStatus) ([]domain.Equipment, error)
	UpdateStatus(ctx context.Context, id int64, status domain.EquipmentStatus) error
	// LoadFacts returns derivation inputs for the given units, or for every unit when ids is empty.
	LoadFacts(ctx context.Context, ids []int64) ([]domain.EquipmentFacts, error)
}

type RentalRepository interface {
	// Create inserts the rental and all of its items.
	Create(ctx context.Context, rental *domain.Rental) error
	GetByID(ctx context.Context, id int64) (*domain.Rental, error)
	ListItems(ctx context.Context, rentalID int64) ([]domain.RentalItem, error)
	List(ctx context.Context, filter domain.RentalFilter) ([]domain.Rental, int32, error)
	// UpdateStatus moves a rental from one status to another, failing with
	// ErrStatusChanged when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id int64, from, to domain.RentalStatus, returnDate *time.Time) error
	ListOverdueCandidates(ctx context.Context, asOf time.Time) ([]domain.Rental, error)
	ListOverdueReminders(ctx context.Context) ([]domain.OverdueReminder, error)
}

type RepairRepository interface {
	Create(ctx context.Context, repair *domain.Repair) error
	GetByID(ctx context.Context, id int64) (*domain.Repair, error)
	UpdateStatus(ctx context.Context, id int64, from, to domain.RepairStatus, endDate *time.Time) error
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	ListByRental(ctx context.Context, rentalID int64) ([]domain.Payment, error)
}

type DamageRepository interface {
	Create(ctx context.Context, damage *domain.Damage) error
	ListByRental(ctx context.Context, rentalID int64) ([]domain.Damage, error)
}

type AuditRepository interface {
	Record(ctx context.Context, entry *domain.AuditEntry) error
}

type ReportRepository interface {
	Run(ctx context.Context, name domain.ReportName, params domain.ReportParams) (*domain.Report, error)
}

// Store groups the repositories and runs units of work. Repositories obtained from
// the Store passed to a WithTx callback share that transaction.
type Store interface {
	Users() UserRepository
	Equipment() EquipmentRepository
	Rentals() RentalRepository
	Repairs() RepairRepository
	Payments() PaymentRepository
	Damages() DamageRepository
	Audit() AuditRepository
	Reports() ReportRepository
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
