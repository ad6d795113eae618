package service

import (
	"context"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/events"
)

// RentalItemInput is one equipment unit requested for a rental.
type RentalItemInput struct {
	EquipmentID    int64 `json:"equipment_id"`
	DamageFeeCents int64 `json:"damage_fee_cents"`
}

type CreateRentalInput struct {
	ClientID   int64
	EmployeeID int64
	StartDate  time.Time
	EndDate    time.Time
	ReturnDate *time.Time
	Items      []RentalItemInput
}

type OpenRepairInput struct {
	EquipmentID int64
	StartDate   time.Time
	Description string
	CostCents   *int64
	// Status is Planned when empty.
	Status domain.RepairStatus
}

// RentalService is the rental lifecycle manager: the only code that creates
// rentals or changes their status.
type RentalService interface {
	CreateRental(ctx context.Context, in CreateRentalInput) (*domain.Rental, error)
	GetRental(ctx context.Context, id int64) (*domain.Rental, error)
	ListRentals(ctx context.Context, filter domain.RentalFilter) ([]domain.Rental, int32, error)
	ReturnRental(ctx context.Context, id int64, returnDate time.Time) (*domain.Rental, error)
	CancelRental(ctx context.Context, id int64) (*domain.Rental, error)
	// MarkOverdue moves every Active rental whose end date is before asOf to Overdue.
	MarkOverdue(ctx context.Context, asOf time.Time) ([]int64, error)
}

type EquipmentService interface {
	GetEquipment(ctx context.Context, id int64) (*domain.Equipment, error)
	ListEquipment(ctx context.Context, status domain.EquipmentStatus) ([]domain.Equipment, error)
	Decommission(ctx context.Context, id int64) (*domain.Equipment, error)
	ReconcileAll(ctx context.Context) (*domain.ReconcileResult, error)
	ReconcileEquipment(ctx context.Context, ids []int64) (*domain.ReconcileResult, error)
	// Subscribe hooks reconciliation onto rental and repair events.
	Subscribe(bus *events.Bus)
}

type RepairService interface {
	OpenRepair(ctx context.Context, in OpenRepairInput) (*domain.Repair, error)
	UpdateRepairStatus(ctx context.Context, id int64, status domain.RepairStatus, endDate *time.Time) (*domain.Repair, error)
}

type PaymentService interface {
	RecordPayment(ctx context.Context, rentalID, amountCents int64, method domain.PaymentMethod) (*domain.Payment, error)
	ListPayments(ctx context.Context, rentalID int64) ([]domain.Payment, error)
}

type DamageService interface {
	RecordDamage(ctx context.Context, rentalID, equipmentID int64, description string) (*domain.Damage, error)
	ListDamages(ctx context.Context, rentalID int64) ([]domain.Damage, error)
}

type ReportService interface {
	Run(ctx context.Context, name domain.ReportName, params domain.ReportParams) (*domain.Report, error)
	Names() []domain.ReportName
}

// ReportCache stores report results. Get returns nil, nil on a miss.
type ReportCache interface {
	Get(ctx context.Context, key string) (*domain.Report, error)
	Set(ctx context.Context, key string, report *domain.Report) error
}
