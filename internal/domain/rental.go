package domain

import "time"

type RentalStatus string

const (
	RentalStatusActive    RentalStatus = "Active"
	RentalStatusOverdue   RentalStatus = "Overdue"
	RentalStatusCompleted RentalStatus = "Completed"
	RentalStatusCancelled RentalStatus = "Cancelled"
)

var rentalTransitions = map[RentalStatus]map[RentalStatus]struct{}{
	RentalStatusActive: {
		RentalStatusOverdue:   {},
		RentalStatusCompleted: {},
		RentalStatusCancelled: {},
	},
	RentalStatusOverdue: {
		RentalStatusActive:    {},
		RentalStatusCompleted: {},
		RentalStatusCancelled: {},
	},
	RentalStatusCompleted: {},
	RentalStatusCancelled: {},
}

func (s RentalStatus) Valid() bool {
	_, ok := rentalTransitions[s]
	return ok
}

// Live reports whether the rental still holds its equipment.
func (s RentalStatus) Live() bool {
	return s == RentalStatusActive || s == RentalStatusOverdue
}

// CanTransition returns whether a rental may move from one status to another.
func (s RentalStatus) CanTransition(to RentalStatus) bool {
	allowed, ok := rentalTransitions[s]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

func ParseRentalStatus(v string) (RentalStatus, error) {
	s := RentalStatus(v)
	if !s.Valid() {
		return "", NewValidation("status", "unknown rental status %q", v)
	}
	return s, nil
}

// LiveRentalStatuses are the statuses whose items keep equipment rented.
func LiveRentalStatuses() []string {
	return []string{string(RentalStatusActive), string(RentalStatusOverdue)}
}

type Rental struct {
	ID         int64        `json:"id"`
	ClientID   int64        `json:"user_id"`
	EmployeeID int64        `json:"employee_id"`
	StartDate  time.Time    `json:"start_date"`
	EndDate    time.Time    `json:"end_date"`
	ReturnDate *time.Time   `json:"return_date,omitempty"`
	Status     RentalStatus `json:"status"`
	// TotalCostCents is never derived by the lifecycle; it is stored as-is.
	TotalCostCents *int64       `json:"total_cost_cents,omitempty"`
	Items          []RentalItem `json:"items"`
	// ClientData is filled by GetRental when the client has personal data on file.
	ClientData *UserPersonalData `json:"client_personal_data,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// EquipmentIDs lists the equipment referenced by the rental's items.
func (r *Rental) EquipmentIDs() []int64 {
	ids := make([]int64, 0, len(r.Items))
	for _, it := range r.Items {
		ids = append(ids, it.EquipmentID)
	}
	return ids
}

type RentalItem struct {
	ID             int64      `json:"id"`
	RentalID       int64      `json:"rental_id"`
	EquipmentID    int64      `json:"equipment_id"`
	DamageFeeCents int64      `json:"damage_fee_cents"`
	Equipment      *Equipment `json:"equipment,omitempty"` // Populated by GetRental
	CreatedAt      time.Time  `json:"created_at"`
}

// RentalFilter narrows ListRentals. Zero values mean "any".
type RentalFilter struct {
	ClientID int64
	Status   RentalStatus
	Page     int32
	PageSize int32
}

// Offset is the number of rows before the page. It is computed in int64 so
// large page numbers cannot wrap around.
func (f RentalFilter) Offset() int64 {
	if f.Page < 1 {
		return 0
	}
	return int64(f.Page-1) * int64(f.PageSize)
}

// OverdueReminder is one overdue rental joined with its client's contact details.
type OverdueReminder struct {
	RentalID    int64
	ClientID    int64
	ClientName  string
	ClientEmail string
	EndDate     time.Time
	ItemCount   int
}
