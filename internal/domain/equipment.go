package domain

import "time"

type EquipmentStatus string

const (
	EquipmentStatusAvailable        EquipmentStatus = "Available"
	EquipmentStatusRented           EquipmentStatus = "Rented"
	EquipmentStatusUnderMaintenance EquipmentStatus = "UnderMaintenance"
	EquipmentStatusDecommissioned   EquipmentStatus = "Decommissioned"
)

func (s EquipmentStatus) Valid() bool {
	switch s {
	case EquipmentStatusAvailable, EquipmentStatusRented, EquipmentStatusUnderMaintenance, EquipmentStatusDecommissioned:
		return true
	}
	return false
}

func ParseEquipmentStatus(v string) (EquipmentStatus, error) {
	s := EquipmentStatus(v)
	if !s.Valid() {
		return "", NewValidation("status", "unknown equipment status %q", v)
	}
	return s, nil
}

type EquipmentCategory struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ParentID    *int64    `json:"parent_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type EquipmentModel struct {
	ID                     int64  `json:"id"`
	Name                   string `json:"name"`
	Brand                  string `json:"brand"`
	Description            string `json:"description"`
	RentalPricePerDayCents int64  `json:"rental_price_per_day_cents"`
	DepositCents           int64  `json:"deposit_cents"`
}

type Equipment struct {
	ID              int64           `json:"id"`
	CategoryID      int64           `json:"category_id"`
	ModelID         int64           `json:"model_id"`
	InventoryNumber string          `json:"inventory_number"`
	Status          EquipmentStatus `json:"status"`
	CategoryName    string          `json:"category_name,omitempty"`
	ModelName       string          `json:"model_name,omitempty"`
}

// EquipmentFacts are the inputs of status derivation for one unit.
type EquipmentFacts struct {
	EquipmentID  int64
	Current      EquipmentStatus
	InLiveRental bool
	InOpenRepair bool
}

// DeriveEquipmentStatus computes the status a unit should have from current relations.
// Decommissioned is sticky and never overridden.
func DeriveEquipmentStatus(f EquipmentFacts) EquipmentStatus {
	switch {
	case f.Current == EquipmentStatusDecommissioned:
		return EquipmentStatusDecommissioned
	case f.InLiveRental:
		return EquipmentStatusRented
	case f.InOpenRepair:
		return EquipmentStatusUnderMaintenance
	default:
		return EquipmentStatusAvailable
	}
}

// ReconcileResult summarises one reconciliation pass.
type ReconcileResult struct {
	Checked int               `json:"checked"`
	Changed int               `json:"changed"`
	Updates []EquipmentUpdate `json:"updates,omitempty"`
}

type EquipmentUpdate struct {
	EquipmentID int64           `json:"equipment_id"`
	From        EquipmentStatus `json:"from"`
	To          EquipmentStatus `json:"to"`
}
