package domain

import "time"

type RepairStatus string

const (
	RepairStatusPlanned    RepairStatus = "Planned"
	RepairStatusInProgress RepairStatus = "InProgress"
	RepairStatusCompleted  RepairStatus = "Completed"
	RepairStatusCancelled  RepairStatus = "Cancelled"
)

var repairTransitions = map[RepairStatus]map[RepairStatus]struct{}{
	RepairStatusPlanned:    {RepairStatusInProgress: {}, RepairStatusCancelled: {}},
	RepairStatusInProgress: {RepairStatusCompleted: {}, RepairStatusCancelled: {}},
	RepairStatusCompleted:  {},
	RepairStatusCancelled:  {},
}

func (s RepairStatus) Valid() bool {
	_, ok := repairTransitions[s]
	return ok
}

// Open reports whether the repair keeps its equipment out of circulation.
func (s RepairStatus) Open() bool {
	return s == RepairStatusPlanned || s == RepairStatusInProgress
}

func (s RepairStatus) CanTransition(to RepairStatus) bool {
	_, ok := repairTransitions[s][to]
	return ok
}

func ParseRepairStatus(v string) (RepairStatus, error) {
	s := RepairStatus(v)
	if !s.Valid() {
		return "", NewValidation("status", "unknown repair status %q", v)
	}
	return s, nil
}

// OpenRepairStatuses are the statuses that put equipment under maintenance.
func OpenRepairStatuses() []string {
	return []string{string(RepairStatusPlanned), string(RepairStatusInProgress)}
}

type Repair struct {
	ID          int64        `json:"id"`
	EquipmentID int64        `json:"equipment_id"`
	StartDate   time.Time    `json:"start_date"`
	EndDate     *time.Time   `json:"end_date,omitempty"`
	Description string       `json:"description"`
	CostCents   *int64       `json:"cost_cents,omitempty"`
	Status      RepairStatus `json:"status"`
}
