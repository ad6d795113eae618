package domain

import "time"

type ReportName string

const (
	ReportActiveRentals  ReportName = "active"
	ReportOverdueRentals ReportName = "overdue"
	ReportClientStats    ReportName = "clients"
	ReportMonthlyRevenue ReportName = "monthly"
	ReportEndingSoon     ReportName = "ending_soon"
	ReportPeriod         ReportName = "period"
)

// DefaultEndingSoonDays matches the reporting function's default horizon.
const DefaultEndingSoonDays = 2

var reportNames = []ReportName{
	ReportActiveRentals,
	ReportOverdueRentals,
	ReportClientStats,
	ReportMonthlyRevenue,
	ReportEndingSoon,
	ReportPeriod,
}

func (n ReportName) Valid() bool {
	for _, r := range reportNames {
		if r == n {
			return true
		}
	}
	return false
}

// EndingSoonDays resolves Days against the default.
func (p ReportParams) EndingSoonDays() int {
	if p.Days == nil {
		return DefaultEndingSoonDays
	}
	return *p.Days
}

func ReportNames() []ReportName {
	return append([]ReportName(nil), reportNames...)
}

// ReportParams carries the arguments of parameterised reports. A nil Days
// means DefaultEndingSoonDays.
type ReportParams struct {
	Days      *int
	StartDate time.Time
	EndDate   time.Time
}

// Report is a row set returned verbatim by the store.
type Report struct {
	Name    ReportName       `json:"name"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}
