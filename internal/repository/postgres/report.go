package postgres

import (
	"context"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

// reportQueries maps each named report to the view or function that produces it.
// The SQL behind them lives in the database and is returned verbatim.
var reportQueries = map[domain.ReportName]string{
	domain.ReportActiveRentals:  `SELECT * FROM v_active_rentals`,
	domain.ReportOverdueRentals: `SELECT * FROM v_overdue_rentals`,
	domain.ReportClientStats:    `SELECT * FROM v_client_stats`,
	domain.ReportMonthlyRevenue: `SELECT * FROM v_monthly_revenue`,
	domain.ReportEndingSoon:     `SELECT * FROM get_rentals_ending_soon($1)`,
	domain.ReportPeriod:         `SELECT * FROM get_rentals_period_report($1, $2)`,
}

type reportRepository struct {
	db DBTX
}

func NewReportRepository(db DBTX) repository.ReportRepository {
	return &reportRepository{db: db}
}

func reportArgs(name domain.ReportName, p domain.ReportParams) []any {
	switch name {
	case domain.ReportEndingSoon:
		return []any{p.EndingSoonDays()}
	case domain.ReportPeriod:
		return []any{p.StartDate, p.EndDate}
	}
	return nil
}

func (r *reportRepository) Run(ctx context.Context, name domain.ReportName, p domain.ReportParams) (*domain.Report, error) {
	query, ok := reportQueries[name]
	if !ok {
		return nil, domain.NewNotFound("report", string(name))
	}

	logger.DatabaseCall("SELECT", query, "report", name)
	rows, err := r.db.QueryContext(ctx, query, reportArgs(name, p)...)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err, "report", name)
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	report := &domain.Report{Name: name, Columns: cols, Rows: []map[string]any{}}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = normalizeValue(values[i])
		}
		report.Rows = append(report.Rows, row)
	}
	if err := rows.Err(); err != nil {
		logger.DatabaseResult("SELECT", 0, err, "report", name)
		return nil, err
	}

	logger.DatabaseResult("SELECT", int64(len(report.Rows)), nil, "report", name)
	return report, nil
}

// normalizeValue makes driver values JSON friendly. NUMERIC arrives as []byte
// and is kept as its exact decimal text.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format(domain.DateLayout)
		}
		return t.UTC().Format(time.RFC3339)
	}
	return v
}
