package service

import (
	"context"
	"fmt"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

type reportService struct {
	store repository.Store
	cache ReportCache
}

// NewReportService runs named reports against the store. cache may be nil.
func NewReportService(store repository.Store, cache ReportCache) ReportService {
	return &reportService{store: store, cache: cache}
}

func (s *reportService) Names() []domain.ReportName {
	return domain.ReportNames()
}

func validateReportParams(name domain.ReportName, p domain.ReportParams) error {
	switch name {
	case domain.ReportEndingSoon:
		if p.EndingSoonDays() < 0 {
			return domain.NewValidation("days", "must not be negative")
		}
	case domain.ReportPeriod:
		if p.StartDate.IsZero() {
			return domain.NewValidation("start_date", "is required")
		}
		if p.EndDate.IsZero() {
			return domain.NewValidation("end_date", "is required")
		}
		if p.EndDate.Before(p.StartDate) {
			return domain.NewValidation("end_date", "must not be before start_date")
		}
	}
	return nil
}

// cacheKey identifies a report run by name and the parameters that name uses.
func cacheKey(name domain.ReportName, p domain.ReportParams) string {
	switch name {
	case domain.ReportEndingSoon:
		return fmt.Sprintf("report:%s:%d", name, p.EndingSoonDays())
	case domain.ReportPeriod:
		return fmt.Sprintf("report:%s:%s:%s", name, p.StartDate.Format(domain.DateLayout), p.EndDate.Format(domain.DateLayout))
	}
	return "report:" + string(name)
}

func (s *reportService) Run(ctx context.Context, name domain.ReportName, p domain.ReportParams) (*domain.Report, error) {
	logger.EnterMethod("reportService.Run", "report", name)

	if !name.Valid() {
		err := domain.NewNotFound("report", string(name))
		logger.ExitMethodWithError("reportService.Run", err)
		return nil, err
	}
	if name == domain.ReportPeriod {
		p.StartDate = domain.TruncateDate(p.StartDate)
		p.EndDate = domain.TruncateDate(p.EndDate)
	}
	if err := validateReportParams(name, p); err != nil {
		logger.ExitMethodWithError("reportService.Run", err, "report", name)
		return nil, err
	}

	key := cacheKey(name, p)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		if err != nil {
			logger.Warn("Report cache read failed", "key", key, "error", err)
		} else if cached != nil {
			logger.ExitMethod("reportService.Run", "report", name, "cached", true)
			return cached, nil
		}
	}

	report, err := s.store.Reports().Run(ctx, name, p)
	if err != nil {
		logger.ExitMethodWithError("reportService.Run", err, "report", name)
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, report); err != nil {
			logger.Warn("Report cache write failed", "key", key, "error", err)
		}
	}
	logger.ExitMethod("reportService.Run", "report", name, "rows", len(report.Rows))
	return report, nil
}
