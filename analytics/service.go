package analytics

import (
	"context"
	"time"

	"github.com/warp/carbon-engine/carbon"
	"github.com/warp/carbon-engine/energy"
	"github.com/warp/carbon-engine/generic"
)

// RecordSource is the read side of the ledger.
type RecordSource interface {
	Records(ctx context.Context, companyID string, period generic.Period) ([]energy.EnergyRecord, error)
}

// Directory resolves companies and their departments.
type Directory interface {
	Company(ctx context.Context, id string) (energy.Company, error)
	Departments(ctx context.Context, companyID string) ([]energy.Department, error)
}

// Service loads records and runs the pure aggregations over them.
type Service struct {
	records   RecordSource
	directory Directory
	registry  *carbon.Registry
	now       func() time.Time
}

func NewService(records RecordSource, directory Directory, registry *carbon.Registry) *Service {
	return &Service{records: records, directory: directory, registry: registry, now: time.Now}
}

// WithClock replaces the clock that anchors "today".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() generic.TimePoint {
	return generic.FromTime(s.now())
}

// Trends returns the trailing monthly series, oldest first.
func (s *Service) Trends(ctx context.Context, companyID string, months int) ([]MonthlyBucket, error) {
	if months <= 0 {
		months = DefaultHistoryMonths
	}
	if months > 60 {
		return nil, generic.Invalid("months", months, "must be <= 60")
	}
	today := s.today()
	window := generic.TrailingMonths(today, months)
	recs, err := s.records.Records(ctx, companyID, generic.Period{Start: window[0].Start, End: window[len(window)-1].End})
	if err != nil {
		return nil, err
	}
	return MonthlyBuckets(recs, today, months), nil
}

// Forecast extrapolates the last historyMonths complete-or-current months
// monthsAhead months into the future.
func (s *Service) Forecast(ctx context.Context, companyID string, historyMonths, monthsAhead int) ([]ForecastPoint, error) {
	if monthsAhead <= 0 {
		monthsAhead = DefaultForecastMonths
	}
	if monthsAhead > 24 {
		return nil, generic.Invalid("months", monthsAhead, "must be <= 24")
	}
	buckets, err := s.Trends(ctx, companyID, historyMonths)
	if err != nil {
		return nil, err
	}
	return Forecast(buckets, monthsAhead), nil
}

// Departments breaks usage in period down by department. A zero period
// covers all time.
func (s *Service) Departments(ctx context.Context, companyID string, period generic.Period) ([]DepartmentUsage, error) {
	depts, err := s.directory.Departments(ctx, companyID)
	if err != nil {
		return nil, err
	}
	recs, err := s.records.Records(ctx, companyID, period)
	if err != nil {
		return nil, err
	}
	return CompareDepartments(recs, depts, period), nil
}

// YearOverYear compares year to date with the same window last year.
func (s *Service) YearOverYear(ctx context.Context, companyID string) (YearOverYear, error) {
	today := s.today()
	recs, err := s.records.Records(ctx, companyID, generic.Period{
		Start: generic.StartOfYear(today.Year() - 1),
		End:   today,
	})
	if err != nil {
		return YearOverYear{}, err
	}
	return CompareYearOverYear(recs, today), nil
}

// Summary computes the 30-day dashboard KPIs.
func (s *Service) Summary(ctx context.Context, companyID string) (Summary, error) {
	company, err := s.directory.Company(ctx, companyID)
	if err != nil {
		return Summary{}, err
	}
	depts, err := s.directory.Departments(ctx, companyID)
	if err != nil {
		return Summary{}, err
	}
	today := s.today()
	window := generic.TrailingDays(today, SummaryDays)
	recs, err := s.records.Records(ctx, companyID, generic.Period{Start: window.PreviousPeriod().Start, End: today})
	if err != nil {
		return Summary{}, err
	}
	return Summarize(recs, today, company.Currency, len(depts)), nil
}

// Regions breaks all recorded usage down by region.
func (s *Service) Regions(ctx context.Context, companyID string) ([]RegionUsage, error) {
	recs, err := s.records.Records(ctx, companyID, generic.Period{})
	if err != nil {
		return nil, err
	}
	return RegionBreakdown(recs, s.registry), nil
}
