package alerts

import (
	"context"
	"time"

	"github.com/warp/carbon-engine/carbon"
	"github.com/warp/carbon-engine/energy"
	"github.com/warp/carbon-engine/generic"
)

// InsightWindowDays is how far back insights look at records.
const InsightWindowDays = 30

// RecordSource is the read side of the ledger.
type RecordSource interface {
	Records(ctx context.Context, companyID string, period generic.Period) ([]energy.EnergyRecord, error)
}

// Directory resolves companies and their thresholds.
type Directory interface {
	Company(ctx context.Context, id string) (energy.Company, error)
	Thresholds(ctx context.Context, companyID string) ([]energy.Threshold, error)
}

// Observer is notified of each evaluation (metrics).
type Observer interface {
	AlertsEvaluated(emitted int)
}

type Service struct {
	records   RecordSource
	directory Directory
	registry  *carbon.Registry
	observer  Observer
	now       func() time.Time
}

func NewService(records RecordSource, directory Directory, registry *carbon.Registry, observer Observer) *Service {
	return &Service{records: records, directory: directory, registry: registry, observer: observer, now: time.Now}
}

// WithClock replaces the clock that anchors the active period.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Alerts evaluates the company's thresholds month to date.
func (s *Service) Alerts(ctx context.Context, companyID string) ([]Alert, error) {
	thresholds, err := s.directory.Thresholds(ctx, companyID)
	if err != nil {
		return nil, err
	}
	period := generic.MonthToDate(generic.FromTime(s.now()))
	recs, err := s.records.Records(ctx, companyID, period)
	if err != nil {
		return nil, err
	}
	alerts := Evaluate(thresholds, AggregatesOf(recs, period))
	if s.observer != nil {
		s.observer.AlertsEvaluated(len(alerts))
	}
	return alerts, nil
}

// Insights derives recommendations from the last 30 days of records.
func (s *Service) Insights(ctx context.Context, companyID string) ([]Insight, error) {
	company, err := s.directory.Company(ctx, companyID)
	if err != nil {
		return nil, err
	}
	thresholds, err := s.directory.Thresholds(ctx, companyID)
	if err != nil {
		return nil, err
	}

	today := generic.FromTime(s.now())
	window := generic.TrailingDays(today, InsightWindowDays)
	mtd := generic.MonthToDate(today)
	start := window.Start
	if mtd.Start.Before(start) {
		start = mtd.Start
	}
	recs, err := s.records.Records(ctx, companyID, generic.Period{Start: start, End: today})
	if err != nil {
		return nil, err
	}

	var recent []energy.EnergyRecord
	for _, r := range recs {
		if window.Contains(r.UsageDate) {
			recent = append(recent, r)
		}
	}
	return Insights(InsightInput{
		Company:          company,
		Records:          recent,
		MonthToDateAIKwh: AggregatesOf(recs, mtd).AIKwh,
		Thresholds:       thresholds,
		Registry:         s.registry,
	}), nil
}
