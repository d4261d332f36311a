/*
ledger.go - Append-only energy ledger

PURPOSE:
  The Ledger is the only way records enter the store. It validates each
  reading, attributes its AI share, resolves the carbon intensity, and
  snapshots every derived value onto the record before appending it.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete. Corrections are new records.
  2. SNAPSHOT: Derived values are computed once, at write time.
  3. NO COERCION: A negative reading or unknown region is rejected,
     never clamped or defaulted away.
  4. SERIALIZED PER COMPANY: Writers for one company run one at a time;
     different companies never block each other.

EXAMPLE FLOW:
  Company baseline 0.30, department "ML Platform" weight 0.80, region US
  (386 gCO2/kWh), price 0.12:

    Record{TotalKwh: 1000, DepartmentID: ml}
      ai     = 1000 × 0.80      = 800 kWh
      co2e   = 1000 × 386/1000  = 386 kg
      aiCo2e = 800 × 386/1000   = 308.8 kg
      cost   = 1000 × 0.12      = 120

SEE ALSO:
  - import.go: Bulk CSV import with per-row rejections
  - attribution.go: AI share rule
  - carbon/calculator.go: Intensity resolution
*/
package energy

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/carbon-engine/carbon"
	"github.com/warp/carbon-engine/generic"
)

// =============================================================================
// HOOKS
// =============================================================================

// Publisher receives records after they are durably appended. Publishing
// failures are logged and never undo the append.
type Publisher interface {
	PublishRecords(ctx context.Context, records []EnergyRecord) error
}

// Observer is notified of ledger activity (metrics).
type Observer interface {
	RecordsAppended(source DataSource, n int)
	RowsRejected(n int)
}

type nopObserver struct{}

func (nopObserver) RecordsAppended(DataSource, int) {}
func (nopObserver) RowsRejected(int)                {}

// =============================================================================
// LEDGER
// =============================================================================

type Ledger struct {
	store     Store
	calc      *carbon.Calculator
	publisher Publisher
	observer  Observer
	logger    *zap.Logger
	now       func() time.Time
	locks     *keyedMutex
}

type LedgerOption func(*Ledger)

func WithPublisher(p Publisher) LedgerOption { return func(l *Ledger) { l.publisher = p } }
func WithObserver(o Observer) LedgerOption   { return func(l *Ledger) { l.observer = o } }
func WithLogger(log *zap.Logger) LedgerOption {
	return func(l *Ledger) { l.logger = log }
}
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

func NewLedger(store Store, calc *carbon.Calculator, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		store:    store,
		calc:     calc,
		observer: nopObserver{},
		logger:   zap.NewNop(),
		now:      time.Now,
		locks:    newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RecordInput is a single reading submitted by a client.
type RecordInput struct {
	DepartmentID string // optional
	UsageDate    generic.TimePoint
	TotalKwh     decimal.Decimal
	Region       string // optional, defaults to the company region
	PeriodType   PeriodType
	DataSource   DataSource
}

// Record validates, derives and appends one reading.
func (l *Ledger) Record(ctx context.Context, companyID string, in RecordInput) (EnergyRecord, error) {
	unlock := l.locks.Lock(companyID)
	defer unlock()

	company, err := l.store.GetCompany(ctx, companyID)
	if err != nil {
		return EnergyRecord{}, err
	}

	var dept *Department
	if in.DepartmentID != "" {
		d, err := l.store.GetDepartment(ctx, in.DepartmentID)
		if err != nil {
			return EnergyRecord{}, err
		}
		if d.CompanyID != companyID {
			return EnergyRecord{}, generic.Invalid("departmentId", in.DepartmentID, "department belongs to another company")
		}
		dept = &d
	}

	if in.DataSource == "" {
		in.DataSource = SourceManual
	}
	rec, err := l.derive(ctx, company, dept, in)
	if err != nil {
		return EnergyRecord{}, err
	}

	if err := l.store.AppendRecords(ctx, []EnergyRecord{rec}); err != nil {
		return EnergyRecord{}, err
	}
	l.observer.RecordsAppended(rec.DataSource, 1)
	l.logger.Debug("energy record appended",
		zap.String("company_id", companyID),
		zap.String("record_id", rec.ID),
		zap.String("usage_date", rec.UsageDate.String()),
		zap.String("total_kwh", rec.TotalKwh.String()),
	)
	l.publish(ctx, []EnergyRecord{rec})
	return rec, nil
}

// RecordBatch derives and appends several readings atomically: one invalid
// input rejects the whole batch and nothing is stored.
func (l *Ledger) RecordBatch(ctx context.Context, companyID string, inputs []RecordInput) ([]EnergyRecord, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	unlock := l.locks.Lock(companyID)
	defer unlock()

	company, err := l.store.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	depts, err := l.store.ListDepartments(ctx, companyID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*Department, len(depts))
	for i := range depts {
		byID[depts[i].ID] = &depts[i]
	}

	records := make([]EnergyRecord, 0, len(inputs))
	for _, in := range inputs {
		var dept *Department
		if in.DepartmentID != "" {
			d, ok := byID[in.DepartmentID]
			if !ok {
				return nil, generic.NotFound("department", in.DepartmentID)
			}
			dept = d
		}
		if in.DataSource == "" {
			in.DataSource = SourceManual
		}
		rec, err := l.derive(ctx, company, dept, in)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := l.store.AppendRecords(ctx, records); err != nil {
		return nil, err
	}
	sources := make(map[DataSource]int)
	for _, r := range records {
		sources[r.DataSource]++
	}
	for src, n := range sources {
		l.observer.RecordsAppended(src, n)
	}
	l.logger.Info("energy records appended",
		zap.String("company_id", companyID),
		zap.Int("count", len(records)),
	)
	l.publish(ctx, records)
	return records, nil
}

// Records returns the company's records within period, oldest first.
func (l *Ledger) Records(ctx context.Context, companyID string, period generic.Period) ([]EnergyRecord, error) {
	if !period.IsZero() && !period.Valid() {
		return nil, generic.Invalid("endDate", period.End.String(), "must not be before startDate")
	}
	if _, err := l.store.GetCompany(ctx, companyID); err != nil {
		return nil, err
	}
	return l.store.LoadRecords(ctx, companyID, period)
}

// Calculator exposes the carbon calculator the ledger derives with.
func (l *Ledger) Calculator() *carbon.Calculator {
	return l.calc
}

// derive builds the record with its snapshot. It performs every validation
// a reading is subject to, so Record and Import reject the same inputs.
func (l *Ledger) derive(ctx context.Context, company Company, dept *Department, in RecordInput) (EnergyRecord, error) {
	if in.UsageDate.IsZero() {
		return EnergyRecord{}, generic.Invalid("usageDate", nil, "is required")
	}
	periodType, err := ParsePeriodType(string(in.PeriodType))
	if err != nil {
		return EnergyRecord{}, err
	}

	attr, err := Attribute(in.TotalKwh, company, dept)
	if err != nil {
		return EnergyRecord{}, err
	}

	region := in.Region
	if strings.TrimSpace(region) == "" {
		region = company.Region
	}
	total, err := l.calc.Footprint(ctx, company.ID, region, in.TotalKwh, company.ElectricityCostPerKwh)
	if err != nil {
		return EnergyRecord{}, err
	}

	rec := EnergyRecord{
		ID:         uuid.NewString(),
		CompanyID:  company.ID,
		UsageDate:  in.UsageDate,
		TotalKwh:   in.TotalKwh,
		Region:     total.Intensity.Region,
		PeriodType: periodType,
		DataSource: in.DataSource,
		Currency:   company.Currency,
		Derived: Derived{
			AIAttributedKwh:   attr.AIKwh,
			AttributionWeight: attr.Weight,
			AttributionSource: attr.Source,
			CarbonIntensity:   total.Intensity.Value,
			IntensitySource:   string(total.Intensity.Source),
			Co2eKg:            total.Co2eKg,
			AICo2eKg:          carbon.Emissions(attr.AIKwh, total.Intensity.Value),
			Cost:              total.Cost,
			AICost:            carbon.Cost(attr.AIKwh, company.ElectricityCostPerKwh),
		},
		CreatedAt: l.now().UTC(),
	}
	if dept != nil {
		rec.DepartmentID = dept.ID
		rec.DepartmentName = dept.Name
	}
	return rec, nil
}

func (l *Ledger) publish(ctx context.Context, records []EnergyRecord) {
	if l.publisher == nil || len(records) == 0 {
		return
	}
	if err := l.publisher.PublishRecords(ctx, records); err != nil {
		l.logger.Warn("failed to publish energy records",
			zap.String("company_id", records[0].CompanyID),
			zap.Int("count", len(records)),
			zap.Error(err),
		)
	}
}
