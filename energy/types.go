/*
Package energy is the ledger side of the engine.

PURPOSE:
  Defines companies, departments and energy records, the attribution rule
  that assigns a share of metered electricity to AI workloads, and the
  append-only Ledger that derives and snapshots per-record metrics.

KEY CONCEPTS IN THIS FILE (types.go):
  - Company:      Aggregate root. Owns everything else.
  - Department:   AI usage weight overriding the company baseline.
  - EnergyRecord: Immutable reading plus its write-time Derived snapshot.
  - CarbonConfig: Company-specific intensity override for one region.
  - Threshold:    Alert threshold on one metric.

SNAPSHOT RULE:
  Derived values (AI kWh, CO2e, cost) are computed once when the record is
  appended and never recomputed. Changing a department weight or a carbon
  override later affects new records only, so historical reports stay
  reproducible. A correction is a new record, not an edit.

SEE ALSO:
  - attribution.go: Attribution rule
  - ledger.go: Append / import / query
  - store.go: Persistence interfaces
*/
package energy

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/carbon-engine/generic"
)

// =============================================================================
// DEFAULTS
// =============================================================================

var (
	DefaultBaseAIPercentage      = generic.MustParseDecimal("0.30")
	DefaultElectricityCostPerKwh = generic.MustParseDecimal("0.12")
	DefaultDepartmentWeight      = generic.MustParseDecimal("0.50")
)

const DefaultCurrency = "USD"

// =============================================================================
// COMPANY
// =============================================================================

type Company struct {
	ID                    string
	Name                  string
	Industry              string
	Country               string
	Region                string          // primary region code
	BaseAIPercentage      decimal.Decimal // 0..1, used when no department weight applies
	ElectricityCostPerKwh decimal.Decimal
	Currency              string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Validate checks the company invariants.
func (c Company) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return generic.Invalid("name", nil, "must not be empty")
	}
	if !generic.InUnitInterval(c.BaseAIPercentage) {
		return generic.Invalid("baseAiPercentage", c.BaseAIPercentage, "must be within [0, 1]")
	}
	if c.ElectricityCostPerKwh.IsNegative() {
		return generic.Invalid("electricityCostPerKwh", c.ElectricityCostPerKwh, "must be >= 0")
	}
	if strings.TrimSpace(c.Region) == "" {
		return generic.Invalid("region", nil, "must not be empty")
	}
	return nil
}

// =============================================================================
// DEPARTMENT
// =============================================================================

type Department struct {
	ID            string
	CompanyID     string
	Name          string
	Team          string
	Product       string
	Description   string
	AIUsageWeight decimal.Decimal // 0..1
	EmployeeCount int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks the department invariants.
func (d Department) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return generic.Invalid("name", nil, "must not be empty")
	}
	if !generic.InUnitInterval(d.AIUsageWeight) {
		return generic.Invalid("aiUsageWeight", d.AIUsageWeight, "must be within [0, 1]")
	}
	if d.EmployeeCount < 0 {
		return generic.Invalid("employeeCount", d.EmployeeCount, "must be >= 0")
	}
	return nil
}

// =============================================================================
// ENERGY RECORD
// =============================================================================

type PeriodType string

const (
	PeriodDaily   PeriodType = "DAILY"
	PeriodWeekly  PeriodType = "WEEKLY"
	PeriodMonthly PeriodType = "MONTHLY"
)

// ParsePeriodType accepts any case; empty means DAILY.
func ParsePeriodType(s string) (PeriodType, error) {
	switch PeriodType(strings.ToUpper(strings.TrimSpace(s))) {
	case "", PeriodDaily:
		return PeriodDaily, nil
	case PeriodWeekly:
		return PeriodWeekly, nil
	case PeriodMonthly:
		return PeriodMonthly, nil
	}
	return "", generic.Invalid("periodType", s, "must be DAILY, WEEKLY or MONTHLY")
}

type DataSource string

const (
	SourceManual     DataSource = "MANUAL"
	SourceCSVImport  DataSource = "CSV_IMPORT"
	SourceSampleData DataSource = "SAMPLE_DATA"
)

// AttributionSource tells which weight produced the AI share.
type AttributionSource string

const (
	AttributedByDepartment AttributionSource = "department"
	AttributedByCompany    AttributionSource = "company"
)

// Derived is the immutable write-time snapshot attached to a record.
// Co2eKg and Cost cover the whole reading; the AI* fields cover the
// attributed share only.
type Derived struct {
	AIAttributedKwh   decimal.Decimal
	AttributionWeight decimal.Decimal
	AttributionSource AttributionSource
	CarbonIntensity   decimal.Decimal // gCO2/kWh used
	IntensitySource   string          // "override" or "default"
	Co2eKg            decimal.Decimal
	AICo2eKg          decimal.Decimal
	Cost              decimal.Decimal
	AICost            decimal.Decimal
}

// EnergyRecord is one metered reading. Append-only.
type EnergyRecord struct {
	ID             string
	CompanyID      string
	DepartmentID   string // weak reference, may point to a deleted department
	DepartmentName string // name at write time
	UsageDate      generic.TimePoint
	TotalKwh       decimal.Decimal
	Region         string
	PeriodType     PeriodType
	DataSource     DataSource
	Currency       string
	Derived        Derived
	CreatedAt      time.Time
}

// =============================================================================
// CARBON CONFIG
// =============================================================================

// CarbonConfig overrides the registry default for one company and region.
type CarbonConfig struct {
	CompanyID string
	Region    string
	Intensity decimal.Decimal // gCO2/kWh
	Unit      string
	ValidYear int
	UpdatedAt time.Time
}

func (c CarbonConfig) Validate() error {
	if strings.TrimSpace(c.Region) == "" {
		return generic.Invalid("region", nil, "must not be empty")
	}
	if c.Intensity.IsNegative() {
		return generic.Invalid("carbonIntensity", c.Intensity, "must be >= 0")
	}
	return nil
}

// =============================================================================
// THRESHOLD
// =============================================================================

type MetricType string

const (
	MetricAIUsageKwh       MetricType = "AI_USAGE_KWH"
	MetricTotalEnergyKwh   MetricType = "TOTAL_ENERGY_KWH"
	MetricCarbonEmissionKg MetricType = "CARBON_EMISSION_KG"
	MetricMonthlyCost      MetricType = "MONTHLY_COST"
)

// ParseMetricType validates a metric type name.
func ParseMetricType(s string) (MetricType, error) {
	switch m := MetricType(strings.ToUpper(strings.TrimSpace(s))); m {
	case MetricAIUsageKwh, MetricTotalEnergyKwh, MetricCarbonEmissionKg, MetricMonthlyCost:
		return m, nil
	}
	return "", generic.Invalid("metricType", s,
		"must be one of AI_USAGE_KWH, TOTAL_ENERGY_KWH, CARBON_EMISSION_KG, MONTHLY_COST")
}

type Threshold struct {
	ID         string
	CompanyID  string
	MetricType MetricType
	Value      decimal.Decimal
	Message    string
	Active     bool
	CreatedAt  time.Time
}

func (t Threshold) Validate() error {
	if _, err := ParseMetricType(string(t.MetricType)); err != nil {
		return err
	}
	if !t.Value.IsPositive() {
		return generic.Invalid("thresholdValue", t.Value, "must be > 0")
	}
	return nil
}
