/*
Package simulation answers "what if" questions about AI energy use.

PURPOSE:
  Projects the most recent 30-day AI footprint under a hypothetical change
  (workload growth, a move to another grid region, an efficiency gain) and
  reports baseline, projection and deltas. Simulations never write records.

SCENARIOS:
  Growth:        projected = baseline × (1 + g/100)
  Region change: same kWh, CO2e at the target intensity; cost unchanged
                 unless a target price per kWh is given
  Efficiency:    projected = baseline × (1 − e/100), CO2e and cost scale
                 with energy

  PercentChange is taken on energy for growth and efficiency and on carbon
  for a region change, the metric the scenario actually moves.

SEE ALSO:
  - service.go: Baseline from the ledger, saved scenarios
  - carbon/calculator.go: Intensity resolution for region changes
*/
package simulation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/carbon-engine/carbon"
	"github.com/warp/carbon-engine/energy"
	"github.com/warp/carbon-engine/generic"
)

type Kind string

const (
	KindGrowth       Kind = "GROWTH"
	KindRegionChange Kind = "REGION_CHANGE"
	KindEfficiency   Kind = "EFFICIENCY"
)

// DefaultMonthsAhead is the horizon recorded for growth scenarios.
const DefaultMonthsAhead = 12

// Footprint is an AI energy, carbon and cost triple.
type Footprint struct {
	Kwh    decimal.Decimal `json:"kwh"`
	Co2eKg decimal.Decimal `json:"co2eKg"`
	Cost   decimal.Decimal `json:"cost"`
}

// Baseline is the AI footprint a scenario starts from.
type Baseline struct {
	Footprint
	Period      generic.Period
	RecordCount int
}

// Parameters echoes the scenario inputs.
type Parameters struct {
	GrowthPercent     *decimal.Decimal `json:"growthPercent,omitempty"`
	EfficiencyPercent *decimal.Decimal `json:"efficiencyPercent,omitempty"`
	MonthsAhead       int              `json:"monthsAhead,omitempty"`
	FromRegion        string           `json:"fromRegion,omitempty"`
	ToRegion          string           `json:"toRegion,omitempty"`
	FromIntensity     *decimal.Decimal `json:"fromIntensity,omitempty"`
	ToIntensity       *decimal.Decimal `json:"toIntensity,omitempty"`
	TargetPricePerKwh *decimal.Decimal `json:"targetPricePerKwh,omitempty"`
}

// Result is the outcome of one simulation.
type Result struct {
	Kind          Kind            `json:"kind"`
	Parameters    Parameters      `json:"parameters"`
	Baseline      Footprint       `json:"baseline"`
	Projected     Footprint       `json:"projected"`
	EnergyDelta   decimal.Decimal `json:"energyDelta"`
	CarbonDelta   decimal.Decimal `json:"carbonDelta"`
	CostDelta     decimal.Decimal `json:"costDelta"`
	PercentChange decimal.Decimal `json:"percentChange"`
	Description   string          `json:"description"`
}

// BaselineOf sums the AI share of the given records.
func BaselineOf(records []energy.EnergyRecord, period generic.Period) Baseline {
	b := Baseline{Period: period}
	for _, r := range records {
		if !period.IsZero() && !period.Contains(r.UsageDate) {
			continue
		}
		b.Kwh = b.Kwh.Add(r.Derived.AIAttributedKwh)
		b.Co2eKg = b.Co2eKg.Add(r.Derived.AICo2eKg)
		b.Cost = b.Cost.Add(r.Derived.AICost)
		b.RecordCount++
	}
	return b
}

// =============================================================================
// SCENARIOS
// =============================================================================

// Growth projects AI usage growing by growthPercent. monthsAhead is recorded
// only; the projection is a single end state.
func Growth(base Footprint, growthPercent decimal.Decimal, monthsAhead int) (Result, error) {
	if growthPercent.IsNegative() {
		return Result{}, generic.Invalid("growthPercent", growthPercent, "must be >= 0")
	}
	if monthsAhead < 0 {
		return Result{}, generic.Invalid("monthsAhead", monthsAhead, "must be >= 0")
	}
	if monthsAhead == 0 {
		monthsAhead = DefaultMonthsAhead
	}

	factor := decimal.NewFromInt(1).Add(growthPercent.Div(generic.Hundred))
	r := newResult(KindGrowth, base, scale(base, factor))
	r.Parameters = Parameters{GrowthPercent: &growthPercent, MonthsAhead: monthsAhead}
	r.PercentChange = generic.ChangePercent(base.Kwh, r.Projected.Kwh)
	r.Description = fmt.Sprintf("AI usage grows %s%% over %d months: %s kWh -> %s kWh",
		growthPercent.String(), monthsAhead, base.Kwh.Round(2).String(), r.Projected.Kwh.Round(2).String())
	return r, nil
}

// Efficiency projects an efficiency gain of efficiencyPercent.
func Efficiency(base Footprint, efficiencyPercent decimal.Decimal) (Result, error) {
	if efficiencyPercent.IsNegative() || efficiencyPercent.GreaterThan(generic.Hundred) {
		return Result{}, generic.Invalid("efficiencyPercent", efficiencyPercent, "must be within [0, 100]")
	}

	factor := decimal.NewFromInt(1).Sub(efficiencyPercent.Div(generic.Hundred))
	r := newResult(KindEfficiency, base, scale(base, factor))
	r.Parameters = Parameters{EfficiencyPercent: &efficiencyPercent}
	r.PercentChange = generic.ChangePercent(base.Kwh, r.Projected.Kwh)
	r.Description = fmt.Sprintf("%s%% efficiency gain saves %s kWh and %s kg CO2e",
		efficiencyPercent.String(), r.EnergyDelta.Neg().Round(2).String(), r.CarbonDelta.Neg().Round(2).String())
	return r, nil
}

// RegionChange moves the baseline kWh from one region to another. When from
// is nil the baseline CO2e is kept as recorded; otherwise it is recomputed
// at from's intensity. targetPrice, when given, reprices the energy.
func RegionChange(base Footprint, from *carbon.Intensity, to carbon.Intensity, targetPrice *decimal.Decimal) (Result, error) {
	if targetPrice != nil && targetPrice.IsNegative() {
		return Result{}, generic.Invalid("targetPricePerKwh", *targetPrice, "must be >= 0")
	}

	params := Parameters{ToRegion: to.Region, ToIntensity: &to.Value, TargetPricePerKwh: targetPrice}
	if from != nil {
		base.Co2eKg = carbon.Emissions(base.Kwh, from.Value)
		params.FromRegion = from.Region
		params.FromIntensity = &from.Value
	}

	projected := Footprint{
		Kwh:    base.Kwh,
		Co2eKg: carbon.Emissions(base.Kwh, to.Value),
		Cost:   base.Cost,
	}
	if targetPrice != nil {
		projected.Cost = carbon.Cost(base.Kwh, *targetPrice)
	}

	r := newResult(KindRegionChange, base, projected)
	r.Parameters = params
	r.PercentChange = generic.ChangePercent(base.Co2eKg, projected.Co2eKg)

	fromLabel := "current regions"
	if from != nil {
		fromLabel = from.Region
	}
	r.Description = fmt.Sprintf("Moving AI workloads from %s to %s changes emissions by %s kg CO2e",
		fromLabel, to.Region, r.CarbonDelta.Round(2).String())
	return r, nil
}

func newResult(kind Kind, base, projected Footprint) Result {
	return Result{
		Kind:        kind,
		Baseline:    base,
		Projected:   projected,
		EnergyDelta: projected.Kwh.Sub(base.Kwh),
		CarbonDelta: projected.Co2eKg.Sub(base.Co2eKg),
		CostDelta:   projected.Cost.Sub(base.Cost),
	}
}

func scale(f Footprint, factor decimal.Decimal) Footprint {
	return Footprint{
		Kwh:    f.Kwh.Mul(factor),
		Co2eKg: f.Co2eKg.Mul(factor),
		Cost:   f.Cost.Mul(factor),
	}
}
