package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/carbon-engine/carbon"
	"github.com/warp/carbon-engine/energy"
	"github.com/warp/carbon-engine/generic"
)

// =============================================================================
// DASHBOARD SUMMARY - Trailing 30 days vs the 30 days before
// =============================================================================

// SummaryDays is the KPI window.
const SummaryDays = 30

type Summary struct {
	Period          generic.Period
	PreviousPeriod  generic.Period
	Current         Totals
	Previous        Totals
	AIPercentage    decimal.Decimal // AI share of total kWh, 0..100
	EnergyChange    decimal.Decimal // % change of total kWh
	AIEnergyChange  decimal.Decimal
	CarbonChange    decimal.Decimal
	CostChange      decimal.Decimal
	Currency        string
	DepartmentCount int
}

// Summarize computes KPIs for the 30 days ending asOf against the 30 days
// before that.
func Summarize(records []energy.EnergyRecord, asOf generic.TimePoint, currency string, departmentCount int) Summary {
	period := generic.TrailingDays(asOf, SummaryDays)
	prevPeriod := period.PreviousPeriod()

	cur := Sum(records, period)
	prev := Sum(records, prevPeriod)

	return Summary{
		Period:          period,
		PreviousPeriod:  prevPeriod,
		Current:         cur,
		Previous:        prev,
		AIPercentage:    generic.Percent(cur.AIKwh, cur.TotalKwh),
		EnergyChange:    generic.ChangePercent(prev.TotalKwh, cur.TotalKwh),
		AIEnergyChange:  generic.ChangePercent(prev.AIKwh, cur.AIKwh),
		CarbonChange:    generic.ChangePercent(prev.Co2eKg, cur.Co2eKg),
		CostChange:      generic.ChangePercent(prev.Cost, cur.Cost),
		Currency:        currency,
		DepartmentCount: departmentCount,
	}
}

// RegionUsage is one row of the region breakdown.
type RegionUsage struct {
	Region    string
	Name      string
	Intensity decimal.Decimal // registry default; zero for override-only regions
	Totals
	Percentage decimal.Decimal // share of total kWh
}

// RegionBreakdown groups records by region, largest total first.
func RegionBreakdown(records []energy.EnergyRecord, registry *carbon.Registry) []RegionUsage {
	rows := make(map[string]*RegionUsage)
	var order []string
	total := decimal.Zero
	for _, r := range records {
		row, ok := rows[r.Region]
		if !ok {
			row = &RegionUsage{Region: r.Region, Name: r.Region}
			if reg, found := registry.Lookup(r.Region); found {
				row.Name = reg.Name
				row.Intensity = reg.Intensity
			}
			rows[r.Region] = row
			order = append(order, r.Region)
		}
		row.Add(r)
		total = total.Add(r.TotalKwh)
	}

	out := make([]RegionUsage, 0, len(order))
	for _, code := range order {
		row := rows[code]
		row.Percentage = generic.Percent(row.TotalKwh, total)
		out = append(out, *row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].TotalKwh.Equal(out[j].TotalKwh) {
			return out[i].TotalKwh.GreaterThan(out[j].TotalKwh)
		}
		return out[i].Region < out[j].Region
	})
	return out
}
