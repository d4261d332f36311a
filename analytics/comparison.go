package analytics

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/carbon-engine/energy"
	"github.com/warp/carbon-engine/generic"
)

// =============================================================================
// DEPARTMENT COMPARISON
// =============================================================================

// DepartmentUsage is one row of the department breakdown.
type DepartmentUsage struct {
	DepartmentID  string
	Name          string
	Team          string
	AIUsageWeight decimal.Decimal
	Deleted       bool // department no longer exists; name from record snapshot
	Totals
	Percentage decimal.Decimal // share of AI kWh across departments
}

// CompareDepartments breaks AI usage in period down by department, largest
// first. Every current department is listed even without usage. Records of
// deleted departments are grouped under their snapshotted name. Records
// with no department are left out of the breakdown and its denominator.
func CompareDepartments(records []energy.EnergyRecord, departments []energy.Department, period generic.Period) []DepartmentUsage {
	rows := make(map[string]*DepartmentUsage, len(departments))
	order := make([]string, 0, len(departments))
	for _, d := range departments {
		rows[d.ID] = &DepartmentUsage{
			DepartmentID:  d.ID,
			Name:          d.Name,
			Team:          d.Team,
			AIUsageWeight: d.AIUsageWeight,
		}
		order = append(order, d.ID)
	}

	total := decimal.Zero
	for _, r := range records {
		if r.DepartmentID == "" || (!period.IsZero() && !period.Contains(r.UsageDate)) {
			continue
		}
		row, ok := rows[r.DepartmentID]
		if !ok {
			row = &DepartmentUsage{
				DepartmentID:  r.DepartmentID,
				Name:          r.DepartmentName,
				AIUsageWeight: r.Derived.AttributionWeight,
				Deleted:       true,
			}
			rows[r.DepartmentID] = row
			order = append(order, r.DepartmentID)
		}
		row.Add(r)
		total = total.Add(r.Derived.AIAttributedKwh)
	}

	out := make([]DepartmentUsage, 0, len(order))
	for _, id := range order {
		row := rows[id]
		row.Percentage = generic.Percent(row.AIKwh, total)
		out = append(out, *row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].AIKwh.Equal(out[j].AIKwh) {
			return out[i].AIKwh.GreaterThan(out[j].AIKwh)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// =============================================================================
// YEAR OVER YEAR
// =============================================================================

type YearOverYear struct {
	Label                 string // "2025 vs 2024"
	ThisYear              generic.Period
	LastYear              generic.Period
	ThisYearAIKwh         decimal.Decimal
	LastYearAIKwh         decimal.Decimal
	AIKwhChangePercent    decimal.Decimal
	ThisYearTotalKwh      decimal.Decimal
	LastYearTotalKwh      decimal.Decimal
	TotalKwhChangePercent decimal.Decimal
}

// CompareYearOverYear compares Jan 1..asOf with the same window one year
// earlier. A change against an empty previous year is reported as zero.
func CompareYearOverYear(records []energy.EnergyRecord, asOf generic.TimePoint) YearOverYear {
	this := generic.YearToDate(asOf)
	last := this.YearEarlier()

	cur := Sum(records, this)
	prev := Sum(records, last)

	return YearOverYear{
		Label:                 fmt.Sprintf("%d vs %d", this.Start.Year(), last.Start.Year()),
		ThisYear:              this,
		LastYear:              last,
		ThisYearAIKwh:         cur.AIKwh,
		LastYearAIKwh:         prev.AIKwh,
		AIKwhChangePercent:    generic.ChangePercent(prev.AIKwh, cur.AIKwh),
		ThisYearTotalKwh:      cur.TotalKwh,
		LastYearTotalKwh:      prev.TotalKwh,
		TotalKwhChangePercent: generic.ChangePercent(prev.TotalKwh, cur.TotalKwh),
	}
}
