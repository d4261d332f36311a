/*
Package analytics turns ledger records into reports.

PURPOSE:
  Read-only aggregation over energy records: monthly trend buckets,
  forecasts extrapolated from them, department and year-over-year
  comparisons, and the 30-day dashboard summary. Every function here is
  pure over the records it is given; Service only loads them.

AGGREGATION RULE:
  Aggregates sum the Derived snapshot stored on each record. Nothing is
  re-attributed or re-priced at read time, so a report computed today and
  the same report computed next year agree.

SEE ALSO:
  - forecast.go: Linear extrapolation with a ±15% band
  - comparison.go: Department breakdown, year over year
  - summary.go: Dashboard KPIs, region breakdown
*/
package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/warp/carbon-engine/energy"
	"github.com/warp/carbon-engine/generic"
)

// Totals is a sum over a set of records.
type Totals struct {
	TotalKwh    decimal.Decimal
	AIKwh       decimal.Decimal
	Co2eKg      decimal.Decimal
	AICo2eKg    decimal.Decimal
	Cost        decimal.Decimal
	AICost      decimal.Decimal
	RecordCount int
}

// Add folds one record into the totals.
func (t *Totals) Add(r energy.EnergyRecord) {
	t.TotalKwh = t.TotalKwh.Add(r.TotalKwh)
	t.AIKwh = t.AIKwh.Add(r.Derived.AIAttributedKwh)
	t.Co2eKg = t.Co2eKg.Add(r.Derived.Co2eKg)
	t.AICo2eKg = t.AICo2eKg.Add(r.Derived.AICo2eKg)
	t.Cost = t.Cost.Add(r.Derived.Cost)
	t.AICost = t.AICost.Add(r.Derived.AICost)
	t.RecordCount++
}

// Sum totals the records that fall within period. A zero period sums all.
func Sum(records []energy.EnergyRecord, period generic.Period) Totals {
	var t Totals
	for _, r := range records {
		if period.IsZero() || period.Contains(r.UsageDate) {
			t.Add(r)
		}
	}
	return t
}

// MonthlyBucket is one calendar month of a trend series.
type MonthlyBucket struct {
	Key    string // "2025-03"
	Label  string // "Mar 2025"
	Period generic.Period
	Totals
}

// MonthlyBuckets returns n trailing calendar months ending with the month
// containing asOf, oldest first. Months without records are present with
// zero totals.
func MonthlyBuckets(records []energy.EnergyRecord, asOf generic.TimePoint, n int) []MonthlyBucket {
	months := generic.TrailingMonths(asOf, n)
	if len(months) == 0 {
		return nil
	}

	buckets := make([]MonthlyBucket, len(months))
	index := make(map[string]int, len(months))
	for i, m := range months {
		buckets[i] = MonthlyBucket{Key: m.Start.MonthKey(), Label: m.Start.MonthLabel(), Period: m}
		index[buckets[i].Key] = i
	}

	for _, r := range records {
		if i, ok := index[r.UsageDate.MonthKey()]; ok {
			buckets[i].Add(r)
		}
	}
	return buckets
}
