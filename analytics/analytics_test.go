package analytics_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/carbon-engine/analytics"
	"github.com/warp/carbon-engine/carbon"
	"github.com/warp/carbon-engine/energy"
	"github.com/warp/carbon-engine/generic"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

// rec builds a record whose AI share is weight × kwh, priced at 0.10 in US.
func rec(date generic.TimePoint, deptID, deptName string, kwh, weight string) energy.EnergyRecord {
	total := dec(kwh)
	ai := total.Mul(dec(weight))
	intensity := dec("386")
	return energy.EnergyRecord{
		ID:             date.String() + deptID + kwh,
		CompanyID:      "acme",
		DepartmentID:   deptID,
		DepartmentName: deptName,
		UsageDate:      date,
		TotalKwh:       total,
		Region:         "US",
		Derived: energy.Derived{
			AIAttributedKwh:   ai,
			AttributionWeight: dec(weight),
			CarbonIntensity:   intensity,
			Co2eKg:            carbon.Emissions(total, intensity),
			AICo2eKg:          carbon.Emissions(ai, intensity),
			Cost:              total.Mul(dec("0.10")),
			AICost:            ai.Mul(dec("0.10")),
		},
	}
}

func date(y int, m time.Month, d int) generic.TimePoint { return generic.NewTimePoint(y, m, d) }

// =============================================================================
// MONTHLY BUCKETS
// =============================================================================

func TestMonthlyBuckets_IncludesEmptyMonths(t *testing.T) {
	// GIVEN: records in January and March only
	records := []energy.EnergyRecord{
		rec(date(2025, time.January, 3), "", "", "100", "0.5"),
		rec(date(2025, time.January, 20), "", "", "50", "0.5"),
		rec(date(2025, time.March, 1), "", "", "10", "0.5"),
		rec(date(2024, time.October, 1), "", "", "999", "0.5"), // outside window
	}

	// WHEN: bucketing 3 months ending mid-March
	buckets := analytics.MonthlyBuckets(records, date(2025, time.March, 14), 3)

	// THEN: January, an empty February, March
	require.Len(t, buckets, 3)
	assert.Equal(t, "2025-01", buckets[0].Key)
	assert.Equal(t, "Jan 2025", buckets[0].Label)
	assertDecimal(t, "150", buckets[0].TotalKwh)
	assertDecimal(t, "75", buckets[0].AIKwh)
	assert.Equal(t, 2, buckets[0].RecordCount)

	assert.Equal(t, "2025-02", buckets[1].Key)
	assert.True(t, buckets[1].TotalKwh.IsZero())
	assert.Zero(t, buckets[1].RecordCount)

	assertDecimal(t, "10", buckets[2].TotalKwh)
}

func TestSum_ZeroPeriodSumsAll(t *testing.T) {
	records := []energy.EnergyRecord{
		rec(date(2025, time.January, 1), "", "", "100", "0.3"),
		rec(date(2025, time.June, 1), "", "", "100", "0.3"),
	}

	all := analytics.Sum(records, generic.Period{})
	jan := analytics.Sum(records, generic.MonthOf(date(2025, time.January, 15)))

	assertDecimal(t, "200", all.TotalKwh)
	assertDecimal(t, "60", all.AIKwh)
	assertDecimal(t, "100", jan.TotalKwh)
}

// =============================================================================
// FORECAST
// =============================================================================

func buckets(aiKwh ...string) []analytics.MonthlyBucket {
	out := make([]analytics.MonthlyBucket, len(aiKwh))
	start := date(2025, time.January, 1)
	for i, v := range aiKwh {
		m := start.AddMonths(i)
		out[i] = analytics.MonthlyBucket{
			Key:    m.MonthKey(),
			Label:  m.MonthLabel(),
			Period: generic.MonthOf(m),
			Totals: analytics.Totals{
				AIKwh:    dec(v),
				AICo2eKg: dec(v).Div(dec("2")),
				AICost:   dec(v).Div(dec("10")),
			},
		}
	}
	return out
}

func TestForecast_LinearTrend(t *testing.T) {
	// GIVEN: AI usage growing 100 kWh per month
	history := buckets("100", "200", "300")

	// WHEN: forecasting two months
	points := analytics.Forecast(history, 2)

	// THEN: the line continues past March
	require.Len(t, points, 2)
	assert.Equal(t, "2025-04", points[0].Key)
	assert.Equal(t, "Apr 2025", points[0].Label)
	assert.Equal(t, date(2025, time.April, 1), points[0].Date)
	assertDecimal(t, "400", points[0].PredictedAIKwh)
	assertDecimal(t, "200", points[0].PredictedAICo2eKg)
	assertDecimal(t, "40", points[0].PredictedAICost)
	assertDecimal(t, "340", points[0].ConfidenceLow)
	assertDecimal(t, "460", points[0].ConfidenceHigh)

	assertDecimal(t, "500", points[1].PredictedAIKwh)
}

func TestForecast_NeverNegative(t *testing.T) {
	points := analytics.Forecast(buckets("300", "200", "100"), 3)

	require.Len(t, points, 3)
	assert.True(t, points[0].PredictedAIKwh.IsZero())
	assert.True(t, points[1].PredictedAIKwh.IsZero())
	assert.True(t, points[2].ConfidenceHigh.IsZero())
}

func TestForecast_FlatHistory(t *testing.T) {
	points := analytics.Forecast(buckets("250", "250", "250", "250"), 1)

	require.Len(t, points, 1)
	assertDecimal(t, "250", points[0].PredictedAIKwh)
}

func TestForecast_NeedsTwoMonths(t *testing.T) {
	assert.Nil(t, analytics.Forecast(buckets("100"), 3))
	assert.Nil(t, analytics.Forecast(buckets("100", "200"), 0))
}

// =============================================================================
// DEPARTMENT COMPARISON
// =============================================================================

func TestCompareDepartments(t *testing.T) {
	departments := []energy.Department{
		{ID: "ml", Name: "ML", AIUsageWeight: dec("0.8")},
		{ID: "ops", Name: "Ops", AIUsageWeight: dec("0.2")},
		{ID: "hr", Name: "HR", AIUsageWeight: dec("0.1")},
	}
	d := date(2025, time.March, 1)
	records := []energy.EnergyRecord{
		rec(d, "ml", "ML", "1000", "0.8"),      // 800
		rec(d, "ops", "Ops", "500", "0.2"),     // 100
		rec(d, "gone", "Legacy", "250", "0.4"), // 100, department deleted
		rec(d, "", "", "10000", "0.3"),         // no department
	}

	rows := analytics.CompareDepartments(records, departments, generic.Period{})

	require.Len(t, rows, 4)
	assert.Equal(t, "ML", rows[0].Name)
	assertDecimal(t, "800", rows[0].AIKwh)
	assertDecimal(t, "80", rows[0].Percentage)

	// Ties on AI kWh sort by name
	assert.Equal(t, "Legacy", rows[1].Name)
	assert.True(t, rows[1].Deleted)
	assertDecimal(t, "0.4", rows[1].AIUsageWeight)
	assertDecimal(t, "10", rows[1].Percentage)
	assert.Equal(t, "Ops", rows[2].Name)

	// Listed even without usage
	assert.Equal(t, "HR", rows[3].Name)
	assert.True(t, rows[3].Percentage.IsZero())
	assert.Zero(t, rows[3].RecordCount)
}

func TestCompareDepartments_Period(t *testing.T) {
	departments := []energy.Department{{ID: "ml", Name: "ML"}}
	records := []energy.EnergyRecord{
		rec(date(2025, time.January, 5), "ml", "ML", "100", "1"),
		rec(date(2025, time.February, 5), "ml", "ML", "40", "1"),
	}

	rows := analytics.CompareDepartments(records, departments, generic.MonthOf(date(2025, time.February, 1)))

	require.Len(t, rows, 1)
	assertDecimal(t, "40", rows[0].AIKwh)
	assertDecimal(t, "100", rows[0].Percentage)
}

// =============================================================================
// YEAR OVER YEAR
// =============================================================================

func TestCompareYearOverYear(t *testing.T) {
	asOf := date(2025, time.April, 30)
	records := []energy.EnergyRecord{
		rec(date(2024, time.February, 1), "", "", "200", "0.5"),
		rec(date(2024, time.June, 1), "", "", "999", "0.5"), // after the same-date cutoff
		rec(date(2025, time.March, 1), "", "", "300", "0.5"),
	}

	yoy := analytics.CompareYearOverYear(records, asOf)

	assert.Equal(t, "2025 vs 2024", yoy.Label)
	assert.Equal(t, "[2024-01-01, 2024-04-30]", yoy.LastYear.String())
	assertDecimal(t, "150", yoy.ThisYearAIKwh)
	assertDecimal(t, "100", yoy.LastYearAIKwh)
	assertDecimal(t, "50", yoy.AIKwhChangePercent)
	assertDecimal(t, "50", yoy.TotalKwhChangePercent)
}

func TestCompareYearOverYear_LeapDayClampsToFebruary(t *testing.T) {
	// GIVEN: today is Feb 29 and last year has usage on Mar 1
	asOf := date(2028, time.February, 29)
	records := []energy.EnergyRecord{
		rec(date(2027, time.February, 28), "", "", "400", "0.5"),
		rec(date(2027, time.March, 1), "", "", "1000", "0.5"),
		rec(date(2028, time.February, 1), "", "", "600", "0.5"),
	}

	// WHEN: comparing years
	yoy := analytics.CompareYearOverYear(records, asOf)

	// THEN: last year's window ends on Feb 28, so Mar 1 is not counted
	assert.Equal(t, "[2027-01-01, 2027-02-28]", yoy.LastYear.String())
	assertDecimal(t, "400", yoy.LastYearTotalKwh)
	assertDecimal(t, "600", yoy.ThisYearTotalKwh)
	assertDecimal(t, "50", yoy.TotalKwhChangePercent)
}

func TestCompareYearOverYear_NoHistory(t *testing.T) {
	yoy := analytics.CompareYearOverYear([]energy.EnergyRecord{
		rec(date(2025, time.March, 1), "", "", "300", "0.5"),
	}, date(2025, time.April, 30))

	assert.True(t, yoy.AIKwhChangePercent.IsZero())
}

// =============================================================================
// SUMMARY
// =============================================================================

func TestSummarize_ComparesTrailingWindows(t *testing.T) {
	// GIVEN: 30 days ending March 30 against the 30 days before
	asOf := date(2025, time.March, 30)
	records := []energy.EnergyRecord{
		rec(date(2025, time.February, 10), "", "", "1000", "0.25"), // previous
		rec(date(2025, time.March, 1), "", "", "1000", "0.5"),      // current
		rec(date(2025, time.March, 30), "", "", "500", "0.5"),      // current
		rec(date(2025, time.January, 29), "", "", "7777", "0.5"),   // before both
	}

	s := analytics.Summarize(records, asOf, "EUR", 4)

	assert.Equal(t, "[2025-03-01, 2025-03-30]", s.Period.String())
	assert.Equal(t, "[2025-01-30, 2025-02-28]", s.PreviousPeriod.String())
	assertDecimal(t, "1500", s.Current.TotalKwh)
	assertDecimal(t, "750", s.Current.AIKwh)
	assertDecimal(t, "50", s.AIPercentage)
	assertDecimal(t, "50", s.EnergyChange)
	assertDecimal(t, "200", s.AIEnergyChange)
	assertDecimal(t, "50", s.CarbonChange)
	assertDecimal(t, "50", s.CostChange)
	assert.Equal(t, 2, s.Current.RecordCount)
	assert.Equal(t, "EUR", s.Currency)
	assert.Equal(t, 4, s.DepartmentCount)
}

func TestSummarize_Empty(t *testing.T) {
	s := analytics.Summarize(nil, date(2025, time.March, 30), "USD", 0)

	assert.True(t, s.AIPercentage.IsZero())
	assert.True(t, s.EnergyChange.IsZero())
}

// =============================================================================
// REGIONS
// =============================================================================

func TestRegionBreakdown(t *testing.T) {
	d := date(2025, time.March, 1)
	us := rec(d, "", "", "300", "0.5")
	se := rec(d, "", "", "100", "0.5")
	se.Region = "SE"
	onPrem := rec(d, "", "", "100", "0.5")
	onPrem.Region = "ON-PREM"

	rows := analytics.RegionBreakdown([]energy.EnergyRecord{se, us, onPrem}, carbon.DefaultRegistry())

	require.Len(t, rows, 3)
	assert.Equal(t, "US", rows[0].Region)
	assert.Equal(t, "United States", rows[0].Name)
	assertDecimal(t, "60", rows[0].Percentage)
	assertDecimal(t, "386", rows[0].Intensity)

	assert.Equal(t, "ON-PREM", rows[1].Region)
	assert.Equal(t, "ON-PREM", rows[1].Name)
	assert.True(t, rows[1].Intensity.IsZero())
	assert.Equal(t, "SE", rows[2].Region)
}
