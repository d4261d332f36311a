/*
Package alerts evaluates thresholds and derives optimization insights.

PURPOSE:
  Alerts and insights are computed on read from the ledger. Nothing here is
  persisted or cached: the same records always produce the same alerts.

SEVERITY:
  percent = current / threshold × 100

    percent ≥ 100  CRITICAL  (threshold met or exceeded)
    percent ≥ 80   WARNING   (approaching)
    percent < 80   no alert

ACTIVE PERIOD:
  Thresholds are monthly budgets. The current value is the month-to-date
  aggregate as of today.

SEE ALSO:
  - insights.go: Heuristic recommendations
  - energy/directory.go: Threshold configuration
*/
package alerts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/carbon-engine/energy"
	"github.com/warp/carbon-engine/generic"
)

type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
)

var (
	criticalPercent = decimal.NewFromInt(100)
	warningPercent  = decimal.NewFromInt(80)
)

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	}
	return 0
}

// Aggregates are the current values of every metric over the active period.
type Aggregates struct {
	Period   generic.Period
	AIKwh    decimal.Decimal
	TotalKwh decimal.Decimal
	Co2eKg   decimal.Decimal
	Cost     decimal.Decimal
}

// AggregatesOf sums the record snapshots that fall within period.
func AggregatesOf(records []energy.EnergyRecord, period generic.Period) Aggregates {
	a := Aggregates{Period: period}
	for _, r := range records {
		if !period.Contains(r.UsageDate) {
			continue
		}
		a.AIKwh = a.AIKwh.Add(r.Derived.AIAttributedKwh)
		a.TotalKwh = a.TotalKwh.Add(r.TotalKwh)
		a.Co2eKg = a.Co2eKg.Add(r.Derived.Co2eKg)
		a.Cost = a.Cost.Add(r.Derived.Cost)
	}
	return a
}

// Value returns the aggregate a metric is measured against.
func (a Aggregates) Value(metric energy.MetricType) (decimal.Decimal, bool) {
	switch metric {
	case energy.MetricAIUsageKwh:
		return a.AIKwh, true
	case energy.MetricTotalEnergyKwh:
		return a.TotalKwh, true
	case energy.MetricCarbonEmissionKg:
		return a.Co2eKg, true
	case energy.MetricMonthlyCost:
		return a.Cost, true
	}
	return decimal.Zero, false
}

// Alert is a computed threshold breach or near-breach.
type Alert struct {
	ThresholdID        string
	CompanyID          string
	MetricType         energy.MetricType
	Title              string
	Message            string
	ThresholdValue     decimal.Decimal
	CurrentValue       decimal.Decimal
	PercentOfThreshold decimal.Decimal
	Severity           Severity
	Triggered          bool // current ≥ threshold
	Period             generic.Period
}

// Evaluate checks every active threshold against the aggregates. Alerts
// are ordered CRITICAL first, then by percent descending.
func Evaluate(thresholds []energy.Threshold, agg Aggregates) []Alert {
	var alerts []Alert
	for _, t := range thresholds {
		if !t.Active || !t.Value.IsPositive() {
			continue
		}
		current, ok := agg.Value(t.MetricType)
		if !ok {
			continue
		}

		percent := current.Div(t.Value).Mul(generic.Hundred)
		var severity Severity
		switch {
		case percent.GreaterThanOrEqual(criticalPercent):
			severity = SeverityCritical
		case percent.GreaterThanOrEqual(warningPercent):
			severity = SeverityWarning
		default:
			continue
		}

		triggered := current.GreaterThanOrEqual(t.Value)
		message := t.Message
		if message == "" {
			message = fmt.Sprintf("Current %s is at %s%% of the configured threshold.",
				strings.ToLower(strings.ReplaceAll(string(t.MetricType), "_", " ")),
				percent.StringFixed(1))
		}
		alerts = append(alerts, Alert{
			ThresholdID:        t.ID,
			CompanyID:          t.CompanyID,
			MetricType:         t.MetricType,
			Title:              title(t.MetricType, triggered),
			Message:            message,
			ThresholdValue:     t.Value,
			CurrentValue:       current,
			PercentOfThreshold: percent,
			Severity:           severity,
			Triggered:          triggered,
			Period:             agg.Period,
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].Severity != alerts[j].Severity {
			return alerts[i].Severity.rank() > alerts[j].Severity.rank()
		}
		return alerts[i].PercentOfThreshold.GreaterThan(alerts[j].PercentOfThreshold)
	})
	return alerts
}

func title(metric energy.MetricType, triggered bool) string {
	status := "Approaching Threshold"
	if triggered {
		status = "Threshold Exceeded"
	}
	switch metric {
	case energy.MetricAIUsageKwh:
		return "AI Energy Usage " + status
	case energy.MetricTotalEnergyKwh:
		return "Total Energy " + status
	case energy.MetricCarbonEmissionKg:
		return "Carbon Emission " + status
	case energy.MetricMonthlyCost:
		return "Monthly Cost " + status
	}
	return "Alert: " + status
}
