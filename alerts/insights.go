package alerts

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/carbon-engine/carbon"
	"github.com/warp/carbon-engine/energy"
	"github.com/warp/carbon-engine/generic"
)

// =============================================================================
// INSIGHTS - Heuristic optimization recommendations
// =============================================================================

type Category string

const (
	CategoryRegion       Category = "REGION"
	CategoryBatching     Category = "BATCHING"
	CategoryEfficiency   Category = "EFFICIENCY"
	CategoryScheduling   Category = "SCHEDULING"
	CategoryCarbonBudget Category = "CARBON_BUDGET"
)

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	}
	return 2
}

type Insight struct {
	Category    Category
	Title       string
	Description string
	Impact      string
	Priority    Priority
	Actionable  string
}

// Heuristic tuning. Intensities are gCO2/kWh.
var (
	regionShareMin         = decimal.NewFromInt(25) // % of AI kWh
	highIntensity          = decimal.NewFromInt(400)
	alternativeRatio       = generic.MustParseDecimal("0.5")
	batchingMinRecords     = 20
	batchingMaxAvgKwh      = decimal.NewFromInt(50)
	efficiencyOverBaseline = generic.MustParseDecimal("1.2")
	schedulingMonthlyKwh   = decimal.NewFromInt(5000)
)

// InsightInput is what the heuristics look at.
type InsightInput struct {
	Company          energy.Company
	Records          []energy.EnergyRecord // recent window, usually the last 30 days
	MonthToDateAIKwh decimal.Decimal
	Thresholds       []energy.Threshold
	Registry         *carbon.Registry
}

// Insights derives recommendations ordered HIGH, MEDIUM, LOW. Insights of
// equal priority keep the order they were derived in.
func Insights(in InsightInput) []Insight {
	var out []Insight
	out = append(out, regionInsights(in)...)
	if i, ok := batchingInsight(in); ok {
		out = append(out, i)
	}
	if i, ok := efficiencyInsight(in); ok {
		out = append(out, i)
	}
	if in.MonthToDateAIKwh.GreaterThan(schedulingMonthlyKwh) {
		out = append(out, Insight{
			Category:    CategoryScheduling,
			Title:       "Spread Peak Loads",
			Description: fmt.Sprintf("AI usage reached %s kWh this month. Distributing workloads more evenly across time can reduce peak demand charges.", in.MonthToDateAIKwh.Round(0).String()),
			Impact:      "5-10% cost reduction on peak charges",
			Priority:    PriorityLow,
			Actionable:  "Implement a workload queue with rate limiting",
		})
	}
	if !hasCarbonBudget(in.Thresholds) {
		out = append(out, Insight{
			Category:    CategoryCarbonBudget,
			Title:       "Set Carbon Budgets",
			Description: "No monthly carbon threshold is configured. Budgets make emissions trackable and accountable.",
			Impact:      "Improved ESG reporting and accountability",
			Priority:    PriorityMedium,
			Actionable:  "Configure a CARBON_EMISSION_KG threshold",
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.rank() < out[j].Priority.rank()
	})
	return out
}

// regionInsights flags every region carrying a large share of AI load at a
// high effective intensity when the registry has a region at most half as
// carbon-intensive.
func regionInsights(in InsightInput) []Insight {
	if in.Registry == nil {
		return nil
	}
	greenest := in.Registry.Greenest()
	if len(greenest) == 0 {
		return nil
	}
	best := greenest[0]

	type regionLoad struct {
		aiKwh, aiCo2e decimal.Decimal
	}
	loads := make(map[string]*regionLoad)
	var order []string
	total := decimal.Zero
	for _, r := range in.Records {
		l, ok := loads[r.Region]
		if !ok {
			l = &regionLoad{}
			loads[r.Region] = l
			order = append(order, r.Region)
		}
		l.aiKwh = l.aiKwh.Add(r.Derived.AIAttributedKwh)
		l.aiCo2e = l.aiCo2e.Add(r.Derived.AICo2eKg)
		total = total.Add(r.Derived.AIAttributedKwh)
	}
	if !total.IsPositive() {
		return nil
	}

	var out []Insight
	for _, code := range order {
		l := loads[code]
		if !l.aiKwh.IsPositive() {
			continue
		}
		share := generic.Percent(l.aiKwh, total)
		intensity := l.aiCo2e.Mul(generic.GramsPerKg).Div(l.aiKwh)
		if share.LessThan(regionShareMin) || intensity.LessThan(highIntensity) {
			continue
		}
		if best.Intensity.GreaterThan(intensity.Mul(alternativeRatio)) {
			continue
		}
		reduction := decimal.NewFromInt(1).Sub(best.Intensity.Div(intensity)).Mul(generic.Hundred)
		out = append(out, Insight{
			Category: CategoryRegion,
			Title:    "Consider Greener Regions",
			Description: fmt.Sprintf("%s%% of AI energy runs in %s at %s gCO2/kWh. %s averages %s gCO2/kWh.",
				share.Round(0).String(), in.Registry.Name(code), intensity.Round(0).String(),
				best.Name, best.Intensity.String()),
			Impact:     fmt.Sprintf("Up to %s%% carbon reduction possible", reduction.Round(0).String()),
			Priority:   PriorityHigh,
			Actionable: fmt.Sprintf("Evaluate moving non-latency-critical workloads from %s to %s", code, best.Code),
		})
	}
	return out
}

func batchingInsight(in InsightInput) (Insight, bool) {
	n := len(in.Records)
	if n < batchingMinRecords {
		return Insight{}, false
	}
	sum := decimal.Zero
	for _, r := range in.Records {
		sum = sum.Add(r.Derived.AIAttributedKwh)
	}
	avg := sum.Div(decimal.NewFromInt(int64(n)))
	if !avg.LessThan(batchingMaxAvgKwh) {
		return Insight{}, false
	}
	return Insight{
		Category:    CategoryBatching,
		Title:       "Batch AI Workloads",
		Description: fmt.Sprintf("%d readings average only %s kWh of AI energy each. Consolidating small jobs into batches improves utilization.", n, avg.Round(1).String()),
		Impact:      "10-20% cost savings possible",
		Priority:    PriorityMedium,
		Actionable:  "Schedule batch inference jobs during off-peak hours (10 PM - 6 AM)",
	}, true
}

func efficiencyInsight(in InsightInput) (Insight, bool) {
	var ai, total decimal.Decimal
	for _, r := range in.Records {
		ai = ai.Add(r.Derived.AIAttributedKwh)
		total = total.Add(r.TotalKwh)
	}
	if !total.IsPositive() {
		return Insight{}, false
	}
	share := ai.Div(total)
	if !share.GreaterThan(in.Company.BaseAIPercentage.Mul(efficiencyOverBaseline)) {
		return Insight{}, false
	}
	return Insight{
		Category: CategoryEfficiency,
		Title:    "Model Optimization",
		Description: fmt.Sprintf("AI accounts for %s%% of energy against a %s%% baseline. Quantization, pruning or distillation can cut energy while keeping accuracy.",
			share.Mul(generic.Hundred).Round(1).String(), in.Company.BaseAIPercentage.Mul(generic.Hundred).Round(1).String()),
		Impact:     "15-30% energy reduction per inference",
		Priority:   PriorityMedium,
		Actionable: "Review top energy-consuming models for optimization opportunities",
	}, true
}

func hasCarbonBudget(thresholds []energy.Threshold) bool {
	for _, t := range thresholds {
		if t.Active && t.MetricType == energy.MetricCarbonEmissionKg {
			return true
		}
	}
	return false
}
