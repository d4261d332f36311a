/*
demo.go - Demo data loader for development and demonstrations

PURPOSE:

	Populates the store with a realistic company so the dashboard has
	something to show: four departments with different AI weights, six
	months of daily readings with a slight growth trend and weekend dips,
	and two alert thresholds.

DETERMINISM:

	Readings come from a fixed-seed generator, so two seeds on the same day
	produce identical kWh values (ids and timestamps differ).

USAGE VIA API:

	POST /api/demo/seed

NOTE:

	Every call creates a new company; nothing is reset. Only use in
	development/demo environments.

SEE ALSO:
  - cmd/ecoctl: `ecoctl seed` runs the same loader against a database file
*/
package api

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/carbon-engine/energy"
	"github.com/warp/carbon-engine/generic"
)

// =============================================================================
// DEMO DEFINITION
// =============================================================================

const demoSeed = 42

type demoDepartment struct {
	name, team, product string
	weight              string
	base, spread        float64 // daily kWh = base + rand*spread
}

var demoDepartments = []demoDepartment{
	{name: "Machine Learning", team: "ML Engineering", product: "AI Platform", weight: "0.85", base: 250, spread: 100},
	{name: "Data Science", team: "Analytics", product: "Insights Engine", weight: "0.65", base: 150, spread: 60},
	{name: "Software Development", team: "Platform", product: "Core Product", weight: "0.30", base: 100, spread: 40},
	{name: "Operations", team: "Infrastructure", weight: "0.20", base: 80, spread: 30},
}

// DemoMonths is how many calendar months of history the demo company gets,
// the current month included.
const DemoMonths = 6

// SeedDemo creates the demo company and its history up to today.
func SeedDemo(ctx context.Context, dir *energy.Directory, ledger *energy.Ledger, today generic.TimePoint) (energy.Company, error) {
	rng := rand.New(rand.NewSource(demoSeed))

	company, err := dir.CreateCompany(ctx, energy.CompanyInput{
		Name:                  ptr("TechCorp AI Solutions"),
		Industry:              ptr("Technology"),
		Country:               ptr("United States"),
		Region:                ptr("US"),
		BaseAIPercentage:      ptr(generic.MustParseDecimal("0.35")),
		ElectricityCostPerKwh: ptr(generic.MustParseDecimal("0.12")),
		Currency:              ptr("USD"),
	})
	if err != nil {
		return energy.Company{}, err
	}

	depts := make([]energy.Department, len(demoDepartments))
	for i, d := range demoDepartments {
		in := energy.DepartmentInput{
			Name:          ptr(d.name),
			Team:          ptr(d.team),
			AIUsageWeight: ptr(generic.MustParseDecimal(d.weight)),
			EmployeeCount: ptr(10 + rng.Intn(40)),
		}
		if d.product != "" {
			in.Product = ptr(d.product)
		}
		if depts[i], err = dir.CreateDepartment(ctx, company.ID, in); err != nil {
			return energy.Company{}, err
		}
	}

	var inputs []energy.RecordInput
	thisMonth := generic.StartOfMonth(today.Year(), today.Month())
	for back := DemoMonths - 1; back >= 0; back-- {
		month := thisMonth.AddMonths(-back)
		growth := 1.0 + float64(DemoMonths-1-back)*0.03
		for day := month; day.Month() == month.Month() && day.BeforeOrEqual(today); day = day.AddDays(1) {
			for i, d := range demoDepartments {
				usage := (d.base + rng.Float64()*d.spread) * growth * (0.9 + rng.Float64()*0.2)
				if wd := day.Time.Weekday(); wd == time.Saturday || wd == time.Sunday {
					usage *= 0.4
				}
				inputs = append(inputs, energy.RecordInput{
					DepartmentID: depts[i].ID,
					UsageDate:    day,
					TotalKwh:     decimal.NewFromFloat(usage).Round(2),
					PeriodType:   energy.PeriodDaily,
					DataSource:   energy.SourceSampleData,
				})
			}
		}
	}
	if _, err := ledger.RecordBatch(ctx, company.ID, inputs); err != nil {
		return energy.Company{}, err
	}

	for _, t := range []energy.ThresholdInput{
		{MetricType: string(energy.MetricAIUsageKwh), Value: decimal.NewFromInt(15000), Message: "Monthly AI energy usage approaching limit"},
		{MetricType: string(energy.MetricCarbonEmissionKg), Value: decimal.NewFromInt(6000), Message: "Monthly carbon emissions near budget"},
	} {
		if _, err := dir.ConfigureThreshold(ctx, company.ID, t); err != nil {
			return energy.Company{}, err
		}
	}
	return company, nil
}

// LoadDemo handles POST /api/demo/seed.
func (h *Handler) LoadDemo(w http.ResponseWriter, r *http.Request) {
	company, err := SeedDemo(r.Context(), h.Directory, h.Ledger, h.today())
	if err != nil {
		h.respondError(w, r, "Failed to load demo data", err)
		return
	}
	h.logger.Info("demo company seeded", zap.String("company_id", company.ID))
	writeJSON(w, http.StatusCreated, toCompanyDTO(company))
}

func ptr[T any](v T) *T {
	return &v
}
