package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/carbon-engine/energy"
	"github.com/warp/carbon-engine/generic"
	"github.com/warp/carbon-engine/simulation"
	"github.com/warp/carbon-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var created = time.Date(2025, time.March, 1, 10, 30, 0, 123, time.UTC)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedCompany(t *testing.T, store *sqlite.Store, id string) energy.Company {
	t.Helper()
	c := energy.Company{
		ID:                    id,
		Name:                  "Acme " + id,
		Industry:              "Technology",
		Country:               "Germany",
		Region:                "DE",
		BaseAIPercentage:      dec("0.35"),
		ElectricityCostPerKwh: dec("0.21"),
		Currency:              "EUR",
		CreatedAt:             created,
		UpdatedAt:             created,
	}
	require.NoError(t, store.SaveCompany(context.Background(), c))
	return c
}

func record(id, companyID string, day int, kwh string) energy.EnergyRecord {
	return energy.EnergyRecord{
		ID:             id,
		CompanyID:      companyID,
		DepartmentID:   "ml",
		DepartmentName: "ML",
		UsageDate:      generic.NewTimePoint(2025, time.March, day),
		TotalKwh:       dec(kwh),
		Region:         "DE",
		PeriodType:     energy.PeriodDaily,
		DataSource:     energy.SourceCSVImport,
		Currency:       "EUR",
		Derived: energy.Derived{
			AIAttributedKwh:   dec("800"),
			AttributionWeight: dec("0.8"),
			AttributionSource: energy.AttributedByDepartment,
			CarbonIntensity:   dec("350"),
			IntensitySource:   "default",
			Co2eKg:            dec("350"),
			AICo2eKg:          dec("280"),
			Cost:              dec("210"),
			AICost:            dec("168"),
		},
		CreatedAt: created,
	}
}

// =============================================================================
// COMPANIES
// =============================================================================

func TestCompany_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	want := seedCompany(t, store, "c1")

	got, err := store.GetCompany(ctx, "c1")

	require.NoError(t, err)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, "DE", got.Region)
	assert.True(t, got.BaseAIPercentage.Equal(dec("0.35")))
	assert.True(t, got.ElectricityCostPerKwh.Equal(dec("0.21")))
	assert.True(t, got.CreatedAt.Equal(created))

	_, err = store.GetCompany(ctx, "missing")
	assert.True(t, generic.IsNotFound(err))
}

func TestCompany_UpsertKeepsCreatedAt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	c := seedCompany(t, store, "c1")

	c.Name = "Renamed"
	c.CreatedAt = created.Add(time.Hour)
	c.UpdatedAt = created.Add(time.Hour)
	require.NoError(t, store.SaveCompany(ctx, c))

	got, err := store.GetCompany(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.True(t, got.CreatedAt.Equal(created))

	all, err := store.ListCompanies(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

// =============================================================================
// DEPARTMENTS
// =============================================================================

func TestDepartment_RoundTripAndDeleteKeepsRecords(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCompany(t, store, "c1")

	require.NoError(t, store.SaveDepartment(ctx, energy.Department{
		ID: "ml", CompanyID: "c1", Name: "ML", Team: "Research",
		AIUsageWeight: dec("0.8"), EmployeeCount: 12, CreatedAt: created, UpdatedAt: created,
	}))
	got, err := store.GetDepartment(ctx, "ml")
	require.NoError(t, err)
	assert.Equal(t, "Research", got.Team)
	assert.Equal(t, 12, got.EmployeeCount)
	assert.True(t, got.AIUsageWeight.Equal(dec("0.8")))

	require.NoError(t, store.AppendRecords(ctx, []energy.EnergyRecord{record("r1", "c1", 1, "1000")}))
	require.NoError(t, store.DeleteDepartment(ctx, "ml"))

	_, err = store.GetDepartment(ctx, "ml")
	assert.True(t, generic.IsNotFound(err))
	records, err := store.LoadRecords(ctx, "c1", generic.Period{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ML", records[0].DepartmentName)
}

// =============================================================================
// RECORDS
// =============================================================================

func TestRecords_RoundTripPreservesSnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCompany(t, store, "c1")
	want := record("r1", "c1", 5, "1000.25")

	require.NoError(t, store.AppendRecords(ctx, []energy.EnergyRecord{want}))
	records, err := store.LoadRecords(ctx, "c1", generic.Period{})

	require.NoError(t, err)
	require.Len(t, records, 1)
	got := records[0]
	assert.Equal(t, want.UsageDate, got.UsageDate)
	assert.True(t, got.TotalKwh.Equal(dec("1000.25")))
	assert.Equal(t, energy.SourceCSVImport, got.DataSource)
	assert.Equal(t, energy.AttributedByDepartment, got.Derived.AttributionSource)
	assert.True(t, got.Derived.AICo2eKg.Equal(dec("280")))
	assert.True(t, got.Derived.AICost.Equal(dec("168")))
	assert.Equal(t, "default", got.Derived.IntensitySource)
}

func TestRecords_OrderedAndFiltered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCompany(t, store, "c1")
	seedCompany(t, store, "c2")

	require.NoError(t, store.AppendRecords(ctx, []energy.EnergyRecord{
		record("late", "c1", 20, "1"),
		record("early", "c1", 2, "1"),
		record("same-day-1", "c1", 10, "1"),
		record("same-day-2", "c1", 10, "1"),
		record("other", "c2", 10, "1"),
	}))

	all, err := store.LoadRecords(ctx, "c1", generic.Period{})
	require.NoError(t, err)
	ids := make([]string, len(all))
	for i, r := range all {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"early", "same-day-1", "same-day-2", "late"}, ids)

	window, err := store.LoadRecords(ctx, "c1", generic.Period{
		Start: generic.NewTimePoint(2025, time.March, 10),
		End:   generic.NewTimePoint(2025, time.March, 20),
	})
	require.NoError(t, err)
	assert.Len(t, window, 3)
}

func TestAppendRecords_Atomic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCompany(t, store, "c1")

	// GIVEN: a batch whose second record references an unknown company
	err := store.AppendRecords(ctx, []energy.EnergyRecord{
		record("ok", "c1", 1, "1"),
		record("orphan", "nope", 1, "1"),
	})

	// THEN: the batch fails and nothing is written
	assert.True(t, generic.IsNotFound(err))
	records, err := store.LoadRecords(ctx, "c1", generic.Period{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

// =============================================================================
// CARBON CONFIGS & THRESHOLDS
// =============================================================================

func TestCarbonConfig_Upsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCompany(t, store, "c1")

	_, ok, err := store.CarbonOverride(ctx, "c1", "DE")
	require.NoError(t, err)
	assert.False(t, ok)

	for _, v := range []string{"300", "280.5"} {
		require.NoError(t, store.SaveCarbonConfig(ctx, energy.CarbonConfig{
			CompanyID: "c1", Region: "de", Intensity: dec(v), Unit: "gCO2/kWh", ValidYear: 2025, UpdatedAt: created,
		}))
	}

	v, ok, err := store.CarbonOverride(ctx, "c1", "De")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, v.Equal(dec("280.5")))

	configs, err := store.ListCarbonConfigs(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, "DE", configs[0].Region)
	assert.Equal(t, 2025, configs[0].ValidYear)

	err = store.SaveCarbonConfig(ctx, energy.CarbonConfig{CompanyID: "nope", Region: "DE", Intensity: dec("1"), UpdatedAt: created})
	assert.True(t, generic.IsNotFound(err))
}

func TestThreshold_UpsertKeepsFirstID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCompany(t, store, "c1")

	first := energy.Threshold{ID: "t1", CompanyID: "c1", MetricType: energy.MetricMonthlyCost, Value: dec("100"), Active: true, CreatedAt: created}
	require.NoError(t, store.SaveThreshold(ctx, first))
	second := first
	second.ID = "t2"
	second.Value = dec("250")
	second.Active = false
	require.NoError(t, store.SaveThreshold(ctx, second))

	thresholds, err := store.ListThresholds(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, thresholds, 1)
	assert.Equal(t, "t1", thresholds[0].ID)
	assert.True(t, thresholds[0].Value.Equal(dec("250")))
	assert.False(t, thresholds[0].Active)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenarios_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCompany(t, store, "c1")

	growth := dec("20")
	for i, name := range []string{"first", "second"} {
		require.NoError(t, store.SaveScenario(ctx, simulation.SavedScenario{
			ID:        name,
			CompanyID: "c1",
			Name:      name,
			CreatedAt: created.Add(time.Duration(i) * time.Minute),
			Result: simulation.Result{
				Kind:       simulation.KindGrowth,
				Parameters: simulation.Parameters{GrowthPercent: &growth, MonthsAhead: 12},
				Baseline:   simulation.Footprint{Kwh: dec("1000"), Co2eKg: dec("386"), Cost: dec("120")},
				Projected:  simulation.Footprint{Kwh: dec("1200"), Co2eKg: dec("463.2"), Cost: dec("144")},
			},
		}))
	}

	list, err := store.ListScenarios(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Name)
	assert.Equal(t, simulation.KindGrowth, list[0].Result.Kind)
	require.NotNil(t, list[0].Result.Parameters.GrowthPercent)
	assert.True(t, list[0].Result.Parameters.GrowthPercent.Equal(growth))
	assert.True(t, list[0].Result.Projected.Co2eKg.Equal(dec("463.2")))
}

// =============================================================================
// CASCADE
// =============================================================================

func TestDeleteCompany_Cascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCompany(t, store, "c1")
	seedCompany(t, store, "c2")

	require.NoError(t, store.SaveDepartment(ctx, energy.Department{ID: "ml", CompanyID: "c1", Name: "ML", AIUsageWeight: dec("0.5"), CreatedAt: created, UpdatedAt: created}))
	require.NoError(t, store.AppendRecords(ctx, []energy.EnergyRecord{record("r1", "c1", 1, "1"), record("r2", "c2", 1, "1")}))
	require.NoError(t, store.SaveThreshold(ctx, energy.Threshold{ID: "t1", CompanyID: "c1", MetricType: energy.MetricAIUsageKwh, Value: dec("1"), Active: true, CreatedAt: created}))
	require.NoError(t, store.SaveScenario(ctx, simulation.SavedScenario{ID: "s1", CompanyID: "c1", Name: "s", Result: simulation.Result{Kind: simulation.KindEfficiency}, CreatedAt: created}))

	require.NoError(t, store.DeleteCompany(ctx, "c1"))

	_, err := store.GetDepartment(ctx, "ml")
	assert.True(t, generic.IsNotFound(err))
	gone, err := store.LoadRecords(ctx, "c1", generic.Period{})
	require.NoError(t, err)
	assert.Empty(t, gone)
	scenarios, err := store.ListScenarios(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, scenarios)

	kept, err := store.LoadRecords(ctx, "c2", generic.Period{})
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestPing(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}
