package energy_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/carbon-engine/carbon"
	"github.com/warp/carbon-engine/energy"
	"github.com/warp/carbon-engine/generic"
	"github.com/warp/carbon-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var fixedNow = time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store     *memory.Store
	directory *energy.Directory
	ledger    *energy.Ledger
	company   energy.Company
	ml        energy.Department
	publisher *recordingPublisher
	observer  *countingObserver
}

// newFixture creates a US company (baseline 0.30, price 0.12) with one
// "ML Platform" department weighted 0.80.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	registry := carbon.DefaultRegistry()
	f := &fixture{
		store:     store,
		directory: energy.NewDirectory(store, registry, nil).WithClock(func() time.Time { return fixedNow }),
		publisher: &recordingPublisher{},
		observer:  &countingObserver{appended: map[energy.DataSource]int{}},
	}
	f.ledger = energy.NewLedger(store, carbon.NewCalculator(registry, store),
		energy.WithPublisher(f.publisher),
		energy.WithObserver(f.observer),
		energy.WithClock(func() time.Time { return fixedNow }),
	)

	ctx := context.Background()
	var err error
	f.company, err = f.directory.CreateCompany(ctx, energy.CompanyInput{
		Name:                  ptr("Acme"),
		Region:                ptr("US"),
		BaseAIPercentage:      ptr(dec("0.30")),
		ElectricityCostPerKwh: ptr(dec("0.12")),
	})
	require.NoError(t, err)
	f.ml, err = f.directory.CreateDepartment(ctx, f.company.ID, energy.DepartmentInput{
		Name:          ptr("ML Platform"),
		AIUsageWeight: ptr(dec("0.80")),
	})
	require.NoError(t, err)
	return f
}

type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]energy.EnergyRecord
	err     error
}

func (p *recordingPublisher) PublishRecords(_ context.Context, records []energy.EnergyRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, records)
	return p.err
}

type countingObserver struct {
	mu       sync.Mutex
	appended map[energy.DataSource]int
	rejected int
}

func (o *countingObserver) RecordsAppended(source energy.DataSource, n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.appended[source] += n
}

func (o *countingObserver) RowsRejected(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rejected += n
}

func ptr[T any](v T) *T { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(d int) generic.TimePoint { return generic.NewTimePoint(2025, time.March, d) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

// =============================================================================
// RECORD
// =============================================================================

func TestRecord_DerivesSnapshot(t *testing.T) {
	f := newFixture(t)

	// GIVEN: 1000 kWh from the ML department in the US
	// WHEN: recorded
	rec, err := f.ledger.Record(context.Background(), f.company.ID, energy.RecordInput{
		DepartmentID: f.ml.ID,
		UsageDate:    day(10),
		TotalKwh:     dec("1000"),
	})
	require.NoError(t, err)

	// THEN: derived values follow the department weight and US intensity
	assertDecimal(t, "800", rec.Derived.AIAttributedKwh)
	assertDecimal(t, "386", rec.Derived.Co2eKg)
	assertDecimal(t, "308.8", rec.Derived.AICo2eKg)
	assertDecimal(t, "120", rec.Derived.Cost)
	assertDecimal(t, "96", rec.Derived.AICost)
	assertDecimal(t, "386", rec.Derived.CarbonIntensity)
	assert.Equal(t, energy.AttributedByDepartment, rec.Derived.AttributionSource)
	assert.Equal(t, "default", rec.Derived.IntensitySource)

	assert.Equal(t, "US", rec.Region)
	assert.Equal(t, "ML Platform", rec.DepartmentName)
	assert.Equal(t, energy.PeriodDaily, rec.PeriodType)
	assert.Equal(t, energy.SourceManual, rec.DataSource)
	assert.Equal(t, "USD", rec.Currency)
	assert.Equal(t, fixedNow, rec.CreatedAt)
}

func TestRecord_CompanyBaselineWithoutDepartment(t *testing.T) {
	f := newFixture(t)

	rec, err := f.ledger.Record(context.Background(), f.company.ID, energy.RecordInput{
		UsageDate: day(10),
		TotalKwh:  dec("1000"),
		Region:    "fr",
	})
	require.NoError(t, err)

	assertDecimal(t, "300", rec.Derived.AIAttributedKwh)
	assert.Equal(t, energy.AttributedByCompany, rec.Derived.AttributionSource)
	assert.Equal(t, "FR", rec.Region)
	assertDecimal(t, "56", rec.Derived.Co2eKg)
}

func TestRecord_ZeroKwhIsAccepted(t *testing.T) {
	f := newFixture(t)

	rec, err := f.ledger.Record(context.Background(), f.company.ID, energy.RecordInput{
		DepartmentID: f.ml.ID,
		UsageDate:    day(1),
		TotalKwh:     decimal.Zero,
	})

	require.NoError(t, err)
	assert.True(t, rec.Derived.AIAttributedKwh.IsZero())
	assert.True(t, rec.Derived.Co2eKg.IsZero())
}

func TestRecord_Rejections(t *testing.T) {
	f := newFixture(t)
	other, err := f.directory.CreateCompany(context.Background(), energy.CompanyInput{Name: ptr("Globex")})
	require.NoError(t, err)
	foreign, err := f.directory.CreateDepartment(context.Background(), other.ID, energy.DepartmentInput{Name: ptr("R&D")})
	require.NoError(t, err)

	tests := []struct {
		name     string
		in       energy.RecordInput
		notFound bool
	}{
		{name: "negative kwh", in: energy.RecordInput{UsageDate: day(1), TotalKwh: dec("-1")}},
		{name: "missing date", in: energy.RecordInput{TotalKwh: dec("10")}},
		{name: "bad period type", in: energy.RecordInput{UsageDate: day(1), TotalKwh: dec("10"), PeriodType: "HOURLY"}},
		{name: "foreign department", in: energy.RecordInput{UsageDate: day(1), TotalKwh: dec("10"), DepartmentID: foreign.ID}},
		{name: "unknown region", in: energy.RecordInput{UsageDate: day(1), TotalKwh: dec("10"), Region: "MARS"}, notFound: true},
		{name: "unknown department", in: energy.RecordInput{UsageDate: day(1), TotalKwh: dec("10"), DepartmentID: "nope"}, notFound: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.Record(context.Background(), f.company.ID, tt.in)
			require.Error(t, err)
			if tt.notFound {
				assert.True(t, generic.IsNotFound(err), err.Error())
			} else {
				assert.True(t, generic.IsClientError(err), err.Error())
			}
		})
	}

	// Nothing was stored
	records, err := f.ledger.Records(context.Background(), f.company.ID, generic.Period{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecord_UnknownCompany(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.Record(context.Background(), "missing", energy.RecordInput{UsageDate: day(1), TotalKwh: dec("1")})

	assert.True(t, generic.IsNotFound(err))
}

func TestRecord_SnapshotSurvivesWeightChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// GIVEN: a record written at weight 0.80
	first, err := f.ledger.Record(ctx, f.company.ID, energy.RecordInput{DepartmentID: f.ml.ID, UsageDate: day(1), TotalKwh: dec("100")})
	require.NoError(t, err)

	// WHEN: the weight drops to 0.50 and another record is written
	_, err = f.directory.UpdateDepartment(ctx, f.ml.ID, energy.DepartmentInput{AIUsageWeight: ptr(dec("0.50"))})
	require.NoError(t, err)
	second, err := f.ledger.Record(ctx, f.company.ID, energy.RecordInput{DepartmentID: f.ml.ID, UsageDate: day(2), TotalKwh: dec("100")})
	require.NoError(t, err)

	// THEN: the stored first record still carries the attribution it was appended with
	records, err := f.ledger.Records(ctx, f.company.ID, generic.Period{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, first.ID, records[0].ID)
	assertDecimal(t, "80", records[0].Derived.AIAttributedKwh)
	assert.Equal(t, second.ID, records[1].ID)
	assertDecimal(t, "50", records[1].Derived.AIAttributedKwh)
}

func TestRecord_UsesCarbonOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.directory.SetCarbonConfig(ctx, f.company.ID, energy.CarbonConfig{Region: "us", Intensity: dec("200")})
	require.NoError(t, err)

	rec, err := f.ledger.Record(ctx, f.company.ID, energy.RecordInput{UsageDate: day(3), TotalKwh: dec("1000")})
	require.NoError(t, err)

	assertDecimal(t, "200", rec.Derived.CarbonIntensity)
	assert.Equal(t, "override", rec.Derived.IntensitySource)
	assertDecimal(t, "200", rec.Derived.Co2eKg)
}

func TestRecord_PublishesAndObserves(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker unavailable")

	// WHEN: publishing fails
	rec, err := f.ledger.Record(context.Background(), f.company.ID, energy.RecordInput{UsageDate: day(3), TotalKwh: dec("5")})

	// THEN: the append still succeeds
	require.NoError(t, err)
	require.Len(t, f.publisher.batches, 1)
	assert.Equal(t, rec.ID, f.publisher.batches[0][0].ID)
	assert.Equal(t, 1, f.observer.appended[energy.SourceManual])
}

// =============================================================================
// RECORD BATCH
// =============================================================================

func TestRecordBatch_AllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// GIVEN: a batch whose last input is invalid
	inputs := []energy.RecordInput{
		{DepartmentID: f.ml.ID, UsageDate: day(1), TotalKwh: dec("10")},
		{UsageDate: day(2), TotalKwh: dec("20")},
		{UsageDate: day(3), TotalKwh: dec("-1")},
	}

	// WHEN: recorded as a batch
	_, err := f.ledger.RecordBatch(ctx, f.company.ID, inputs)

	// THEN: nothing is stored
	assert.True(t, generic.IsClientError(err))
	records, err := f.ledger.Records(ctx, f.company.ID, generic.Period{})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, f.publisher.batches)
}

func TestRecordBatch_AppendsAndPublishesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	recs, err := f.ledger.RecordBatch(ctx, f.company.ID, []energy.RecordInput{
		{DepartmentID: f.ml.ID, UsageDate: day(2), TotalKwh: dec("10"), DataSource: energy.SourceSampleData},
		{UsageDate: day(1), TotalKwh: dec("20")},
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	records, err := f.ledger.Records(ctx, f.company.ID, generic.Period{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, day(1), records[0].UsageDate, "ordered by usage date")

	assert.Len(t, f.publisher.batches, 1)
	assert.Equal(t, 1, f.observer.appended[energy.SourceSampleData])
	assert.Equal(t, 1, f.observer.appended[energy.SourceManual])
}

func TestRecordBatch_UnknownDepartment(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.RecordBatch(context.Background(), f.company.ID, []energy.RecordInput{
		{DepartmentID: "ghost", UsageDate: day(1), TotalKwh: dec("1")},
	})

	assert.True(t, generic.IsNotFound(err))
}

// =============================================================================
// QUERY
// =============================================================================

func TestRecords_FiltersByPeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, d := range []int{1, 5, 10, 20} {
		_, err := f.ledger.Record(ctx, f.company.ID, energy.RecordInput{UsageDate: day(d), TotalKwh: dec("1")})
		require.NoError(t, err)
	}

	records, err := f.ledger.Records(ctx, f.company.ID, generic.Period{Start: day(5), End: day(10)})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, day(5), records[0].UsageDate)
	assert.Equal(t, day(10), records[1].UsageDate)

	_, err = f.ledger.Records(ctx, f.company.ID, generic.Period{Start: day(10), End: day(5)})
	assert.True(t, generic.IsClientError(err))
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestRecord_ConcurrentWritersLoseNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.ledger.Record(ctx, f.company.ID, energy.RecordInput{
				UsageDate: day(1 + i%28),
				TotalKwh:  dec("2"),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	records, err := f.ledger.Records(ctx, f.company.ID, generic.Period{})
	require.NoError(t, err)
	assert.Len(t, records, 50)
}
