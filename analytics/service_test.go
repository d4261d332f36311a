package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/carbon-engine/analytics"
	"github.com/warp/carbon-engine/carbon"
	"github.com/warp/carbon-engine/energy"
	"github.com/warp/carbon-engine/generic"
	"github.com/warp/carbon-engine/store/memory"
)

func newService(t *testing.T) (*analytics.Service, *energy.Ledger, *energy.Directory, energy.Company) {
	t.Helper()
	store := memory.New()
	registry := carbon.DefaultRegistry()
	clock := func() time.Time { return time.Date(2025, time.March, 30, 18, 0, 0, 0, time.UTC) }
	directory := energy.NewDirectory(store, registry, nil).WithClock(clock)
	ledger := energy.NewLedger(store, carbon.NewCalculator(registry, store), energy.WithClock(clock))

	name := "Acme"
	company, err := directory.CreateCompany(context.Background(), energy.CompanyInput{Name: &name})
	require.NoError(t, err)

	return analytics.NewService(ledger, directory, registry).WithClock(clock), ledger, directory, company
}

func TestService_TrendsAndForecast(t *testing.T) {
	svc, ledger, _, company := newService(t)
	ctx := context.Background()
	for i, kwh := range []string{"100", "200", "300"} {
		_, err := ledger.Record(ctx, company.ID, energy.RecordInput{
			UsageDate: date(2025, time.Month(i+1), 10),
			TotalKwh:  dec(kwh),
		})
		require.NoError(t, err)
	}

	trends, err := svc.Trends(ctx, company.ID, 3)
	require.NoError(t, err)
	require.Len(t, trends, 3)
	assertDecimal(t, "90", trends[2].AIKwh, "0.30 company baseline")

	forecast, err := svc.Forecast(ctx, company.ID, 3, 1)
	require.NoError(t, err)
	require.Len(t, forecast, 1)
	assert.Equal(t, "2025-04", forecast[0].Key)
	assertDecimal(t, "120", forecast[0].PredictedAIKwh)

	_, err = svc.Trends(ctx, company.ID, 61)
	assert.True(t, generic.IsClientError(err))
	_, err = svc.Forecast(ctx, company.ID, 6, 25)
	assert.True(t, generic.IsClientError(err))
}

func TestService_SummaryCountsDepartments(t *testing.T) {
	svc, ledger, directory, company := newService(t)
	ctx := context.Background()
	name := "ML"
	_, err := directory.CreateDepartment(ctx, company.ID, energy.DepartmentInput{Name: &name})
	require.NoError(t, err)
	_, err = ledger.Record(ctx, company.ID, energy.RecordInput{UsageDate: date(2025, time.March, 29), TotalKwh: dec("10")})
	require.NoError(t, err)

	s, err := svc.Summary(ctx, company.ID)

	require.NoError(t, err)
	assert.Equal(t, 1, s.DepartmentCount)
	assert.Equal(t, "USD", s.Currency)
	assertDecimal(t, "10", s.Current.TotalKwh)
}

func TestService_UnknownCompany(t *testing.T) {
	svc, _, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Summary(ctx, "missing")
	assert.True(t, generic.IsNotFound(err))
	_, err = svc.Departments(ctx, "missing", generic.Period{})
	assert.True(t, generic.IsNotFound(err))
	_, err = svc.Regions(ctx, "missing")
	assert.True(t, generic.IsNotFound(err))
}
