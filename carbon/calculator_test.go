package carbon_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/carbon-engine/carbon"
	"github.com/warp/carbon-engine/generic"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// staticOverrides maps companyID/REGION to an intensity.
type staticOverrides map[string]decimal.Decimal

func (s staticOverrides) CarbonOverride(_ context.Context, companyID, region string) (decimal.Decimal, bool, error) {
	v, ok := s[companyID+"/"+region]
	return v, ok, nil
}

type failingOverrides struct{}

func (failingOverrides) CarbonOverride(context.Context, string, string) (decimal.Decimal, bool, error) {
	return decimal.Zero, false, errors.New("db down")
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// =============================================================================
// RESOLVE
// =============================================================================

func TestResolve_DefaultWithoutOverride(t *testing.T) {
	calc := carbon.NewCalculator(carbon.DefaultRegistry(), nil)

	in, err := calc.Resolve(context.Background(), "acme", "fr")

	require.NoError(t, err)
	assert.Equal(t, "FR", in.Region)
	assert.Equal(t, carbon.SourceDefault, in.Source)
	assert.True(t, in.Value.Equal(dec("56")))
}

func TestResolve_OverrideWins(t *testing.T) {
	// GIVEN: acme measured its own US intensity
	calc := carbon.NewCalculator(carbon.DefaultRegistry(), staticOverrides{
		"acme/US": dec("250"),
	})

	// WHEN: resolving for acme and for someone else
	own, err := calc.Resolve(context.Background(), "acme", "us")
	require.NoError(t, err)
	other, err := calc.Resolve(context.Background(), "globex", "US")
	require.NoError(t, err)

	// THEN: only acme sees the override
	assert.Equal(t, carbon.SourceOverride, own.Source)
	assert.True(t, own.Value.Equal(dec("250")))
	assert.Equal(t, carbon.SourceDefault, other.Source)
	assert.True(t, other.Value.Equal(dec("386")))
}

func TestResolve_OverrideForUnknownRegion(t *testing.T) {
	calc := carbon.NewCalculator(carbon.DefaultRegistry(), staticOverrides{
		"acme/ON-PREM": dec("90"),
	})

	in, err := calc.Resolve(context.Background(), "acme", "on-prem")
	require.NoError(t, err)
	assert.True(t, in.Value.Equal(dec("90")))

	_, err = calc.Resolve(context.Background(), "globex", "on-prem")
	assert.True(t, generic.IsNotFound(err))
}

func TestResolve_Errors(t *testing.T) {
	calc := carbon.NewCalculator(carbon.DefaultRegistry(), failingOverrides{})

	_, err := calc.Resolve(context.Background(), "acme", " ")
	assert.True(t, generic.IsClientError(err))

	_, err = calc.Resolve(context.Background(), "acme", "US")
	assert.ErrorContains(t, err, "db down")
}

// =============================================================================
// FOOTPRINT
// =============================================================================

func TestEmissionsAndCost(t *testing.T) {
	// 1000 kWh at 386 g/kWh is 386 kg
	assert.True(t, carbon.Emissions(dec("1000"), dec("386")).Equal(dec("386")))
	assert.True(t, carbon.Emissions(dec("800"), dec("386")).Equal(dec("308.8")))
	assert.True(t, carbon.Cost(dec("1000"), dec("0.12")).Equal(dec("120")))
}

func TestFootprint(t *testing.T) {
	calc := carbon.NewCalculator(carbon.DefaultRegistry(), nil)

	fp, err := calc.Footprint(context.Background(), "", "SE", dec("2000"), dec("0.10"))

	require.NoError(t, err)
	assert.True(t, fp.Co2eKg.Equal(dec("82")))
	assert.True(t, fp.Cost.Equal(dec("200")))
	assert.Equal(t, "SE", fp.Intensity.Region)

	_, err = calc.Footprint(context.Background(), "", "SE", dec("-1"), dec("0.10"))
	assert.True(t, generic.IsClientError(err))
}
