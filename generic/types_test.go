package generic_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/warp/carbon-engine/generic"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

func TestMustParseDecimal(t *testing.T) {
	assert.True(t, generic.MustParseDecimal("0.30").Equal(d("0.3")))

	// Malformed literals are programmer errors, never a silent zero
	assert.Panics(t, func() { generic.MustParseDecimal("0,30") })
}

func TestPercent(t *testing.T) {
	assert.True(t, generic.Percent(d("25"), d("200")).Equal(d("12.5")))
	assert.True(t, generic.Percent(d("10"), decimal.Zero).IsZero(), "zero whole yields zero")
}

func TestChangePercent(t *testing.T) {
	tests := []struct {
		name     string
		previous string
		current  string
		want     string
	}{
		{"growth", "100", "120", "20"},
		{"decline", "200", "150", "-25"},
		{"flat", "80", "80", "0"},
		{"no baseline", "0", "500", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := generic.ChangePercent(d(tt.previous), d(tt.current))
			assert.True(t, got.Equal(d(tt.want)), "got %s", got)
		})
	}
}

func TestClampAndNonNegative(t *testing.T) {
	assert.True(t, generic.Clamp(d("1.5"), decimal.Zero, d("1")).Equal(d("1")))
	assert.True(t, generic.Clamp(d("-2"), decimal.Zero, d("1")).IsZero())
	assert.True(t, generic.Clamp(d("0.4"), decimal.Zero, d("1")).Equal(d("0.4")))

	assert.True(t, generic.NonNegative(d("-3")).IsZero())
	assert.True(t, generic.NonNegative(d("3")).Equal(d("3")))
}

func TestInUnitInterval(t *testing.T) {
	assert.True(t, generic.InUnitInterval(decimal.Zero))
	assert.True(t, generic.InUnitInterval(d("1")))
	assert.False(t, generic.InUnitInterval(d("1.01")))
	assert.False(t, generic.InUnitInterval(d("-0.01")))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 308.8, generic.Round2(d("308.8")))
	assert.Equal(t, 0.33, generic.Round2(d("1").Div(d("3"))))
}

// =============================================================================
// ERRORS
// =============================================================================

func TestValidationError_Unwraps(t *testing.T) {
	err := fmt.Errorf("create company: %w", generic.Invalid("region", "XX", "unknown region"))

	assert.True(t, generic.IsClientError(err))
	assert.False(t, generic.IsNotFound(err))

	var verr *generic.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "region", verr.Field)
	assert.Equal(t, "invalid region (XX): unknown region", verr.Error())
}

func TestNotFoundError(t *testing.T) {
	err := generic.NotFound("company", "c-1")

	assert.True(t, generic.IsNotFound(err))
	assert.Equal(t, "company not found: c-1", err.Error())
}

func TestPartialImportError_CombinesRejections(t *testing.T) {
	err := &generic.PartialImportError{
		Imported: 3,
		Rejections: []generic.RowRejection{
			{Row: 2, Reason: "invalid date"},
			{Row: 5, Reason: "unknown department"},
		},
	}

	assert.True(t, generic.IsPartialImport(err))
	assert.Len(t, multierr.Errors(err.Errors()), 2)
	assert.Contains(t, err.Error(), "row 5: unknown department")
}
