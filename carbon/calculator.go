package carbon

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/carbon-engine/generic"
)

// =============================================================================
// OVERRIDES
// =============================================================================

// OverrideSource supplies company-specific intensities. Implemented by the
// store; ok is false when the company has no override for the region.
type OverrideSource interface {
	CarbonOverride(ctx context.Context, companyID, region string) (intensity decimal.Decimal, ok bool, err error)
}

// NoOverrides is an OverrideSource that never overrides.
type NoOverrides struct{}

func (NoOverrides) CarbonOverride(context.Context, string, string) (decimal.Decimal, bool, error) {
	return decimal.Zero, false, nil
}

// IntensitySource records where a resolved intensity came from.
type IntensitySource string

const (
	SourceOverride IntensitySource = "override"
	SourceDefault  IntensitySource = "default"
)

// Intensity is a resolved intensity for one (company, region) pair.
type Intensity struct {
	Region string
	Value  decimal.Decimal // gCO2/kWh
	Source IntensitySource
}

// Footprint is the carbon and cost of a kWh quantity.
type Footprint struct {
	Kwh       decimal.Decimal
	Co2eKg    decimal.Decimal
	Cost      decimal.Decimal
	Intensity Intensity
}

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator resolves intensities and converts kWh to CO2e and cost.
// It holds no mutable state.
type Calculator struct {
	registry  *Registry
	overrides OverrideSource
}

// NewCalculator wires a registry and an override source. A nil source
// disables overrides.
func NewCalculator(registry *Registry, overrides OverrideSource) *Calculator {
	if overrides == nil {
		overrides = NoOverrides{}
	}
	return &Calculator{registry: registry, overrides: overrides}
}

// Registry exposes the read-only default table.
func (c *Calculator) Registry() *Registry {
	return c.registry
}

// Resolve returns the override for (company, region) if present, else the
// registry default. Unknown regions without an override are NotFound.
func (c *Calculator) Resolve(ctx context.Context, companyID, region string) (Intensity, error) {
	code := NormalizeCode(region)
	if code == "" {
		return Intensity{}, generic.Invalid("region", region, "must not be empty")
	}

	if companyID != "" {
		v, ok, err := c.overrides.CarbonOverride(ctx, companyID, code)
		if err != nil {
			return Intensity{}, fmt.Errorf("failed to load carbon override: %w", err)
		}
		if ok {
			return Intensity{Region: code, Value: v, Source: SourceOverride}, nil
		}
	}

	reg, ok := c.registry.Lookup(code)
	if !ok {
		return Intensity{}, generic.NotFound("region", code)
	}
	return Intensity{Region: code, Value: reg.Intensity, Source: SourceDefault}, nil
}

// Footprint resolves the intensity and computes emissions and cost for kwh.
func (c *Calculator) Footprint(ctx context.Context, companyID, region string, kwh, pricePerKwh decimal.Decimal) (Footprint, error) {
	if kwh.IsNegative() {
		return Footprint{}, generic.Invalid("kwh", kwh, "must be >= 0")
	}
	in, err := c.Resolve(ctx, companyID, region)
	if err != nil {
		return Footprint{}, err
	}
	return Footprint{
		Kwh:       kwh,
		Co2eKg:    Emissions(kwh, in.Value),
		Cost:      Cost(kwh, pricePerKwh),
		Intensity: in,
	}, nil
}

// Emissions returns kg CO2e for kwh at intensity gCO2/kWh.
func Emissions(kwh, intensity decimal.Decimal) decimal.Decimal {
	return kwh.Mul(intensity).Div(generic.GramsPerKg)
}

// Cost returns kwh priced at pricePerKwh.
func Cost(kwh, pricePerKwh decimal.Decimal) decimal.Decimal {
	return kwh.Mul(pricePerKwh)
}
