package energy

import (
	"github.com/shopspring/decimal"

	"github.com/warp/carbon-engine/generic"
)

// =============================================================================
// ATTRIBUTION - Share of a reading assigned to AI workloads
// =============================================================================

// Attribution is the result of attributing one reading.
type Attribution struct {
	AIKwh  decimal.Decimal
	Weight decimal.Decimal
	Source AttributionSource
}

// Attribute assigns the AI share of totalKwh.
//
//	department given:  ai = total × department.AIUsageWeight
//	otherwise:         ai = total × company.BaseAIPercentage
//
// The result is clamped to [0, total]. A negative total is rejected, never
// coerced.
func Attribute(totalKwh decimal.Decimal, company Company, department *Department) (Attribution, error) {
	if totalKwh.IsNegative() {
		return Attribution{}, generic.Invalid("totalKwh", totalKwh, "must be >= 0")
	}

	weight, source := company.BaseAIPercentage, AttributedByCompany
	if department != nil {
		weight, source = department.AIUsageWeight, AttributedByDepartment
	}

	ai := generic.Clamp(totalKwh.Mul(weight), decimal.Zero, totalKwh)
	return Attribution{AIKwh: ai, Weight: weight, Source: source}, nil
}
